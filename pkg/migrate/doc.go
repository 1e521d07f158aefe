/*
Package migrate drives the migration from legacy scattered config files to
the namespaced layout.

# State machine

	not_started -> phase1 -> phase2 -> phase3 -> completed
	                  \         \         \
	                   +---------+---------+--> failed

Phases run named steps in sequence:

  - phase1: backup_existing_configs, deduplicate_legacy_configs
  - phase2: split_by_environment, install_validation
  - phase3: enable_dynamic_reload, enable_audit_logging

Any step failure aborts the whole run, moves state to failed with the
original message preserved, and persists it. There is no automatic
partial-phase rollback and no retry policy; the controller is an
operator-invoked tool, not an always-on service.

# Backup and rollback

Backups land in <config_dir>/backups/pre_migration_<timestamp>/ with a
metadata.json manifest written only after every listed file copied
successfully. Rollback copies each manifest file back over its live
counterpart byte-for-byte and resets persisted state to not_started.

# Dry run

With WithDryRun every phase logs its planned actions and writes nothing,
leaving the config tree byte-identical.
*/
package migrate
