/*
Package metrics provides Prometheus metrics and health reporting for strata.

The metrics package defines and registers all strata metrics using the
Prometheus client library, covering resolver cache behavior, source load
failures, resolution latency, watcher activity, and migration progress.
Metrics are exposed via HTTP endpoint for scraping (strata serve-metrics).

# Metrics

  - strata_resolve_total{namespace,result}: resolutions by outcome
  - strata_cache_hits_total / strata_cache_misses_total: cache behavior
  - strata_source_load_failures_total{namespace,format}: failed source loads
  - strata_resolve_duration_seconds{namespace}: resolution latency
  - strata_registered_namespaces: registry size
  - strata_watch_events_total{namespace}: file change events seen
  - strata_migration_phase / strata_migration_steps_total{result}

# Health

The package also hosts the process-wide health registry. The resolver
registers one component per namespace ("resolver:<name>"); the migration
controller's Validate consults GetHealth().Status to decide whether the
merged configuration system is healthy. HTTP handlers for /healthz and
/livez are provided for the serve-metrics command.
*/
package metrics
