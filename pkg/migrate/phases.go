package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/strataconf/strata/pkg/audit"
	"github.com/strataconf/strata/pkg/merge"
	"github.com/strataconf/strata/pkg/source"
	"github.com/strataconf/strata/pkg/types"
)

type step struct {
	name string
	fn   func() error
}

func (c *Controller) phaseSteps(phase string) []step {
	switch phase {
	case "phase1":
		return []step{
			{"backup_existing_configs", c.backupExistingConfigs},
			{"deduplicate_legacy_configs", c.deduplicateLegacyConfigs},
		}
	case "phase2":
		return []step{
			{"split_by_environment", c.splitByEnvironment},
			{"install_validation", c.installValidation},
		}
	case "phase3":
		return []step{
			{"enable_dynamic_reload", c.enableDynamicReload},
			{"enable_audit_logging", c.enableAuditLogging},
		}
	default:
		return nil
	}
}

func (c *Controller) integratedDir() string {
	return filepath.Join(c.configDir, "integrated")
}

// formatRank orders legacy files within one namespace the same way the
// resolver ranks sources, so merging ascending keeps YAML over JSON over
// conf.
func formatRank(name string) types.Priority {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return types.PriorityYAML
	case ".json":
		return types.PriorityJSON
	case ".conf":
		return types.PriorityConf
	default:
		return types.PriorityDefault
	}
}

func formatForFile(name string) types.SourceFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return types.FormatYAML
	case ".json":
		return types.FormatJSON
	case ".conf":
		return types.FormatConf
	default:
		return types.FormatDefault
	}
}

// namespaceForFile derives the logical namespace from a legacy filename:
// "slack_config.yaml" and "slack.json" both land in "slack".
func namespaceForFile(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.TrimSuffix(base, "_config")
	return base
}

// deduplicateLegacyConfigs merges the scattered legacy files of each
// namespace into a single integrated/<namespace>.yaml, resolving duplicate
// keys by format priority.
func (c *Controller) deduplicateLegacyConfigs() error {
	files, err := c.legacyFiles()
	if err != nil {
		return err
	}

	grouped := map[string][]string{}
	for _, f := range files {
		if f == ".env" {
			continue // environment template, not a namespace file
		}
		ns := namespaceForFile(f)
		grouped[ns] = append(grouped[ns], f)
	}

	namespaces := make([]string, 0, len(grouped))
	for ns := range grouped {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	for _, ns := range namespaces {
		group := grouped[ns]
		// Lowest-priority format first so the highest wins the merge
		sort.SliceStable(group, func(i, j int) bool {
			return formatRank(group[i]) > formatRank(group[j])
		})

		acc := map[string]any{}
		for _, f := range group {
			format := formatForFile(f)
			loader, err := source.ForFormat(format)
			if err != nil {
				return err
			}
			loaded, err := loader.Load(types.ConfigSource{
				Name:     f,
				Location: filepath.Join(c.configDir, f),
				Format:   format,
			})
			if err != nil {
				return fmt.Errorf("failed to load legacy file %s: %w", f, err)
			}
			acc = merge.Deep(acc, loaded)
		}

		target := filepath.Join(c.integratedDir(), ns+".yaml")
		if c.dryRun {
			c.logger.Info().
				Str("namespace", ns).
				Strs("files", group).
				Str("target", target).
				Msg("[dry-run] would merge legacy files")
			continue
		}
		if err := writeYAML(target, acc); err != nil {
			return err
		}
		c.logger.Debug().Str("namespace", ns).Str("target", target).Msg("merged legacy files")
	}
	return nil
}

// splitByEnvironment expands an "environments" stanza in each integrated
// namespace file into per-environment overlays
// (integrated/<namespace>.<env>.yaml).
func (c *Controller) splitByEnvironment() error {
	entries, err := os.ReadDir(c.integratedDir())
	if err != nil {
		if os.IsNotExist(err) {
			c.logger.Debug().Msg("no integrated directory yet, nothing to split")
			return nil
		}
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		ns := strings.TrimSuffix(name, ".yaml")
		if strings.Contains(ns, ".") {
			continue // already an environment overlay
		}

		path := filepath.Join(c.integratedDir(), name)
		doc, err := readYAML(path)
		if err != nil {
			return err
		}

		envs, ok := doc["environments"].(map[string]any)
		if !ok {
			continue
		}

		base := merge.DeepCopy(doc)
		delete(base, "environments")

		envNames := make([]string, 0, len(envs))
		for env := range envs {
			envNames = append(envNames, env)
		}
		sort.Strings(envNames)

		for _, env := range envNames {
			overrides, ok := envs[env].(map[string]any)
			if !ok {
				return fmt.Errorf("namespace %s: environment %q is not a mapping", ns, env)
			}
			merged := merge.Deep(base, overrides)
			target := filepath.Join(c.integratedDir(), ns+"."+env+".yaml")
			if c.dryRun {
				c.logger.Info().Str("namespace", ns).Str("env", env).Str("target", target).
					Msg("[dry-run] would write environment overlay")
				continue
			}
			if err := writeYAML(target, merged); err != nil {
				return err
			}
		}
	}
	return nil
}

// installValidation resolves every registered namespace and writes a
// validation report. Any namespace that fails to resolve aborts the phase.
func (c *Controller) installValidation() error {
	type entry struct {
		Status string `json:"status"`
		Keys   int    `json:"keys"`
		Error  string `json:"error,omitempty"`
	}

	report := map[string]entry{}
	var failed []string
	for _, name := range c.resolver.Namespaces() {
		values, err := c.resolver.GetForce(name)
		if err != nil {
			report[name] = entry{Status: "error", Error: err.Error()}
			failed = append(failed, name)
			continue
		}
		report[name] = entry{Status: "ok", Keys: len(values)}
	}

	if c.dryRun {
		c.logger.Info().Int("namespaces", len(report)).Msg("[dry-run] would write validation report")
	} else {
		if err := os.MkdirAll(c.integratedDir(), 0755); err != nil {
			return err
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		target := filepath.Join(c.integratedDir(), "validation_report.json")
		if err := os.WriteFile(target, data, 0644); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("namespaces failed validation: %s", strings.Join(failed, ", "))
	}
	return nil
}

// enableDynamicReload persists watcher settings so services pick up file
// watching on next start
func (c *Controller) enableDynamicReload() error {
	settings := map[string]any{
		"enabled":     true,
		"debounce_ms": 250,
		"namespaces":  c.resolver.Namespaces(),
	}

	target := filepath.Join(c.configDir, "migration", "reload.json")
	if c.dryRun {
		c.logger.Info().Str("target", target).Msg("[dry-run] would enable dynamic reload")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(target, data, 0644)
}

// enableAuditLogging opens the audit store and records the migration run
func (c *Controller) enableAuditLogging() error {
	if c.dryRun {
		c.logger.Info().Msg("[dry-run] would enable audit logging")
		return nil
	}

	dir := filepath.Join(c.configDir, "migration")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	store, err := audit.NewStore(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, completed := range c.state.CompletedSteps {
		rec := &audit.Record{
			Category: audit.CategoryMigration,
			Action:   completed,
			Metadata: map[string]string{"session": c.session, "run": c.sessionID},
		}
		if err := store.Append(rec); err != nil {
			return err
		}
	}
	return store.Append(&audit.Record{
		Category: audit.CategoryMigration,
		Action:   "audit_logging_enabled",
		Metadata: map[string]string{"session": c.session, "run": c.sessionID},
	})
}

func readYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

func writeYAML(path string, doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
