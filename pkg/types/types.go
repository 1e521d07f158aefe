package types

import (
	"sort"
	"time"
)

// Priority ranks a configuration source. Lower numeric value wins during
// merge: environment always overrides files, files override defaults.
type Priority int

const (
	PriorityEnv     Priority = 1
	PriorityYAML    Priority = 2
	PriorityJSON    Priority = 3
	PriorityConf    Priority = 4
	PriorityDefault Priority = 5
)

// SourceFormat identifies how a source's contents are parsed
type SourceFormat string

const (
	FormatEnv     SourceFormat = "env"
	FormatYAML    SourceFormat = "yaml"
	FormatJSON    SourceFormat = "json"
	FormatConf    SourceFormat = "conf"
	FormatDefault SourceFormat = "default"
)

// ConfigSource describes one candidate origin of configuration values.
// Immutable once constructed.
type ConfigSource struct {
	Name     string
	Location string // file path; empty for environment sources
	Priority Priority
	Format   SourceFormat
	Required bool

	// EnvVars maps environment-variable names to dotted config-key paths
	// (e.g. STRATA_API_KEY -> "api.key"). Only consulted for FormatEnv
	// sources; unmapped environment variables are ignored.
	EnvVars map[string]string
}

// Namespace groups the sources and defaults for one logical configuration
// unit (e.g. "database", "slack") resolved independently of others.
type Namespace struct {
	Name     string
	Sources  []ConfigSource
	Defaults map[string]any
}

// SourcesByPriority returns the namespace's sources sorted ascending by
// priority rank. The sort is stable so sources at the same rank keep their
// declaration order.
func (n *Namespace) SourcesByPriority() []ConfigSource {
	sorted := make([]ConfigSource, len(n.Sources))
	copy(sorted, n.Sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}

// ResolvedConfig is one cached resolution result for a namespace
type ResolvedConfig struct {
	Namespace  string
	Values     map[string]any
	ResolvedAt time.Time
}

// MigrationPhase enumerates the migration state machine states
type MigrationPhase string

const (
	PhaseNotStarted MigrationPhase = "not_started"
	Phase1          MigrationPhase = "phase1"
	Phase2          MigrationPhase = "phase2"
	Phase3          MigrationPhase = "phase3"
	PhaseCompleted  MigrationPhase = "completed"
	PhaseFailed     MigrationPhase = "failed"
)

// MigrationState is the persisted record of migration progress. It is the
// single source of truth for "has migration run"; mutated only by the
// migration controller, never concurrently written.
type MigrationState struct {
	Phase          MigrationPhase `json:"phase"`
	CompletedSteps []string       `json:"completed_steps"`
	Error          string         `json:"error,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
}

// BackupManifest lists exactly which files a backup invocation captured.
// Written once after all listed files succeed; immutable afterwards;
// consumed only by rollback.
type BackupManifest struct {
	Timestamp string   `json:"timestamp"`
	Files     []string `json:"files"`
	Version   string   `json:"version"`
}
