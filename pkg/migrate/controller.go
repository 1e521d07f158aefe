package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/strataconf/strata/pkg/events"
	"github.com/strataconf/strata/pkg/log"
	"github.com/strataconf/strata/pkg/metrics"
	"github.com/strataconf/strata/pkg/resolver"
	"github.com/strataconf/strata/pkg/types"
)

// Option configures a Controller
type Option func(*Controller)

// WithDryRun plans every phase without touching the filesystem
func WithDryRun() Option {
	return func(c *Controller) { c.dryRun = true }
}

// WithBroker attaches an event broker for phase transition events
func WithBroker(broker *events.Broker) Option {
	return func(c *Controller) { c.broker = broker }
}

// WithVersion records the tool version in backup manifests
func WithVersion(version string) Option {
	return func(c *Controller) { c.version = version }
}

// Controller drives the migration from legacy scattered config files to the
// namespaced layout. It is an operator-invoked tool: single process, single
// writer, no retries. State moves monotonically forward except for the
// explicit failed escape hatch, and is persisted after every phase.
type Controller struct {
	configDir string
	resolver  *resolver.Resolver
	broker    *events.Broker
	state     *types.MigrationState
	session   string
	sessionID string
	version   string
	dryRun    bool
	logger    zerolog.Logger
}

// New creates a Controller rooted at configDir. Existing persisted state is
// loaded; absent state starts at not_started.
func New(configDir string, res *resolver.Resolver, opts ...Option) (*Controller, error) {
	state, err := loadState(configDir)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		configDir: configDir,
		resolver:  res,
		state:     state,
		session:   time.Now().Format("20060102_150405"),
		sessionID: uuid.New().String(),
		version:   "dev",
		logger:    log.WithComponent("migrate"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns a copy of the current migration state
func (c *Controller) State() types.MigrationState {
	state := *c.state
	state.CompletedSteps = append([]string(nil), c.state.CompletedSteps...)
	return state
}

// Session returns the controller's backup session timestamp
func (c *Controller) Session() string {
	return c.session
}

var phaseOrder = []string{"phase1", "phase2", "phase3"}

// Run executes the requested phase, or all phases in order. Any step
// failure aborts the whole run, moves state to failed with the original
// message, and persists it; there is no automatic partial-phase rollback.
func (c *Controller) Run(phase string) error {
	var selected []string
	switch phase {
	case "all":
		selected = phaseOrder
	case "phase1", "phase2", "phase3":
		selected = []string{phase}
	default:
		return fmt.Errorf("unknown migration phase %q", phase)
	}

	for _, p := range selected {
		if err := c.runPhase(p); err != nil {
			c.state.Phase = types.PhaseFailed
			c.state.Error = err.Error()
			if persistErr := c.persistState(); persistErr != nil {
				c.logger.Error().Err(persistErr).Msg("failed to persist failed state")
			}
			c.publish(events.EventMigrationFailed, p, err.Error())
			return err
		}

		c.state.Phase = types.MigrationPhase(p)
		c.state.Error = ""
		if err := c.persistState(); err != nil {
			return &MigrationError{Phase: p, Err: err}
		}
		c.publish(events.EventMigrationPhaseDone, p, "phase completed")
	}

	// phase3 is the last stage; finishing it completes the migration
	if selected[len(selected)-1] == "phase3" {
		c.state.Phase = types.PhaseCompleted
		if err := c.persistState(); err != nil {
			return &MigrationError{Phase: "phase3", Err: err}
		}
	}
	return nil
}

func (c *Controller) runPhase(phase string) error {
	logger := log.WithPhase(phase)
	logger.Info().Bool("dry_run", c.dryRun).Msg("starting migration phase")

	for _, s := range c.phaseSteps(phase) {
		logger.Info().Str("step", s.name).Msg("running step")
		if err := s.fn(); err != nil {
			metrics.MigrationStepsTotal.WithLabelValues("error").Inc()
			return &MigrationError{Phase: phase, Step: s.name, Err: err}
		}
		metrics.MigrationStepsTotal.WithLabelValues("ok").Inc()
		c.state.CompletedSteps = append(c.state.CompletedSteps, s.name)
	}

	logger.Info().Msg("phase completed")
	return nil
}

// Rollback restores every file listed in the backup manifest over its live
// counterpart, byte-for-byte. The current session's backup is preferred;
// when the controller ran in an earlier process, the most recent manifest
// on disk drives the rollback instead. With no manifest at all the call
// fails with BackupNotFoundError.
//
// Rollback also resets the persisted state to not_started: reverted files
// and a state still claiming a completed phase would disagree about
// reality.
func (c *Controller) Rollback() error {
	session := c.session
	manifest, err := c.loadManifest(session)
	if err != nil {
		session = c.latestSession()
		if session == "" {
			return &BackupNotFoundError{Session: c.session}
		}
		manifest, err = c.loadManifest(session)
		if err != nil {
			return &BackupNotFoundError{Session: session}
		}
	}

	logger := log.WithSession(session)
	for _, f := range manifest.Files {
		src := filepath.Join(c.backupDir(session), f)
		dst := filepath.Join(c.configDir, f)
		if c.dryRun {
			logger.Info().Str("file", f).Msg("[dry-run] would restore")
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to restore %s: %w", f, err)
		}
		logger.Debug().Str("file", f).Msg("restored")
	}

	c.state.Phase = types.PhaseNotStarted
	c.state.CompletedSteps = nil
	c.state.Error = ""
	if err := c.persistState(); err != nil {
		return err
	}

	c.publish(events.EventMigrationRolledBack, session, "rollback completed")
	logger.Info().Int("files", len(manifest.Files)).Msg("rollback completed")
	return nil
}

// Validate checks that the merged configuration system is healthy: every
// registered namespace must resolve to a non-empty mapping and the health
// registry must report healthy overall. It mutates nothing.
func (c *Controller) Validate() bool {
	ok := true
	for _, name := range c.resolver.Namespaces() {
		values, err := c.resolver.Get(name)
		if err != nil {
			c.logger.Warn().Str("namespace", name).Err(err).Msg("validation: namespace failed to resolve")
			ok = false
			continue
		}
		if len(values) == 0 {
			c.logger.Warn().Str("namespace", name).Msg("validation: namespace resolved empty")
			ok = false
		}
	}

	health := metrics.GetHealth()
	if health.Status != "healthy" {
		c.logger.Warn().Str("status", health.Status).Msg("validation: health check not healthy")
		ok = false
	}
	return ok
}

func (c *Controller) publish(eventType events.EventType, phase, message string) {
	if c.broker == nil {
		return
	}
	c.broker.Publish(&events.Event{
		Type:    eventType,
		Message: message,
		Metadata: map[string]string{
			"phase":   phase,
			"session": c.session,
		},
	})
}

// legacyFiles lists the scattered top-level config files subject to backup
// and migration: *.yaml, *.yml, *.json, *.conf plus a .env file. The
// integrated, backups, and migration subdirectories are never touched.
func (c *Controller) legacyFiles() ([]string, error) {
	entries, err := os.ReadDir(c.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == ".env" {
			files = append(files, name)
			continue
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".yaml", ".yml", ".json", ".conf":
			files = append(files, name)
		}
	}
	sort.Strings(files)
	return files, nil
}
