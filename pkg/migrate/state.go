package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/strataconf/strata/pkg/metrics"
	"github.com/strataconf/strata/pkg/types"
)

const stateFileName = "migration_state.json"

func statePath(configDir string) string {
	return filepath.Join(configDir, "migration", stateFileName)
}

// loadState reads the persisted migration state, or returns a fresh
// not_started state when none exists yet
func loadState(configDir string) (*types.MigrationState, error) {
	data, err := os.ReadFile(statePath(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return &types.MigrationState{
				Phase:     types.PhaseNotStarted,
				Timestamp: time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("failed to read migration state: %w", err)
	}

	var state types.MigrationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse migration state: %w", err)
	}
	return &state, nil
}

// persistState rewrites the state file. The state file is the single source
// of truth for "has migration run", so it is written after every phase. In
// dry-run mode nothing is written.
func (c *Controller) persistState() error {
	c.state.Timestamp = time.Now()
	metrics.MigrationPhase.Set(phaseGauge(c.state.Phase))

	if c.dryRun {
		c.logger.Info().Str("phase", string(c.state.Phase)).Msg("[dry-run] would persist migration state")
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(statePath(c.configDir)), 0755); err != nil {
		return fmt.Errorf("failed to create migration state directory: %w", err)
	}
	data, err := json.MarshalIndent(c.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(statePath(c.configDir), data, 0644)
}

func phaseGauge(phase types.MigrationPhase) float64 {
	switch phase {
	case types.Phase1:
		return 1
	case types.Phase2:
		return 2
	case types.Phase3:
		return 3
	case types.PhaseCompleted:
		return 4
	case types.PhaseFailed:
		return 5
	default:
		return 0
	}
}
