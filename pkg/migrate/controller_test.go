package migrate

import (
	"crypto/sha256"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strataconf/strata/pkg/log"
	"github.com/strataconf/strata/pkg/resolver"
	"github.com/strataconf/strata/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel, JSONOutput: true, Output: io.Discard})
	os.Exit(m.Run())
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func readConfig(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

// testResolver registers one namespace per legacy file group, reading the
// integrated output with defaults as the floor
func testResolver(configDir string, names ...string) *resolver.Resolver {
	r := resolver.New()
	for _, name := range names {
		r.Register(types.Namespace{
			Name:     name,
			Defaults: map[string]any{"configured": true},
			Sources: []types.ConfigSource{
				{
					Name:     name + "-yaml",
					Location: filepath.Join(configDir, "integrated", name+".yaml"),
					Priority: types.PriorityYAML,
					Format:   types.FormatYAML,
				},
			},
		})
	}
	return r
}

func newController(t *testing.T, configDir string, res *resolver.Resolver, opts ...Option) *Controller {
	t.Helper()
	c, err := New(configDir, res, opts...)
	require.NoError(t, err)
	return c
}

func TestBackupAndRollbackRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", "value: a0\n")
	writeConfig(t, dir, "beta.json", `{"value": "b0"}`)

	c := newController(t, dir, testResolver(dir, "alpha", "beta"))
	require.NoError(t, c.Run("phase1"))

	// Mutate the live files after backup
	writeConfig(t, dir, "alpha.yaml", "value: a1\n")
	writeConfig(t, dir, "beta.json", `{"value": "b1"}`)

	require.NoError(t, c.Rollback())

	assert.Equal(t, "value: a0\n", readConfig(t, dir, "alpha.yaml"))
	assert.Equal(t, `{"value": "b0"}`, readConfig(t, dir, "beta.json"))
}

func TestRollbackResetsState(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", "value: a0\n")

	c := newController(t, dir, testResolver(dir, "alpha"))
	require.NoError(t, c.Run("phase1"))
	assert.Equal(t, types.Phase1, c.State().Phase)

	require.NoError(t, c.Rollback())
	assert.Equal(t, types.PhaseNotStarted, c.State().Phase)
	assert.Empty(t, c.State().CompletedSteps)

	// The reset survives a reload from disk
	reloaded, err := loadState(dir)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseNotStarted, reloaded.Phase)
}

func TestRollbackWithoutBackup(t *testing.T) {
	dir := t.TempDir()

	c := newController(t, dir, testResolver(dir))
	err := c.Rollback()

	var notFound *BackupNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRollbackFallsBackToLatestManifest(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", "value: original\n")

	// First process runs the backup
	first := newController(t, dir, testResolver(dir, "alpha"))
	require.NoError(t, first.Run("phase1"))

	writeConfig(t, dir, "alpha.yaml", "value: drifted\n")

	// A fresh process (new session timestamp) still finds the manifest
	second := newController(t, dir, testResolver(dir, "alpha"))
	require.NoError(t, second.Rollback())

	assert.Equal(t, "value: original\n", readConfig(t, dir, "alpha.yaml"))
}

// treeDigest hashes every file under root so dry-run tests can assert
// byte-identical trees
func treeDigest(t *testing.T, root string) map[string][32]byte {
	t.Helper()
	digest := map[string][32]byte{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		digest[rel] = sha256.Sum256(data)
		return nil
	})
	require.NoError(t, err)
	return digest
}

func TestDryRunLeavesTreeUntouched(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "claude_config.yaml", "api_key: k\nmodel: m\n")
	writeConfig(t, dir, "slack_config.yaml", "bot_token: x\n")

	before := treeDigest(t, dir)

	c := newController(t, dir, testResolver(dir, "claude", "slack"), WithDryRun())
	require.NoError(t, c.Run("phase1"))

	assert.Equal(t, before, treeDigest(t, dir), "dry run must not write anything")
}

func TestDryRunAllPhases(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "claude_config.yaml", "api_key: k\n")

	before := treeDigest(t, dir)

	c := newController(t, dir, testResolver(dir, "claude"), WithDryRun())
	require.NoError(t, c.Run("all"))

	assert.Equal(t, before, treeDigest(t, dir))
}

func TestRunAllPhases(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "claude_config.yaml", "api_key: k\nmodel: sonnet\n")
	writeConfig(t, dir, "slack_config.yaml", "bot_token: xoxb\n")

	c := newController(t, dir, testResolver(dir, "claude", "slack"))
	require.NoError(t, c.Run("all"))

	state := c.State()
	assert.Equal(t, types.PhaseCompleted, state.Phase)
	assert.Equal(t, []string{
		"backup_existing_configs",
		"deduplicate_legacy_configs",
		"split_by_environment",
		"install_validation",
		"enable_dynamic_reload",
		"enable_audit_logging",
	}, state.CompletedSteps)

	// Namespaced layout produced
	assert.FileExists(t, filepath.Join(dir, "integrated", "claude.yaml"))
	assert.FileExists(t, filepath.Join(dir, "integrated", "slack.yaml"))
	assert.FileExists(t, filepath.Join(dir, "integrated", "validation_report.json"))
	assert.FileExists(t, filepath.Join(dir, "migration", "migration_state.json"))
	assert.FileExists(t, filepath.Join(dir, "migration", "reload.json"))
	assert.FileExists(t, filepath.Join(dir, "migration", "audit.db"))

	// Backup captured the legacy files with a manifest
	manifest, err := c.loadManifest(c.Session())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"claude_config.yaml", "slack_config.yaml"}, manifest.Files)
}

func TestRunSinglePhase(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", "value: a\n")

	c := newController(t, dir, testResolver(dir, "alpha"))
	require.NoError(t, c.Run("phase1"))

	state := c.State()
	assert.Equal(t, types.Phase1, state.Phase)
	assert.Equal(t, []string{"backup_existing_configs", "deduplicate_legacy_configs"}, state.CompletedSteps)
	assert.NoFileExists(t, filepath.Join(dir, "migration", "reload.json"))
}

func TestRunUnknownPhase(t *testing.T) {
	dir := t.TempDir()
	c := newController(t, dir, testResolver(dir))
	assert.Error(t, c.Run("phase9"))
}

func TestFailureMovesStateToFailed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "broken.yaml", "key: [unclosed\n")

	c := newController(t, dir, testResolver(dir))
	err := c.Run("phase1")

	var migErr *MigrationError
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, "phase1", migErr.Phase)
	assert.Equal(t, "deduplicate_legacy_configs", migErr.Step)

	state := c.State()
	assert.Equal(t, types.PhaseFailed, state.Phase)
	assert.NotEmpty(t, state.Error)

	// Failed state is persisted
	reloaded, err := loadState(dir)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseFailed, reloaded.Phase)
	assert.NotEmpty(t, reloaded.Error)
}

func TestDeduplicateMergesByFormatPriority(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "svc_config.yaml", "endpoint: yaml-wins\ntimeout: 30\n")
	writeConfig(t, dir, "svc.json", `{"endpoint": "json-loses", "retries": 3}`)

	c := newController(t, dir, testResolver(dir, "svc"))
	require.NoError(t, c.Run("phase1"))

	doc, err := readYAML(filepath.Join(dir, "integrated", "svc.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "yaml-wins", doc["endpoint"])
	assert.Equal(t, 30, doc["timeout"])
	assert.Equal(t, 3, doc["retries"])
}

func TestSplitByEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "svc_config.yaml", `endpoint: https://api.internal
timeout: 30
environments:
  dev:
    endpoint: http://localhost:8080
  prod:
    timeout: 60
`)

	c := newController(t, dir, testResolver(dir, "svc"))
	require.NoError(t, c.Run("phase1"))
	require.NoError(t, c.Run("phase2"))

	dev, err := readYAML(filepath.Join(dir, "integrated", "svc.dev.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", dev["endpoint"])
	assert.Equal(t, 30, dev["timeout"])
	assert.NotContains(t, dev, "environments")

	prod, err := readYAML(filepath.Join(dir, "integrated", "svc.prod.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "https://api.internal", prod["endpoint"])
	assert.Equal(t, 60, prod["timeout"])
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", "value: a\n")

	t.Run("healthy system validates", func(t *testing.T) {
		res := testResolver(dir, "alpha")
		c := newController(t, dir, res)
		require.NoError(t, c.Run("phase1"))
		assert.True(t, c.Validate())
	})

	t.Run("unresolvable namespace fails validation", func(t *testing.T) {
		res := resolver.New()
		res.Register(types.Namespace{
			Name: "doomed",
			Sources: []types.ConfigSource{
				{
					Name:     "required-missing",
					Location: filepath.Join(dir, "never.yaml"),
					Priority: types.PriorityYAML,
					Format:   types.FormatYAML,
					Required: true,
				},
			},
		})
		defer res.Close()

		c := newController(t, dir, res)
		assert.False(t, c.Validate())
	})

	t.Run("empty namespace fails validation", func(t *testing.T) {
		res := resolver.New()
		res.Register(types.Namespace{Name: "hollow"})
		defer res.Close()

		c := newController(t, dir, res)
		assert.False(t, c.Validate())
	})
}

func TestStatePersistedBetweenProcesses(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "alpha.yaml", "value: a\n")

	first := newController(t, dir, testResolver(dir, "alpha"))
	require.NoError(t, first.Run("phase1"))

	second := newController(t, dir, testResolver(dir, "alpha"))
	assert.Equal(t, types.Phase1, second.State().Phase)
	assert.Contains(t, second.State().CompletedSteps, "backup_existing_configs")
}

func TestMigrationErrorPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := error(&MigrationError{Phase: "phase1", Step: "backup_existing_configs", Err: cause})
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "phase1")
	assert.Contains(t, err.Error(), "disk full")
}
