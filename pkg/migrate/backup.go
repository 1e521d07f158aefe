package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/strataconf/strata/pkg/types"
)

const manifestFileName = "metadata.json"

func (c *Controller) backupRoot() string {
	return filepath.Join(c.configDir, "backups")
}

func (c *Controller) backupDir(session string) string {
	return filepath.Join(c.backupRoot(), "pre_migration_"+session)
}

// backupExistingConfigs copies every legacy config file into a timestamped
// backup directory. The manifest is written last, only after all listed
// files copied successfully; a partial backup is never trusted.
func (c *Controller) backupExistingConfigs() error {
	files, err := c.legacyFiles()
	if err != nil {
		return err
	}

	dir := c.backupDir(c.session)
	if c.dryRun {
		for _, f := range files {
			c.logger.Info().Str("file", f).Str("backup_dir", dir).Msg("[dry-run] would back up")
		}
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	var backed []string
	for _, f := range files {
		src := filepath.Join(c.configDir, f)
		dst := filepath.Join(dir, f)
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("failed to back up %s: %w", f, err)
		}
		backed = append(backed, f)
		c.logger.Debug().Str("file", f).Msg("backed up")
	}

	manifest := types.BackupManifest{
		Timestamp: c.session,
		Files:     backed,
		Version:   c.version,
	}
	return c.writeManifest(dir, &manifest)
}

func (c *Controller) writeManifest(dir string, manifest *types.BackupManifest) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifestFileName), data, 0644)
}

func (c *Controller) loadManifest(session string) (*types.BackupManifest, error) {
	data, err := os.ReadFile(filepath.Join(c.backupDir(session), manifestFileName))
	if err != nil {
		return nil, err
	}
	var manifest types.BackupManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse backup manifest: %w", err)
	}
	return &manifest, nil
}

// latestSession returns the most recent backup session that has a manifest,
// or "" when none exists. Sessions sort lexicographically because they are
// timestamp-formatted.
func (c *Controller) latestSession() string {
	entries, err := os.ReadDir(c.backupRoot())
	if err != nil {
		return ""
	}

	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "pre_migration_") {
			continue
		}
		session := strings.TrimPrefix(entry.Name(), "pre_migration_")
		if _, err := os.Stat(filepath.Join(c.backupDir(session), manifestFileName)); err == nil {
			sessions = append(sessions, session)
		}
	}
	if len(sessions) == 0 {
		return ""
	}
	sort.Strings(sessions)
	return sessions[len(sessions)-1]
}

func copyFile(src, dst string) error {
	input, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, input, 0644)
}
