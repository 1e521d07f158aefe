package migrate

import "fmt"

// BackupNotFoundError reports a rollback request with no backup manifest to
// drive it
type BackupNotFoundError struct {
	Session string
}

func (e *BackupNotFoundError) Error() string {
	if e.Session == "" {
		return "no backup manifest found"
	}
	return fmt.Sprintf("no backup manifest found for session %s", e.Session)
}

// MigrationError wraps any failure during phase execution with the phase it
// aborted. The original message is preserved via Unwrap.
type MigrationError struct {
	Phase string
	Step  string
	Err   error
}

func (e *MigrationError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("migration %s failed at step %s: %v", e.Phase, e.Step, e.Err)
	}
	return fmt.Sprintf("migration %s failed: %v", e.Phase, e.Err)
}

func (e *MigrationError) Unwrap() error {
	return e.Err
}
