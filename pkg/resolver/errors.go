package resolver

import "fmt"

// UnknownNamespaceError reports a Get against a namespace that was never
// registered. This is a programmer error, not an environmental one.
type UnknownNamespaceError struct {
	Namespace string
}

func (e *UnknownNamespaceError) Error() string {
	return fmt.Sprintf("unknown namespace %q", e.Namespace)
}

// ConfigLoadError reports a required source that could not be read or
// parsed. Optional-source failures never produce this error; they are
// logged at debug level and skipped.
type ConfigLoadError struct {
	Namespace string
	Source    string
	Err       error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("namespace %q: failed to load required source %q: %v", e.Namespace, e.Source, e.Err)
}

func (e *ConfigLoadError) Unwrap() error {
	return e.Err
}
