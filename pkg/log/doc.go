/*
Package log provides structured logging for strata using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and support filtering
by severity level.

# Usage

Initialize once at process start, then derive child loggers per concern:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("resolver")
	logger.Debug().Str("namespace", "database").Msg("cache miss")

Child logger constructors:

  - WithComponent: tags logs with the subsystem name (resolver, migrate, watch)
  - WithNamespace: tags logs with the configuration namespace being resolved
  - WithPhase: tags logs with the migration phase (phase1, phase2, phase3)
  - WithSession: tags logs with the migration session timestamp

The CLI tools map --verbose to debug level with console output; services use
JSON output for machine ingestion. Optional-source load failures are logged at
debug level only and never surfaced to callers.
*/
package log
