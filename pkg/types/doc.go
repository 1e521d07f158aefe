/*
Package types defines the core data structures used throughout strata.

This package contains the fundamental types of the configuration domain model:
sources, namespaces, resolved results, migration state, and backup manifests.
These types are used by all other packages for resolution, migration, and
persistence logic.

# Architecture

The types package is the foundation of strata's data model. It defines:

  - Source descriptors (location, format, priority, required flag)
  - Namespace topology (ordered sources plus default values)
  - Resolution results with cache timestamps
  - The migration state machine states and persisted record
  - Backup manifests driving rollback

# Priority Ordering

Priority forms a total order over source kinds; the numerically smallest rank
wins conflicting keys during merge:

	ENV (1) > YAML (2) > JSON (3) > CONF (4) > DEFAULT (5)

Namespace.SourcesByPriority returns sources sorted ascending by rank so
callers can apply them deterministically regardless of declaration order.

# Lifecycle

ConfigSource and Namespace values are constructed once at process start
(static topology) and never mutated. ResolvedConfig entries are created
lazily on first resolution and replaced wholesale on cache expiry, never
partially mutated. MigrationState starts at not_started and moves
monotonically forward, with failed as the explicit escape hatch.
*/
package types
