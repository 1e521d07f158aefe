/*
Package resolver implements layered configuration resolution with priority
ordering and TTL-based caching.

A Resolver holds a registry of namespaces, each declaring an ordered set of
sources (environment, YAML, JSON, INI-style conf) plus default values.
Resolution starts from a copy of the defaults and deep-merges every loadable
source so that the source with the numerically smallest priority rank wins
conflicting keys:

	ENV (1) > YAML (2) > JSON (3) > CONF (4) > DEFAULT (5)

A required source that fails to load aborts the resolution with
ConfigLoadError. An optional source that fails is logged at debug level and
skipped; that swallow-versus-propagate decision is a single branch driven by
the source's Required flag.

Results are cached per namespace for a wall-clock TTL (5 minutes by
default). Cached values are returned as deep copies, so callers can never
mutate the cache. There is no file-modification-time invalidation; external
edits inside the TTL window become visible on expiry, an explicit GetForce,
or an invalidation pushed by the watch package.

Resolvers are constructed explicitly and passed down by reference. The
package keeps no module-level state.
*/
package resolver
