/*
Package watch pushes cache invalidations into the resolver when config
files change on disk.

The resolver's TTL cache alone leaves a window where external edits are
invisible. Watching is the opt-in complement enabled by migration phase3
(dynamic reload): an fsnotify watcher observes the parent directories of a
namespace's file sources, debounces event bursts, and invalidates the
namespace so the next Get rebuilds it. Environment sources have no file to
watch and are unaffected.
*/
package watch
