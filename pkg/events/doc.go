/*
Package events provides an in-process publish/subscribe broker for
configuration lifecycle events.

Event types cover namespace resolution and invalidation, source file
changes observed by the watcher, and migration phase transitions. The
broker is fire-and-forget: slow subscribers are skipped rather than
blocking publishers, so consumers that need durability should use the
audit log instead.
*/
package events
