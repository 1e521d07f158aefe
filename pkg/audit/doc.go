/*
Package audit provides a durable append-only audit log backed by BoltDB.

Migration phase3 enables audit logging: every completed migration step and
every rollback is recorded here, and long-running services can record
resolution activity. Records are kept in one bucket per category with
chronologically sorted keys, so listing a category replays history in
append order.
*/
package audit
