// Package store keeps a SQLite history of scenario runs.
//
// Every harness run, passed or failed, is one row in the runs table. The
// history answers "when did this scenario last pass" and "did the
// configuration change between two runs" (via the configuration hash).
//
// The database uses WAL mode and a single connection, so scenarios running
// in parallel can share one Store.
package store
