// Package cache provides a file-backed cache for scan results.
//
// Entries are keyed by file path, model, and prompt type, and store the
// sha256 hash of the file content at scan time; a changed hash invalidates
// the entry automatically. A small in-memory LRU fronts the disk store for
// repeat lookups within one run.
package cache
