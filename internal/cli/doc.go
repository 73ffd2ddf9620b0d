// Package cli implements the sentinel command-line interface.
//
// Exit codes: 0 clean, 1 findings at or above the fail-on threshold (or any
// failed per-file scan), 2 usage error, 4 runtime error.
package cli
