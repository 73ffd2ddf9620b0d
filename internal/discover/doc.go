// Package discover walks directory trees for scannable source files,
// pruning ignored directories and filtering by extension.
package discover
