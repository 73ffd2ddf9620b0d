// Package scan contains the core types and engine for LLM-based
// vulnerability scanning.
//
// It defines the Vulnerability, ScanResult, and Severity types, splits
// oversized source files into boundary-aware chunks sized to a model's
// token budget, renders prompt templates with an embedded response schema,
// and decodes the model's loosely-structured responses into typed findings.
//
// Response parsing is two-stage: structured JSON extraction first (fenced
// block, raw span, whole text), then a heuristic keyword fallback for
// responses that never contained decodable JSON. Chunked files have their
// findings' line numbers remapped by chunk offset before merging, so all
// reported lines are file-relative.
package scan
