// Sentinel is a CLI that scans source trees for security vulnerabilities by
// delegating code analysis to local or cloud LLMs.
//
// It chunks oversized files to fit a model's context window, decodes the
// model's loosely-structured responses into typed findings, and emits
// per-file results with deterministic exit codes suitable for CI gating.
//
// Usage:
//
//	sentinel scan ./my-project                  # scan a directory
//	sentinel scan app.py --model codellama      # scan one file
//	sentinel scan . --prompt detailed --format json
//	sentinel cache stats                        # inspect the result cache
//	sentinel models                             # list local Ollama models
package main
