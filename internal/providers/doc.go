// Package providers implements the Analyzer interface for each supported
// model backend.
//
// Supported backends: Ollama for local models, Groq (OpenAI-compatible chat
// completions), and the Hugging Face Inference API.
//
// All backends share a common retry helper with exponential back-off for
// rate-limit and server errors. Transport failures are reported through the
// Outcome contract rather than Go errors, with timeouts distinguished from
// other request failures.
//
// Use [New] to obtain an Analyzer by client type and model string.
package providers
