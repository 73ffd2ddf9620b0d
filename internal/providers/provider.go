package providers

import (
	"context"
	"fmt"
)

// Request contains the data sent to a model for analysis. Prompt is the
// fully-rendered instruction text; Code and Filename travel alongside for
// diagnostics and outcome reporting.
type Request struct {
	Code     string
	Filename string
	Prompt   string
}

// Outcome is the per-call result contract. On success Response holds the
// model's raw, unstructured textual answer; Err carries a distinguishing
// message on failure ("Request timed out", "Request failed: ...",
// "Unexpected error: ...").
type Outcome struct {
	Success        bool
	Response       string
	Model          string
	Filename       string
	ElapsedSeconds float64
	Err            string
}

// Analyzer is the model client abstraction.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) Outcome
	TestConnection(ctx context.Context) bool
	Name() string
}

// New creates an analyzer by client type.
func New(clientType, model string) (Analyzer, error) {
	switch clientType {
	case "ollama":
		return NewOllama(model)
	case "groq":
		return NewGroq(model)
	case "huggingface", "hf":
		return NewHuggingFace(model)
	default:
		return nil, fmt.Errorf("unknown client type: %s", clientType)
	}
}
