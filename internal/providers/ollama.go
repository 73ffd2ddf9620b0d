package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dshills/sentinel/internal/logging"
)

const defaultOllamaURL = "http://localhost:11434"

// Ollama implements the Analyzer interface for local Ollama models.
type Ollama struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllama creates a new Ollama client. No API key is required.
func NewOllama(model string) (*Ollama, error) {
	baseURL := os.Getenv("OLLAMA_HOST")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	return &Ollama{
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format"`
	Options map[string]any `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Analyze runs one prompt through the Ollama generate endpoint. The format
// hint forces JSON output; low temperature keeps the analysis focused.
func (o *Ollama) Analyze(ctx context.Context, req Request) Outcome {
	start := time.Now()
	response, err := o.generate(ctx, req.Prompt)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		return Outcome{
			Model:          o.model,
			Filename:       req.Filename,
			ElapsedSeconds: elapsed,
			Err:            errMessage(err),
		}
	}
	return Outcome{
		Success:        true,
		Response:       response,
		Model:          o.model,
		Filename:       req.Filename,
		ElapsedSeconds: elapsed,
	}
}

func (o *Ollama) generate(ctx context.Context, prompt string) (string, error) {
	body := ollamaGenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
		Options: map[string]any{
			"temperature": 0.1,
			"top_p":       0.9,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &decodeError{err: fmt.Errorf("marshaling request: %w", err)}
	}

	var response string
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+"/api/generate", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		httpResp, err := o.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer httpResp.Body.Close()

		respBody, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if httpResp.StatusCode == 429 {
			return &rateLimitError{}
		}
		if httpResp.StatusCode >= 500 {
			return &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
		}
		if httpResp.StatusCode != 200 {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}

		var result ollamaGenerateResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return &decodeError{err: fmt.Errorf("parsing response: %w", err)}
		}

		response = result.Response
		return nil
	})

	return response, err
}

// TestConnection probes the tags endpoint and heuristically checks that the
// configured model is available.
func (o *Ollama) TestConnection(ctx context.Context) bool {
	models, err := o.ListModels(ctx)
	if err != nil {
		logging.Logger.Warnf("failed to connect to Ollama at %s: %v (is ollama serve running?)", o.baseURL, err)
		return false
	}

	logging.Logger.Infof("connected to Ollama, available models: %v", models)

	for _, name := range models {
		if name == o.model || strings.Contains(name, o.model) {
			return true
		}
	}
	logging.Logger.Warnf("model %q not found, available: %v", o.model, models)
	return false
}

// ListModels returns the model names known to the Ollama server.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", o.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		return nil, fmt.Errorf("API error (status %d)", httpResp.StatusCode)
	}

	var result ollamaTagsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	names := make([]string, 0, len(result.Models))
	for _, m := range result.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
