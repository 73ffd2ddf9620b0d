package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dshills/sentinel/internal/logging"
)

const huggingFaceURLBase = "https://api-inference.huggingface.co/models/"

// HuggingFace implements the Analyzer interface for the Hugging Face
// Inference API.
type HuggingFace struct {
	apiKey string
	model  string
	url    string
	client *http.Client
}

// NewHuggingFace creates a new Hugging Face client. Requires
// HUGGINGFACE_API_KEY.
func NewHuggingFace(model string) (*HuggingFace, error) {
	apiKey := os.Getenv("HUGGINGFACE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("HUGGINGFACE_API_KEY environment variable not set")
	}
	return &HuggingFace{
		apiKey: apiKey,
		model:  model,
		url:    huggingFaceURLBase + model,
		client: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters"`
}

type hfResult struct {
	GeneratedText string `json:"generated_text"`
}

// Analyze runs one prompt through the inference endpoint.
func (h *HuggingFace) Analyze(ctx context.Context, req Request) Outcome {
	start := time.Now()
	response, err := h.infer(ctx, req.Prompt)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		return Outcome{
			Model:          h.model,
			Filename:       req.Filename,
			ElapsedSeconds: elapsed,
			Err:            errMessage(err),
		}
	}
	return Outcome{
		Success:        true,
		Response:       response,
		Model:          h.model,
		Filename:       req.Filename,
		ElapsedSeconds: elapsed,
	}
}

func (h *HuggingFace) infer(ctx context.Context, prompt string) (string, error) {
	body := hfRequest{
		Inputs: prompt,
		Parameters: map[string]any{
			"temperature":      0.1,
			"max_new_tokens":   2000,
			"return_full_text": false,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &decodeError{err: fmt.Errorf("marshaling request: %w", err)}
	}

	var response string
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", h.url, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

		httpResp, err := h.client.Do(httpReq)
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
		if httpResp.StatusCode == 401 || httpResp.StatusCode == 403 {
			return &authError{message: string(respBody)}
		}
		if httpResp.StatusCode >= 500 {
			return &serverError{statusCode: httpResp.StatusCode, body: string(respBody)}
		}
		if httpResp.StatusCode != 200 {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
		}

		// The API returns an array of results for text generation.
		var results []hfResult
		if err := json.Unmarshal(respBody, &results); err == nil && len(results) > 0 {
			response = results[0].GeneratedText
			return nil
		}
		var single hfResult
		if err := json.Unmarshal(respBody, &single); err != nil {
			return &decodeError{err: fmt.Errorf("parsing response: %w", err)}
		}
		response = single.GeneratedText
		return nil
	})

	return response, err
}

// TestConnection probes the inference endpoint. A 503 means the model is
// still loading but the service is reachable.
func (h *HuggingFace) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	payload, _ := json.Marshal(hfRequest{Inputs: "test"})
	httpReq, err := http.NewRequestWithContext(ctx, "POST", h.url, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	httpResp, err := h.client.Do(httpReq)
	if err != nil {
		logging.Logger.Warnf("failed to connect to Hugging Face: %v", err)
		return false
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode == 200 || httpResp.StatusCode == 503 {
		logging.Logger.Infof("connected to Hugging Face, using model: %s", h.model)
		if httpResp.StatusCode == 503 {
			logging.Logger.Info("model is loading, may take a moment on first use")
		}
		return true
	}
	logging.Logger.Warnf("Hugging Face connection failed: status %d", httpResp.StatusCode)
	return false
}
