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

const defaultGroqURL = "https://api.groq.com/openai/v1"

// Groq implements the Analyzer interface for the Groq cloud API
// (OpenAI-compatible chat completions).
type Groq struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGroq creates a new Groq client. Requires GROQ_API_KEY.
func NewGroq(model string) (*Groq, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}
	return &Groq{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultGroqURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (g *Groq) Name() string { return "groq" }

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqRequest struct {
	Model          string         `json:"model"`
	Messages       []groqMessage  `json:"messages"`
	Temperature    float64        `json:"temperature"`
	ResponseFormat map[string]any `json:"response_format"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze runs one prompt through the chat completions endpoint, pinning
// the response format to a JSON object.
func (g *Groq) Analyze(ctx context.Context, req Request) Outcome {
	start := time.Now()
	response, err := g.complete(ctx, req.Prompt)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		return Outcome{
			Model:          g.model,
			Filename:       req.Filename,
			ElapsedSeconds: elapsed,
			Err:            errMessage(err),
		}
	}
	return Outcome{
		Success:        true,
		Response:       response,
		Model:          g.model,
		Filename:       req.Filename,
		ElapsedSeconds: elapsed,
	}
}

func (g *Groq) complete(ctx context.Context, prompt string) (string, error) {
	body := groqRequest{
		Model: g.model,
		Messages: []groqMessage{
			{Role: "system", Content: "You are a security expert. Respond with ONLY valid JSON."},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.1,
		ResponseFormat: map[string]any{"type": "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", &decodeError{err: fmt.Errorf("marshaling request: %w", err)}
	}

	var response string
	err = retryWithBackoff(ctx, 3, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

		httpResp, err := g.client.Do(httpReq)
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

		var result groqResponse
		if err := json.Unmarshal(respBody, &result); err != nil {
			return &decodeError{err: fmt.Errorf("parsing response: %w", err)}
		}
		if len(result.Choices) == 0 {
			return &decodeError{err: fmt.Errorf("no choices in response")}
		}

		response = result.Choices[0].Message.Content
		return nil
	})

	return response, err
}

// TestConnection probes the models endpoint with the configured key.
func (g *Groq) TestConnection(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, "GET", g.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		logging.Logger.Warnf("failed to connect to Groq: %v", err)
		return false
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != 200 {
		logging.Logger.Warnf("Groq connection failed: status %d", httpResp.StatusCode)
		return false
	}
	logging.Logger.Infof("connected to Groq, using model: %s", g.model)
	return true
}
