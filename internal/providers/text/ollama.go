package text

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"campaignomatic/internal/domain"
)

// ServiceName labels Ollama failures in error messages and metrics.
const ServiceName = "Ollama"

const maxErrorBody = 64 << 10

type OllamaOptions struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil. Zero means no timeout.
	Timeout time.Duration
}

// OllamaClient calls the /api/generate endpoint of a local Ollama server.
type OllamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewOllamaClient(opts OllamaOptions) *OllamaClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "http://127.0.0.1:11434"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &OllamaClient{
		httpClient: client,
		baseURL:    base,
		model:      strings.TrimSpace(opts.Model),
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Generate issues one non-streaming completion and returns the trimmed text.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	if c == nil {
		return "", &domain.UpstreamError{Service: ServiceName, Err: errors.New("client not configured")}
	}
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &domain.UpstreamError{Service: ServiceName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.UpstreamError{Service: ServiceName, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &domain.UpstreamError{
			Service:    ServiceName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.UpstreamError{Service: ServiceName, Message: "Ollama returned an invalid response", Err: err}
	}
	return strings.TrimSpace(out.Response), nil
}
