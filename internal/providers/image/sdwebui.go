package image

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

// ServiceName labels Stable Diffusion failures in error messages and metrics.
const ServiceName = "StableDiffusion"

// DefaultSteps matches the sampler steps the WebUI uses for ad images.
const DefaultSteps = 20

// NotFoundHint is appended when the WebUI answers 404, which in practice means
// it was started without --api.
const NotFoundHint = ` Start WebUI with the API enabled: export COMMANDLINE_ARGS="--api --skip-torch-cuda-test" then ./webui.sh`

const maxErrorBody = 64 << 10

type SDWebUIOptions struct {
	BaseURL    string
	Steps      int
	HTTPClient *http.Client
	// Timeout applies when HTTPClient is nil. Zero means no timeout.
	Timeout time.Duration
}

// SDWebUIClient calls the txt2img endpoint of an AUTOMATIC1111 style WebUI.
type SDWebUIClient struct {
	httpClient *http.Client
	baseURL    string
	steps      int
}

func NewSDWebUIClient(opts SDWebUIOptions) *SDWebUIClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "http://127.0.0.1:7860"
	}
	steps := opts.Steps
	if steps <= 0 {
		steps = DefaultSteps
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &SDWebUIClient{httpClient: client, baseURL: base, steps: steps}
}

type txt2ImgRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
}

type txt2ImgResponse struct {
	Images []string `json:"images"`
}

// Txt2Img renders one image at width x height and returns it base64 encoded.
func (c *SDWebUIClient) Txt2Img(ctx context.Context, prompt string, width, height int) (string, error) {
	if c == nil {
		return "", &domain.UpstreamError{Service: ServiceName, Err: errors.New("client not configured")}
	}
	body, err := json.Marshal(txt2ImgRequest{Prompt: prompt, Width: width, Height: height, Steps: c.steps})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sdapi/v1/txt2img", bytes.NewReader(body))
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
		upstream := &domain.UpstreamError{
			Service:    ServiceName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
		if resp.StatusCode == http.StatusNotFound {
			upstream.Hint = NotFoundHint
		}
		return "", upstream
	}

	var out txt2ImgResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &domain.UpstreamError{Service: ServiceName, Message: "StableDiffusion returned an invalid response", Err: err}
	}
	if len(out.Images) == 0 || strings.TrimSpace(out.Images[0]) == "" {
		return "", &domain.UpstreamError{Service: ServiceName, Message: "StableDiffusion returned no images"}
	}
	return out.Images[0], nil
}
