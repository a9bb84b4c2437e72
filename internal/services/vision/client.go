package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"

	"foodanalyzer/internal/config"
	"foodanalyzer/internal/imaging"
	"foodanalyzer/internal/logger"
)

// Doer is the transport the client sends requests through. Production wiring
// passes an *http.Client with the configured timeout; tests pass a mock.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the OpenRouter chat-completions endpoint. The credential,
// model and prompt are fixed at construction time so a single analysis never
// reaches into the process environment.
type Client struct {
	apiKey      string
	httpReferer string
	xTitle      string
	model       string
	prompt      string
	endpoint    string
	temperature float64
	maxTokens   int
	httpClient  Doer
	logger      *logger.Logger
}

// NewClient creates a Client from the loaded configuration. When httpClient
// is nil a default *http.Client with the configured request timeout is used.
func NewClient(cfg *config.Config, httpClient Doer, logger *logger.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{
		apiKey:      cfg.APIKey,
		httpReferer: cfg.HTTPReferer,
		xTitle:      cfg.XTitle,
		model:       cfg.Model,
		prompt:      cfg.Prompt,
		endpoint:    config.OpenRouterURL,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Analyze normalizes a decoded photo and asks the vision model for a safety
// assessment. The returned string is the model's verdict verbatim.
func (c *Client) Analyze(ctx context.Context, img image.Image) (string, error) {
	data, err := imaging.Normalize(img)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	return c.AnalyzeJPEG(ctx, data)
}

// AnalyzeJPEG sends an already-normalized JPEG payload. Callers that need to
// keep the normalized bytes (e.g. to store them) use this to avoid encoding
// the photo twice.
func (c *Client) AnalyzeJPEG(ctx context.Context, jpegData []byte) (string, error) {
	if c.apiKey == "" {
		return "", &ConfigError{Missing: "OPENROUTER_API_KEY"}
	}

	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: c.prompt},
					{Type: "image_url", ImageURL: &ImageURL{URL: imaging.EncodeDataURI(jpegData)}},
				},
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	return c.complete(ctx, request)
}

// Ping issues a minimal text-only request against the check model to verify
// credentials and connectivity. Used by the self-test command.
func (c *Client) Ping(ctx context.Context) error {
	if c.apiKey == "" {
		return &ConfigError{Missing: "OPENROUTER_API_KEY"}
	}

	request := ChatRequest{
		Model: config.CheckModel,
		Messages: []Message{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: "Hello, this is a test message."},
				},
			},
		},
		MaxTokens: 10,
	}

	_, err := c.complete(ctx, request)
	return err
}

// complete performs the single synchronous POST and maps the response
// surface onto the error taxonomy. No retries, no streaming.
func (c *Client) complete(ctx context.Context, request ChatRequest) (string, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &TransportError{Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.httpReferer)
	req.Header.Set("X-Title", c.xTitle)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var response ChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", &TransportError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if len(response.Choices) == 0 {
		return "", &TransportError{Err: fmt.Errorf("response contains no choices")}
	}

	return response.Choices[0].Message.Content, nil
}
