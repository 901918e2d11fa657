package responder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MapGamer71223/AliceChatBot/internal/reliability"
)

// HTTPConfig fixes the endpoint and sampling parameters at construction
// time; they do not change per request.
type HTTPConfig struct {
	URL         string
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
	Timeout     time.Duration
}

// HTTPClient forwards prompts to an OpenAI-compatible chat-completion
// endpoint with a single bounded-timeout POST. The timeout is the only
// cancellation mechanism for the remote call.
type HTTPClient struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *HTTPClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload, err := json.Marshal(ChatRequest{
		Model: c.cfg.Model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
		TopP:        c.cfg.TopP,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("chat endpoint status %d (retryable=%t): %s",
			res.StatusCode, reliability.IsRetryableHTTPStatus(res.StatusCode), string(body))
	}

	var obj ChatResponse
	if err := json.NewDecoder(res.Body).Decode(&obj); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(obj.Choices) == 0 {
		return "", fmt.Errorf("response carried no choices")
	}
	return strings.TrimSpace(obj.Choices[0].Message.Content), nil
}
