// Package ai talks to an OpenAI-compatible chat-completions endpoint for
// the research and assistant features. Calls are single-shot with a hard
// timeout; failures surface as typed errors and are never retried here.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	ErrRateLimited       = errors.New("ai provider rate limit exceeded")
	ErrMalformedResponse = errors.New("ai provider returned a malformed response")
	ErrNotConfigured     = errors.New("ai provider is not configured")
)

const defaultTimeout = 60 * time.Second

// Message is a single chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the provider endpoint settings.
type Config struct {
	BaseURL string // e.g. https://api.groq.com/openai/v1
	APIKey  string
	Model   string
}

// Client is a minimal chat-completions client.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends the conversation and returns the assistant's reply text.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, messages, false)
}

// CompleteJSON sends the conversation in JSON mode and returns the raw
// JSON text of the reply. Callers unmarshal into their own shape and treat
// failures as ErrMalformedResponse.
func (c *Client) CompleteJSON(ctx context.Context, messages []Message) (string, error) {
	return c.complete(ctx, messages, true)
}

func (c *Client) complete(ctx context.Context, messages []Message, jsonMode bool) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: 0.2,
	}
	if jsonMode {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ai provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read ai response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("ai provider returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", ErrMalformedResponse
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", ErrMalformedResponse
	}

	return parsed.Choices[0].Message.Content, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
