// Package verify implements the compliance gate and its generative
// verifier clients.
package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/oracle"
)

const defaultAnthropicURL = "https://api.anthropic.com/v1/messages"

// ClaudeClient calls the Anthropic Messages API.
type ClaudeClient struct {
	apiKey     string
	model      string
	endpoint   string
	httpClient *http.Client
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return &ClaudeClient{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultAnthropicURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// WithEndpoint overrides the Messages API URL.
func (c *ClaudeClient) WithEndpoint(url string) *ClaudeClient {
	if url != "" {
		c.endpoint = url
	}
	return c
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate returns Claude's text completion for prompt.
func (c *ClaudeClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	text, err := c.generate(ctx, prompt, maxTokens)
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.OracleRequestsTotal.WithLabelValues("verifier", "claude", status).Inc()
	metrics.OracleRequestDuration.WithLabelValues("verifier", "claude").Observe(time.Since(start).Seconds())
	return text, err
}

func (c *ClaudeClient) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := anthropicRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropicMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("claude api: %w: %w", err, oracle.ErrVerifier)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", fmt.Errorf("claude api: %w: %w", &oracle.RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}, oracle.ErrVerifier)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude api status %d: %s: %w", resp.StatusCode, oracle.Truncate(string(respBody), 200), oracle.ErrVerifier)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("claude error: %s: %s: %w", apiResp.Error.Type, apiResp.Error.Message, oracle.ErrVerifier)
	}
	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response from claude: %w", oracle.ErrVerifier)
	}

	return strings.TrimSpace(apiResp.Content[0].Text), nil
}

// Close releases resources.
func (c *ClaudeClient) Close() {
	c.httpClient.CloseIdleConnections()
}
