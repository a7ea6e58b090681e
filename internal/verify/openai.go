package verify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/oracle"
)

// OpenAIClient generates through an OpenAI-compatible chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: maxTokens,
	})
	metrics.OracleRequestDuration.WithLabelValues("verifier", "openai").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleRequestsTotal.WithLabelValues("verifier", "openai", "error").Inc()
		return "", wrapChatError(err)
	}
	metrics.OracleRequestsTotal.WithLabelValues("verifier", "openai", "success").Inc()

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion: %w", oracle.ErrVerifier)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func wrapChatError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("chat completion: %w: %w", &oracle.RetryableError{StatusCode: status, Message: err.Error()}, oracle.ErrVerifier)
	}
	return fmt.Errorf("chat completion: %w: %w", err, oracle.ErrVerifier)
}
