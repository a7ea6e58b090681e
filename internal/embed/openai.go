// Package embed provides encoder oracle implementations.
package embed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/oracle"
)

// DefaultMaxAPIBatchSize is the largest number of inputs sent in one request.
const DefaultMaxAPIBatchSize = 256

// OpenAIConfig holds the embedding provider settings.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // empty uses the OpenAI default
	Model      string
	Dimensions int
	BatchSize  int
}

// OpenAIEncoder embeds through any OpenAI-compatible embeddings endpoint.
type OpenAIEncoder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	batchSize  int
}

func NewOpenAIEncoder(cfg OpenAIConfig) *OpenAIEncoder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	batch := cfg.BatchSize
	if batch <= 0 || batch > DefaultMaxAPIBatchSize {
		batch = DefaultMaxAPIBatchSize
	}
	return &OpenAIEncoder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		batchSize:  batch,
	}
}

// Embed sends texts in chunks of at most batchSize and returns vectors in
// input order.
func (e *OpenAIEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for offset := 0; offset < len(texts); offset += e.batchSize {
		end := min(offset+e.batchSize, len(texts))
		vecs, err := e.embedChunk(ctx, texts[offset:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunk at %d: %w", offset, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *OpenAIEncoder) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	input := make([]string, len(texts))
	for i, t := range texts {
		// The API rejects empty strings.
		if t == "" {
			t = " "
		}
		input[i] = t
	}

	req := openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.OracleRequestsTotal.WithLabelValues("encoder", "openai", "error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Data) != len(texts) {
		metrics.OracleRequestsTotal.WithLabelValues("encoder", "openai", "error").Inc()
		return nil, fmt.Errorf("got %d embeddings for %d inputs: %w", len(resp.Data), len(texts), oracle.ErrEncoder)
	}

	metrics.OracleRequestsTotal.WithLabelValues("encoder", "openai", "success").Inc()
	metrics.OracleRequestDuration.WithLabelValues("encoder", "openai").Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues("openai", "prompt").Add(float64(resp.Usage.PromptTokens))
		metrics.EmbeddingTokensTotal.WithLabelValues("openai", "total").Add(float64(resp.Usage.TotalTokens))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vecs) || vecs[d.Index] != nil {
			return nil, fmt.Errorf("bad embedding index %d: %w", d.Index, oracle.ErrEncoder)
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

// parseAPIError wraps provider errors with oracle.ErrEncoder and marks
// rate limits and server errors as retryable.
func parseAPIError(err error) error {
	status := 0
	msg := err.Error()

	var reqErr *openai.RequestError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		msg = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
		if detail := extractDetail(reqErr.Body); detail != "" {
			msg = detail
		} else if len(reqErr.Body) > 0 {
			msg = string(reqErr.Body)
		}
	default:
		return fmt.Errorf("embedding request failed: %w: %w", err, oracle.ErrEncoder)
	}

	if status == http.StatusTooManyRequests || status >= 500 {
		return fmt.Errorf("embedding API: %w: %w", &oracle.RetryableError{StatusCode: status, Message: msg}, oracle.ErrEncoder)
	}
	return fmt.Errorf("embedding API error %d: %s: %w", status, oracle.Truncate(msg, 200), oracle.ErrEncoder)
}

// extractDetail reads the "detail" field some compatible providers use.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
