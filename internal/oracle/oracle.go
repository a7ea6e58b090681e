// Package oracle defines the external model contracts: a batched text
// encoder and a generative verifier.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	ErrEncoder  = errors.New("encoder oracle failed")
	ErrVerifier = errors.New("verifier oracle failed")
)

// Encoder embeds texts. The result is parallel to the input: out[i] is the
// vector for texts[i]. Implementations must accept any batch size.
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Verifier generates a short completion for a prompt.
type Verifier interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Cosine computes cosine similarity, accumulating in float64. Mismatched
// lengths or zero vectors yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Truncate shortens s to at most n bytes without splitting a rune,
// marking the cut.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
