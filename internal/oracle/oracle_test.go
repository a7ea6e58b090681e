package oracle

import (
	"fmt"
	"math"
	"testing"
	"unicode/utf8"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Cosine(tc.a, tc.b); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Cosine = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	wrapped := fmt.Errorf("embed batch: %w", &RetryableError{StatusCode: 429, Message: "slow down"})
	if !IsRetryable(wrapped) {
		t.Fatal("expected wrapped RetryableError to be retryable")
	}
	if IsRetryable(ErrEncoder) {
		t.Fatal("plain sentinel must not be retryable")
	}
}

func TestRetryableErrorTruncatesMessage(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	msg := (&RetryableError{StatusCode: 503, Message: string(long)}).Error()
	if len(msg) > 260 {
		t.Fatalf("message not truncated: %d bytes", len(msg))
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"caf\u00e9 au lait", 4, "caf..."},
		{"\u00e9\u00e9", 1, "..."},
	}
	for _, tt := range tests {
		got := Truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
