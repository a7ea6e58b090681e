package embed

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgallion1/docsift/internal/oracle"
	"github.com/dgallion1/docsift/internal/stats"
)

type embeddingItem struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingItem `json:"data"`
	Model  string          `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func TestOpenAIEncoder_BatchesAndReorders(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		calls.Add(1)

		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		resp := embeddingResponse{Object: "list", Model: "test-model"}
		// Reverse order to exercise index-based reassembly.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingItem{
				Object:    "embedding",
				Embedding: []float32{float32(len(req.Input[i])), 1},
				Index:     i,
			})
		}
		resp.Usage.PromptTokens = len(req.Input)
		resp.Usage.TotalTokens = len(req.Input)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	enc := NewOpenAIEncoder(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL, Model: "test-model", BatchSize: 2})
	texts := []string{"a", "bb", "ccc", ""}
	vecs, err := enc.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 batched calls, got %d", calls.Load())
	}
	want := []float32{1, 2, 3, 1} // empty input is sent as a single space
	for i, v := range vecs {
		if v[0] != want[i] {
			t.Errorf("vector %d = %v, want first component %v", i, v, want[i])
		}
	}
}

func TestOpenAIEncoder_RateLimitIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"rate limited","type":"rate_limit"}}`)
	}))
	defer server.Close()

	enc := NewOpenAIEncoder(OpenAIConfig{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := enc.Embed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !oracle.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
	if !errors.Is(err, oracle.ErrEncoder) {
		t.Fatalf("expected ErrEncoder, got %v", err)
	}
}

func TestOpenAIEncoder_BadRequestNotRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"bad model","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	enc := NewOpenAIEncoder(OpenAIConfig{APIKey: "k", BaseURL: server.URL, Model: "m"})
	_, err := enc.Embed(context.Background(), []string{"x"})
	if err == nil || oracle.IsRetryable(err) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestHashEncoder_Deterministic(t *testing.T) {
	enc := HashEncoder{}
	a, _ := enc.Embed(context.Background(), []string{"vegetarian gluten-free buffet"})
	b, _ := enc.Embed(context.Background(), []string{"vegetarian gluten-free buffet"})
	if !slices.Equal(a[0], b[0]) {
		t.Fatal("hash encoder not deterministic")
	}
	if got := oracle.Cosine(a[0], b[0]); got < 0.9999 {
		t.Fatalf("self similarity = %v", got)
	}
}

func TestHashEncoder_Similarity(t *testing.T) {
	enc := HashEncoder{}
	vecs, _ := enc.Embed(context.Background(), []string{
		"vegetarian gluten-free buffet dinner",
		"A gluten-free, vegetarian salad for the buffet.",
		"Slow cooked beef with carrots and potatoes.",
		"",
	})
	related := oracle.Cosine(vecs[0], vecs[1])
	unrelated := oracle.Cosine(vecs[0], vecs[2])
	if related <= unrelated {
		t.Fatalf("expected related %v > unrelated %v", related, unrelated)
	}
	if oracle.Cosine(vecs[0], vecs[3]) != 0 {
		t.Fatal("empty text should have zero similarity")
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Gluten-Free, vegetarian -- 2 dishes!")
	want := []string{"gluten-free", "gluten", "free", "vegetarian", "2", "dishes"}
	if !slices.Equal(got, want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
}

type stubEncoder struct {
	vecs [][]float32
	err  error
}

func (s stubEncoder) Embed(context.Context, []string) ([][]float32, error) { return s.vecs, s.err }

func TestInstrumented_RecordsLatencyAndChecksLength(t *testing.T) {
	lat := stats.NewLatency(time.Hour)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ok := NewInstrumented(stubEncoder{vecs: [][]float32{{1}}}, "stub", lat, log)
	if _, err := ok.Embed(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	short := NewInstrumented(stubEncoder{vecs: nil}, "stub", lat, log)
	if _, err := short.Embed(context.Background(), []string{"x"}); !errors.Is(err, oracle.ErrEncoder) {
		t.Fatalf("expected ErrEncoder for short result, got %v", err)
	}

	failing := NewInstrumented(stubEncoder{err: errors.New("down")}, "stub", lat, log)
	if _, err := failing.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected error")
	}

	snap := lat.Snapshot()
	if snap.Count != 3 || snap.Errors != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
