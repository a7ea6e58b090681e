package verify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/oracle"
	"github.com/dgallion1/docsift/internal/stats"
)

// Filter defaults.
const (
	DefaultTopK      = 25
	DefaultMaxTokens = 3
	DefaultTimeout   = 20 * time.Second
)

// Filter is a fail-open compliance gate. Only sections ranked below TopK
// (0-based position in the sorted list) are checked; verifier errors and
// timeouts leave the section in place. A nil Verifier passes everything.
type Filter struct {
	Verifier  oracle.Verifier
	Timeout   time.Duration
	MaxTokens int
	TopK      int
	Latency   *stats.Latency
	Log       *slog.Logger
}

// Compliant reports whether section s, at position rank in the ranking, may
// be emitted for task.
func (f *Filter) Compliant(ctx context.Context, rank int, task string, s doctree.Section) bool {
	if f == nil || f.Verifier == nil {
		return true
	}
	topK := f.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if rank >= topK {
		return true
	}

	log := f.Log
	if log == nil {
		log = slog.Default()
	}

	answer, err := f.generate(ctx, BuildCompliancePrompt(task, s.Title, s.Content))
	if err != nil {
		log.Warn("verifier failed, assuming compliance",
			"document", s.Document, "section", s.Title, "rank", rank, "error", err)
		return true
	}
	if IsVeto(answer) {
		metrics.SectionsTotal.WithLabelValues("vetoed").Inc()
		log.Info("section vetoed", "document", s.Document, "section", s.Title, "rank", rank, "answer", answer)
		return false
	}
	return true
}

type generation struct {
	text string
	err  error
}

// generate bounds the call by Timeout even when the verifier ignores its
// context.
func (f *Filter) generate(ctx context.Context, prompt string) (string, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxTokens := f.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan generation, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- generation{err: errors.New("verifier panicked")}
			}
		}()
		text, err := f.Verifier.Generate(ctx, prompt, maxTokens)
		done <- generation{text: text, err: err}
	}()

	var g generation
	select {
	case g = <-done:
	case <-ctx.Done():
		g = generation{err: ctx.Err()}
	}
	if f.Latency != nil {
		f.Latency.Record(time.Since(start), g.err != nil)
	}
	return g.text, g.err
}
