package embed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/oracle"
	"github.com/dgallion1/docsift/internal/stats"
)

// Instrumented wraps an Encoder with latency tracking, input counting and
// logging. Transport metrics stay in the concrete encoders.
type Instrumented struct {
	inner   oracle.Encoder
	backend string
	latency *stats.Latency
	log     *slog.Logger
}

// NewInstrumented wraps inner. latency may be nil.
func NewInstrumented(inner oracle.Encoder, backend string, latency *stats.Latency, log *slog.Logger) *Instrumented {
	if log == nil {
		log = slog.Default()
	}
	return &Instrumented{inner: inner, backend: backend, latency: latency, log: log}
}

func (p *Instrumented) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	start := time.Now()
	vecs, err := p.inner.Embed(ctx, texts)
	duration := time.Since(start)

	if p.latency != nil {
		p.latency.Record(duration, err != nil)
	}
	metrics.EmbeddingInputsTotal.WithLabelValues(p.backend).Add(float64(len(texts)))

	if err != nil {
		p.log.Error("embedding request failed",
			"backend", p.backend,
			"batch_size", len(texts),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("encoder returned %d vectors for %d texts: %w", len(vecs), len(texts), oracle.ErrEncoder)
	}

	p.log.Debug("embedding completed",
		"backend", p.backend,
		"batch_size", len(texts),
		"duration_ms", duration.Milliseconds(),
	)
	return vecs, nil
}
