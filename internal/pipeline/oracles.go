package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docsift/internal/config"
	"github.com/dgallion1/docsift/internal/embed"
	"github.com/dgallion1/docsift/internal/oracle"
	"github.com/dgallion1/docsift/internal/stats"
	"github.com/dgallion1/docsift/internal/verify"
)

// Oracles bundles the configured encoder and verifier with their latency
// trackers. Verifier is nil when compliance checking is off.
type Oracles struct {
	Encoder         oracle.Encoder
	EncoderBackend  string
	EncoderLatency  *stats.Latency
	Verifier        oracle.Verifier
	VerifierBackend string
	VerifierLatency *stats.Latency
}

// BuildOracles constructs the encoder and verifier named by cfg.
func BuildOracles(cfg config.Config, log *slog.Logger) (Oracles, error) {
	o := Oracles{
		EncoderBackend:  cfg.Encoder.Backend,
		EncoderLatency:  stats.NewLatency(cfg.StatsWindow),
		VerifierBackend: cfg.Verifier.Backend,
		VerifierLatency: stats.NewLatency(cfg.StatsWindow),
	}

	var base oracle.Encoder
	switch cfg.Encoder.Backend {
	case "hash":
		base = embed.HashEncoder{Dimensions: cfg.Encoder.Dimensions}
	case "openai":
		base = embed.NewOpenAIEncoder(embed.OpenAIConfig{
			APIKey:     cfg.Encoder.APIKey,
			BaseURL:    cfg.Encoder.BaseURL,
			Model:      cfg.Encoder.Model,
			Dimensions: cfg.Encoder.Dimensions,
			BatchSize:  cfg.Encoder.BatchSize,
		})
	default:
		return Oracles{}, fmt.Errorf("unknown encoder backend %q", cfg.Encoder.Backend)
	}
	o.Encoder = &RetryEncoder{
		Inner: embed.NewInstrumented(base, cfg.Encoder.Backend, o.EncoderLatency, log),
		Log:   log,
	}

	switch cfg.Verifier.Backend {
	case "none", "":
	case "claude":
		o.Verifier = verify.NewClaudeClient(cfg.Verifier.APIKey, cfg.Verifier.Model).WithEndpoint(cfg.Verifier.BaseURL)
	case "openai":
		o.Verifier = verify.NewOpenAIClient(cfg.Verifier.APIKey, cfg.Verifier.BaseURL, cfg.Verifier.Model)
	default:
		return Oracles{}, fmt.Errorf("unknown verifier backend %q", cfg.Verifier.Backend)
	}
	return o, nil
}

// Close releases idle connections held by the verifier client.
func (o Oracles) Close() {
	if c, ok := o.Verifier.(*verify.ClaudeClient); ok {
		c.Close()
	}
}
