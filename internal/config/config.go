package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Heading  HeadingConfig  `yaml:"heading"`
	Summary  SummaryConfig  `yaml:"summary"`
	Encoder  EncoderConfig  `yaml:"encoder"`
	Verifier VerifierConfig `yaml:"verifier"`

	// Worker pool for per-document extraction.
	Workers int `yaml:"workers"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	// Rolling window for oracle latency stats.
	StatsWindow time.Duration `yaml:"stats_window"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type HTTPConfig struct {
	Port           string `yaml:"port"`
	APIKey         string `yaml:"api_key"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type RankingConfig struct {
	TitleWeight   float64 `yaml:"title_weight"`
	ContentWeight float64 `yaml:"content_weight"`
	MinRelevance  float64 `yaml:"min_relevance"`
	MaxResults    int     `yaml:"max_results"`
}

type HeadingConfig struct {
	Percentile        float64 `yaml:"percentile"`
	SectionMarker     string  `yaml:"section_marker"`
	MinMarkerSections int     `yaml:"min_marker_sections"`
}

type SummaryConfig struct {
	TopK             int `yaml:"top_k"`
	MinSentenceWords int `yaml:"min_sentence_words"`
}

type EncoderConfig struct {
	Backend    string `yaml:"backend"` // hash, openai
	Model      string `yaml:"model"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

type VerifierConfig struct {
	Backend   string        `yaml:"backend"` // none, claude, openai
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	TopK      int           `yaml:"top_k"`
	Timeout   time.Duration `yaml:"timeout"`
	MaxTokens int           `yaml:"max_tokens"`
}

// Load reads the environment, overlays the YAML file named by DOCSIFT_CONFIG
// when set, then applies defaults and validates.
func Load() (Config, error) {
	return LoadFile(os.Getenv("DOCSIFT_CONFIG"))
}

// LoadFile is Load with an explicit overlay path; empty skips the overlay.
func LoadFile(path string) (Config, error) {
	cfg := FromEnv()
	if path != "" {
		if err := cfg.Overlay(path); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a config from environment variables alone.
func FromEnv() Config {
	verifierBackend := envOr("VERIFIER_BACKEND", "none")
	verifierKey := os.Getenv("VERIFIER_API_KEY")
	if verifierKey == "" {
		switch verifierBackend {
		case "claude":
			verifierKey = os.Getenv("ANTHROPIC_API_KEY")
		case "openai":
			verifierKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	verifierModel := os.Getenv("VERIFIER_MODEL")
	if verifierModel == "" && verifierBackend == "claude" {
		verifierModel = envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929")
	}

	return Config{
		Log: LogConfig{
			Level:  envOr("DOCSIFT_LOG_LEVEL", "info"),
			Format: envOr("DOCSIFT_LOG_FORMAT", "json"),
		},
		HTTP: HTTPConfig{
			Port:           envOr("PORT", "8090"),
			APIKey:         os.Getenv("DOCSIFT_API_KEY"),
			MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB
		},
		Ranking: RankingConfig{
			TitleWeight:   envFloat("TITLE_WEIGHT", 0.3),
			ContentWeight: envFloat("CONTENT_WEIGHT", 0.7),
			MinRelevance:  envFloat("MIN_RELEVANCE", 0.2),
			MaxResults:    envInt("MAX_RESULTS", 15),
		},
		Heading: HeadingConfig{
			Percentile:        envFloat("HEADING_PERCENTILE", 95),
			SectionMarker:     envOr("SECTION_MARKER", "Ingredients:"),
			MinMarkerSections: envInt("MIN_MARKER_SECTIONS", 2),
		},
		Summary: SummaryConfig{
			TopK:             envInt("SUMMARY_TOP_K", 3),
			MinSentenceWords: envInt("MIN_SENTENCE_WORDS", 5),
		},
		Encoder: EncoderConfig{
			Backend:    envOr("ENCODER_BACKEND", "hash"),
			Model:      envOr("ENCODER_MODEL", "text-embedding-3-small"),
			BaseURL:    os.Getenv("ENCODER_BASE_URL"),
			APIKey:     envOr("ENCODER_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Dimensions: envInt("ENCODER_DIMENSIONS", 0),
			BatchSize:  envInt("ENCODER_BATCH_SIZE", 256),
		},
		Verifier: VerifierConfig{
			Backend:   verifierBackend,
			Model:     verifierModel,
			BaseURL:   os.Getenv("VERIFIER_BASE_URL"),
			APIKey:    verifierKey,
			TopK:      envInt("VERIFY_TOP_K", 25),
			Timeout:   envDuration("VERIFIER_TIMEOUT", 20*time.Second),
			MaxTokens: envInt("VERIFIER_MAX_TOKENS", 3),
		},
		Workers:              envInt("WORKER_COUNT", 4),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
		StatsWindow:          envDuration("STATS_WINDOW", 1*time.Hour),
	}
}

// Overlay reads a YAML file over the current values. Fields absent from the
// file keep their values. ${VAR} and ${VAR:-default} are expanded first.
func (c *Config) Overlay(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(expandEnvVars(data), c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills empty or non-positive fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8090"
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 52428800
	}
	if c.Ranking.TitleWeight == 0 && c.Ranking.ContentWeight == 0 {
		c.Ranking.TitleWeight, c.Ranking.ContentWeight = 0.3, 0.7
	}
	if c.Ranking.MaxResults <= 0 {
		c.Ranking.MaxResults = 15
	}
	if c.Heading.Percentile <= 0 {
		c.Heading.Percentile = 95
	}
	if c.Heading.SectionMarker == "" {
		c.Heading.SectionMarker = "Ingredients:"
	}
	if c.Heading.MinMarkerSections <= 0 {
		c.Heading.MinMarkerSections = 2
	}
	if c.Summary.TopK <= 0 {
		c.Summary.TopK = 3
	}
	if c.Summary.MinSentenceWords <= 0 {
		c.Summary.MinSentenceWords = 5
	}
	if c.Encoder.Backend == "" {
		c.Encoder.Backend = "hash"
	}
	if c.Encoder.BatchSize <= 0 {
		c.Encoder.BatchSize = 256
	}
	if c.Verifier.Backend == "" {
		c.Verifier.Backend = "none"
	}
	if c.Verifier.Model == "" {
		switch c.Verifier.Backend {
		case "claude":
			c.Verifier.Model = "claude-sonnet-4-5-20250929"
		case "openai":
			c.Verifier.Model = "gpt-4o-mini"
		}
	}
	if c.Verifier.TopK <= 0 {
		c.Verifier.TopK = 25
	}
	if c.Verifier.Timeout <= 0 {
		c.Verifier.Timeout = 20 * time.Second
	}
	if c.Verifier.MaxTokens <= 0 {
		c.Verifier.MaxTokens = 3
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = 1 * time.Hour
	}
}

func (c Config) Validate() error {
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be \"json\" or \"text\", got %q", c.Log.Format)
	}
	if c.Ranking.TitleWeight < 0 || c.Ranking.ContentWeight < 0 {
		return fmt.Errorf("ranking weights must be non-negative")
	}
	if c.Ranking.MinRelevance < -1 || c.Ranking.MinRelevance > 1 {
		return fmt.Errorf("ranking.min_relevance must be within [-1, 1], got %v", c.Ranking.MinRelevance)
	}
	if c.Heading.Percentile > 100 {
		return fmt.Errorf("heading.percentile must be within (0, 100], got %v", c.Heading.Percentile)
	}
	if c.Encoder.BatchSize > 256 {
		return fmt.Errorf("encoder.batch_size must be at most 256, got %d", c.Encoder.BatchSize)
	}

	switch c.Encoder.Backend {
	case "hash":
	case "openai":
		if c.Encoder.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY (or encoder.api_key) is required for the openai encoder")
		}
	default:
		return fmt.Errorf("encoder.backend must be \"hash\" or \"openai\", got %q", c.Encoder.Backend)
	}

	switch c.Verifier.Backend {
	case "none":
	case "claude", "openai":
		if c.Verifier.APIKey == "" {
			return fmt.Errorf("an API key is required for the %s verifier", c.Verifier.Backend)
		}
		if c.Verifier.Model == "" {
			return fmt.Errorf("verifier.model is required for the %s verifier", c.Verifier.Backend)
		}
	default:
		return fmt.Errorf("verifier.backend must be \"none\", \"claude\" or \"openai\", got %q", c.Verifier.Backend)
	}
	return nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
