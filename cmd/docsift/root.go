package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/docsift/internal/config"
	"github.com/dgallion1/docsift/internal/version"
	"github.com/spf13/cobra"
)

var (
	configPath   string
	logLevel     string
	logFormat    string
	workers      int
	encoderName  string
	verifierName string
)

var rootCmd = &cobra.Command{
	Use:   "docsift",
	Short: "Persona-driven section ranking and outlines for document batches",
	Long: `docsift detects the heading structure of PDF, DOCX, EPUB, HTML, Markdown and
plain-text documents, ranks the resulting sections against a persona and a
job to be done, and writes extractive summaries of the best matches.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("docsift %s\n", version.String()))

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", os.Getenv("DOCSIFT_CONFIG"), "YAML config file overlaid on the environment")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "Log format (json, text)")
	pf.IntVar(&workers, "workers", 0, "Documents processed in parallel")
	pf.StringVar(&encoderName, "encoder", "", "Encoder backend (hash, openai)")
	pf.StringVar(&verifierName, "verifier", "", "Verifier backend (none, claude, openai)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}

// loadConfig builds the run configuration: environment, then the YAML
// overlay, then any flags set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("encoder") {
		cfg.Encoder.Backend = encoderName
	}
	if flags.Changed("verifier") {
		cfg.Verifier.Backend = verifierName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger writes structured logs to stderr so stdout stays free for the
// run summary.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
