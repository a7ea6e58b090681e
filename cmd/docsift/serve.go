package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docsift/internal/api"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/spf13/cobra"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve ranking and outlines over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default $PORT or 8090)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.HTTP.Port = servePort
	}
	log := newLogger(cfg.Log)

	oracles, err := pipeline.BuildOracles(cfg, log)
	if err != nil {
		return err
	}
	defer oracles.Close()

	orch := pipeline.NewOrchestrator(cfg, oracles, log)
	srv := api.NewServer(orch, oracles, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown.
	go func() {
		<-ctx.Done()
		log.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	if cfg.HTTP.APIKey == "" {
		log.Warn("DOCSIFT_API_KEY is not set, API endpoints are unauthenticated")
	}
	log.Info("starting docsift", "port", cfg.HTTP.Port, "encoder", cfg.Encoder.Backend, "verifier", cfg.Verifier.Backend)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
