package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsift/internal/output"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outlineInputDir string
	outlineOutDir   string
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Write a heading outline for every document in a directory",
	Long: `Detect the title and H1-H4 headings of every supported document in
--input-dir and write one <name>.json outline per document to --out-dir.`,
	RunE: runOutline,
}

func init() {
	f := outlineCmd.Flags()
	f.StringVarP(&outlineInputDir, "input-dir", "i", "input", "Directory holding the documents")
	f.StringVarP(&outlineOutDir, "out-dir", "o", "output", "Directory for outline JSON files")
	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	sources, err := pipeline.ScanDir(outlineInputDir)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return fmt.Errorf("no supported documents in %s", outlineInputDir)
	}
	if err := os.MkdirAll(outlineOutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Outline mode never calls the oracles.
	orch := pipeline.NewOrchestrator(cfg, pipeline.Oracles{}, log)
	results, report := orch.Outline(cmd.Context(), sources)

	for i, r := range results {
		if r.Err != nil {
			continue
		}
		name := strings.TrimSuffix(r.Document, filepath.Ext(r.Document)) + ".json"
		path := filepath.Join(outlineOutDir, name)
		if err := output.WriteJSON(path, r.Outline); err != nil {
			log.Error("write outline failed", "document", r.Document, "error", err)
			report.Documents[i].Status = pipeline.StatusFailed
			report.Documents[i].Error = err.Error()
		}
	}

	renderReport(cmd.OutOrStdout(), "Outline complete", report,
		fmt.Sprintf("%s %s", dimStyle.Render("Output:"), outlineOutDir))

	if succeeded, _ := report.Counts(); succeeded == 0 {
		return errors.New("no document produced an outline")
	}
	return nil
}
