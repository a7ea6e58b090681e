package main

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docsift/internal/output"
	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	rankInputDir string
	rankRequest  string
	rankPersona  string
	rankTask     string
	rankOut      string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank document sections against a persona and task",
	Long: `Rank every section of a document batch against a persona and job to be done.

Documents come from a request file (challenge JSON with documents[].filename,
persona.role and job_to_be_done.task) or from every supported file in
--input-dir. One aggregated JSON result is written.`,
	RunE: runRank,
}

func init() {
	f := rankCmd.Flags()
	f.StringVarP(&rankInputDir, "input-dir", "i", "", "Directory holding the documents")
	f.StringVarP(&rankRequest, "request", "r", "", "Request JSON file")
	f.StringVar(&rankPersona, "persona", "", "Persona role (overrides the request)")
	f.StringVar(&rankTask, "task", "", "Job to be done (overrides the request)")
	f.StringVarP(&rankOut, "out", "o", "", "Output file (default output_<test_case_name>.json or output.json)")
	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg.Log)

	req, err := buildRequest()
	if err != nil {
		return err
	}

	oracles, err := pipeline.BuildOracles(cfg, log)
	if err != nil {
		return err
	}
	defer oracles.Close()

	orch := pipeline.NewOrchestrator(cfg, oracles, log)
	result, report, err := orch.Rank(cmd.Context(), req)

	out := cmd.OutOrStdout()
	extra := []string{latencyLine("Encoder", oracles.EncoderLatency.Snapshot())}
	if oracles.Verifier != nil {
		extra = append(extra, latencyLine("Verifier", oracles.VerifierLatency.Snapshot()))
	}
	if err != nil {
		renderReport(out, "Ranking failed", report, extra...)
		return err
	}

	path := rankOut
	if path == "" {
		path = output.ResultName(req.CaseName)
	}
	if err := output.WriteJSON(path, result); err != nil {
		renderReport(out, "Ranking failed", report, extra...)
		return err
	}

	extra = append([]string{fmt.Sprintf("%s %d of %d sections  %s %s",
		dimStyle.Render("Selected:"), report.Selected, report.Sections,
		dimStyle.Render("Output:"), path)}, extra...)
	renderReport(out, "Ranking complete", report, extra...)
	return nil
}

func buildRequest() (pipeline.Request, error) {
	var req pipeline.Request
	switch {
	case rankRequest != "":
		r, err := pipeline.LoadRequest(rankRequest, rankInputDir)
		if err != nil {
			return pipeline.Request{}, err
		}
		req = r
	case rankInputDir != "":
		docs, err := pipeline.ScanDir(rankInputDir)
		if err != nil {
			return pipeline.Request{}, err
		}
		req.Documents = docs
	default:
		return pipeline.Request{}, errors.New("either --request or --input-dir is required")
	}

	if rankPersona != "" {
		req.Persona = rankPersona
	}
	if rankTask != "" {
		req.Task = rankTask
	}
	if req.Task == "" {
		return pipeline.Request{}, errors.New("a task is required (--task or job_to_be_done.task)")
	}
	if len(req.Documents) == 0 {
		return pipeline.Request{}, errors.New("no supported documents found")
	}
	return req, nil
}
