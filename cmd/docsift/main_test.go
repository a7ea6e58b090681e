package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/docsift/internal/pipeline"
	"github.com/dgallion1/docsift/internal/stats"
	"github.com/spf13/pflag"
)

const recipes = `Chickpea Salad
Ingredients:
chickpeas, cucumber, tomato
This gluten-free vegetarian salad is perfect for a buffet dinner.
Beef Stew
Ingredients:
beef, carrots
Slow cook the beef with carrots for hours until the meat is tender.
`

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DOCSIFT_CONFIG", "ENCODER_BACKEND", "VERIFIER_BACKEND", "MIN_RELEVANCE", "MAX_RESULTS"} {
		t.Setenv(key, "")
	}
	// Flag sets outlive a single Execute, so put every flag back to its default.
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config=", "--log-level=error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRankCommand_Request(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dinner.txt"), recipes)
	writeFile(t, filepath.Join(dir, "request.json"), `{
		"challenge_info": {"test_case_name": "buffet"},
		"documents": [{"filename": "dinner.txt"}, {"filename": "gone.txt"}],
		"persona": {"role": "Food Contractor"},
		"job_to_be_done": {"task": "vegetarian gluten-free buffet dinner"}
	}`)
	outPath := filepath.Join(dir, "result.json")

	stdout, err := run(t, "rank", "--request", filepath.Join(dir, "request.json"), "--out", outPath)
	if err != nil {
		t.Fatalf("rank: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "Ranking complete") || !strings.Contains(stdout, "gone.txt") {
		t.Errorf("unexpected summary:\n%s", stdout)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Metadata struct {
			Persona string `json:"persona"`
		} `json:"metadata"`
		ExtractedSections []struct {
			SectionTitle string `json:"section_title"`
		} `json:"extracted_sections"`
	}
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if res.Metadata.Persona != "Food Contractor" {
		t.Errorf("persona = %q", res.Metadata.Persona)
	}
	if len(res.ExtractedSections) != 1 || res.ExtractedSections[0].SectionTitle != "Chickpea Salad" {
		t.Errorf("unexpected sections: %+v", res.ExtractedSections)
	}
}

func TestRankCommand_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no source", []string{"rank", "--task", "x"}, "--request or --input-dir"},
		{"no task", []string{"rank", "--input-dir", "."}, "task is required"},
		{"bad encoder", []string{"rank", "--input-dir", ".", "--task", "x", "--encoder", "magic"}, "encoder.backend"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRankCommand_NoSections(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "blank.txt"), "   \n")

	_, err := run(t, "rank", "--input-dir", dir, "--task", "anything", "--out", filepath.Join(dir, "out.json"))
	if err == nil {
		t.Fatal("expected an error when no document yields sections")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.json")); statErr == nil {
		t.Error("no output should be written on failure")
	}
}

func TestOutlineCommand(t *testing.T) {
	isolateEnv(t)
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "outlines")
	writeFile(t, filepath.Join(in, "guide.md"), "# Field Guide\n\nIntro paragraph with enough words to be body text.\n\n## 1. Birds\n\nBirds are common in the park all year long.\n")

	stdout, err := run(t, "outline", "--input-dir", in, "--out-dir", out)
	if err != nil {
		t.Fatalf("outline: %v\n%s", err, stdout)
	}
	data, err := os.ReadFile(filepath.Join(out, "guide.json"))
	if err != nil {
		t.Fatalf("read outline: %v", err)
	}
	var outline struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &outline); err != nil {
		t.Fatal(err)
	}
	if outline.Title != "Field Guide" {
		t.Errorf("title = %q", outline.Title)
	}
}

func TestOutlineCommand_EmptyDir(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "outline", "--input-dir", t.TempDir(), "--out-dir", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no supported documents") {
		t.Errorf("expected empty-dir error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	isolateEnv(t)
	stdout, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "docsift ") {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestRenderReport(t *testing.T) {
	report := pipeline.Report{
		RunID: "run-1",
		Documents: []pipeline.DocStatus{
			{Document: "a.pdf", Status: pipeline.StatusCompleted, Pages: 3, Sections: 4, Extractor: "heading"},
			{Document: "b.pdf", Status: pipeline.StatusMissing, Error: "file not found"},
			{Document: "c.pdf", Status: pipeline.StatusDupSkipped},
		},
		Duration: 1500 * time.Millisecond,
	}
	var buf bytes.Buffer
	renderReport(&buf, "Ranking complete", report, latencyLine("Encoder", stats.Snapshot{}))
	got := buf.String()

	for _, want := range []string{"a.pdf", "3 pages, 4 sections via heading", "b.pdf", "file not found", "c.pdf", "Ranking complete", "Run: run-1", "Encoder:", "no calls"} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}

func TestLatencyLine(t *testing.T) {
	got := latencyLine("Verifier", stats.Snapshot{Count: 4, Errors: 1, P50Ms: 120, P95Ms: 480})
	if !strings.Contains(got, "4 calls, 1 errors, p50 120ms, p95 480ms") {
		t.Errorf("unexpected line %q", got)
	}
}

func TestRankCommand_DefaultOutputStaysInWorkingDir(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	if err := os.Mkdir(work, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "dinner.txt"), recipes)
	writeFile(t, filepath.Join(dir, "request.json"), `{
		"challenge_info": {"test_case_name": "../escaped"},
		"documents": [{"filename": "dinner.txt"}],
		"persona": {"role": "Food Contractor"},
		"job_to_be_done": {"task": "vegetarian gluten-free buffet dinner"}
	}`)
	t.Chdir(work)

	if _, err := run(t, "rank", "--request", filepath.Join(dir, "request.json")); err != nil {
		t.Fatalf("rank: %v", err)
	}
	if _, err := os.Stat(filepath.Join(work, "output_escaped.json")); err != nil {
		t.Errorf("expected output in the working directory: %v", err)
	}
	entries, err := os.ReadDir(work)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected a single output file, found %d entries", len(entries))
	}
}
