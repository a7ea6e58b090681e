// Package output assembles and writes ranking results.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dgallion1/docsift/internal/doctree"
)

var ErrSerialization = errors.New("serialization failed")

// SafeName reduces name to a single path element that cannot escape the
// directory it is joined to.
func SafeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// ResultName is the default ranking artifact name for a test case.
func ResultName(caseName string) string {
	caseName = strings.TrimSpace(caseName)
	if caseName == "" {
		return "output.json"
	}
	return fmt.Sprintf("output_%s.json", SafeName(caseName))
}

type Metadata struct {
	Persona             string   `json:"persona"`
	JobToBeDone         string   `json:"job_to_be_done"`
	InputDocuments      []string `json:"input_documents"`
	ProcessingTimestamp string   `json:"processing_timestamp"`
}

type ExtractedSection struct {
	Document       string `json:"document"`
	SectionTitle   string `json:"section_title"`
	ImportanceRank int    `json:"importance_rank"`
	PageNumber     int    `json:"page_number"`
}

type SubsectionAnalysis struct {
	Document    string `json:"document"`
	PageNumber  int    `json:"page_number"`
	RefinedText string `json:"refined_text"`
}

// Result is the ranking-mode artifact for one batch.
type Result struct {
	Metadata           Metadata             `json:"metadata"`
	ExtractedSections  []ExtractedSection   `json:"extracted_sections"`
	SubsectionAnalysis []SubsectionAnalysis `json:"subsection_analysis"`
}

// NewMetadata stamps the batch with the current UTC time.
func NewMetadata(persona, task string, docs []string) Metadata {
	if docs == nil {
		docs = []string{}
	}
	return Metadata{
		Persona:             persona,
		JobToBeDone:         task,
		InputDocuments:      docs,
		ProcessingTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

var (
	leadingNonWordRe = regexp.MustCompile(`^[^\p{L}\p{N}]+`)
	spaceRe          = regexp.MustCompile(`\s+`)
)

// CleanTitle strips leading punctuation, bullets and whitespace.
func CleanTitle(title string) string {
	return strings.TrimSpace(leadingNonWordRe.ReplaceAllString(strings.TrimSpace(title), ""))
}

func normalizeTitle(title string) string {
	return strings.ToLower(spaceRe.ReplaceAllString(CleanTitle(title), " "))
}

// Assembler collects kept sections with dense ranks, dropping titles that
// normalise to one already emitted from any document.
type Assembler struct {
	result     Result
	seen       map[string]bool
	maxResults int
}

func NewAssembler(meta Metadata, maxResults int) *Assembler {
	return &Assembler{
		result: Result{
			Metadata:           meta,
			ExtractedSections:  []ExtractedSection{},
			SubsectionAnalysis: []SubsectionAnalysis{},
		},
		seen:       make(map[string]bool),
		maxResults: maxResults,
	}
}

// Eligible reports whether s would be accepted: its cleaned title is
// non-empty and not yet emitted, and the result is not full.
func (a *Assembler) Eligible(s doctree.Section) bool {
	key := normalizeTitle(s.Title)
	return key != "" && !a.seen[key] && !a.Full()
}

// Add appends s with its summary at the next rank. It returns false when
// s is not eligible.
func (a *Assembler) Add(s doctree.Section, refined string) bool {
	if !a.Eligible(s) {
		return false
	}
	a.seen[normalizeTitle(s.Title)] = true
	a.result.ExtractedSections = append(a.result.ExtractedSections, ExtractedSection{
		Document:       s.Document,
		SectionTitle:   CleanTitle(s.Title),
		ImportanceRank: len(a.result.ExtractedSections) + 1,
		PageNumber:     s.Page,
	})
	a.result.SubsectionAnalysis = append(a.result.SubsectionAnalysis, SubsectionAnalysis{
		Document:    s.Document,
		PageNumber:  s.Page,
		RefinedText: refined,
	})
	return true
}

// Full reports whether maxResults sections have been kept.
func (a *Assembler) Full() bool {
	return a.maxResults > 0 && len(a.result.ExtractedSections) >= a.maxResults
}

func (a *Assembler) Len() int { return len(a.result.ExtractedSections) }

func (a *Assembler) Result() *Result {
	r := a.result
	return &r
}

// WriteJSON writes v as indented JSON, replacing path atomically.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w: %w", filepath.Base(path), err, ErrSerialization)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w: %w", err, ErrSerialization)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docsift-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w: %w", err, ErrSerialization)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w: %w", path, err, ErrSerialization)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", path, err, ErrSerialization)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w: %w", path, err, ErrSerialization)
	}
	return nil
}
