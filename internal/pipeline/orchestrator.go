package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/docsift/internal/config"
	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/heading"
	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/output"
	"github.com/dgallion1/docsift/internal/parser"
	"github.com/dgallion1/docsift/internal/rank"
	"github.com/dgallion1/docsift/internal/segment"
	"github.com/dgallion1/docsift/internal/summarize"
	"github.com/dgallion1/docsift/internal/verify"
	"github.com/google/uuid"
)

var errNoText = errors.New("document has no extractable text")

// Orchestrator runs ranking and outline batches.
type Orchestrator struct {
	parserOpts parser.Options
	extractor  segment.Extractor
	ranker     *rank.Ranker
	summarizer *summarize.Summarizer
	filter     *verify.Filter
	percentile float64
	workers    int
	log        *slog.Logger
}

// NewOrchestrator wires the pipeline stages from cfg and the oracles.
func NewOrchestrator(cfg config.Config, oracles Oracles, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	o := &Orchestrator{
		parserOpts: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		extractor:  segment.NewChain(cfg.Heading.SectionMarker, cfg.Heading.MinMarkerSections, cfg.Heading.Percentile, log),
		ranker: &rank.Ranker{
			Encoder: oracles.Encoder,
			Config: rank.Config{
				TitleWeight:   cfg.Ranking.TitleWeight,
				ContentWeight: cfg.Ranking.ContentWeight,
				MinRelevance:  cfg.Ranking.MinRelevance,
				MaxResults:    cfg.Ranking.MaxResults,
			},
		},
		summarizer: &summarize.Summarizer{
			Encoder:  oracles.Encoder,
			TopK:     cfg.Summary.TopK,
			MinWords: cfg.Summary.MinSentenceWords,
		},
		percentile: cfg.Heading.Percentile,
		workers:    workers,
		log:        log,
	}
	if oracles.Verifier != nil {
		o.filter = &verify.Filter{
			Verifier:  oracles.Verifier,
			Timeout:   cfg.Verifier.Timeout,
			MaxTokens: cfg.Verifier.MaxTokens,
			TopK:      cfg.Verifier.TopK,
			Latency:   oracles.VerifierLatency,
			Log:       log,
		}
	}
	return o
}

// Rank extracts sections from every document, ranks the pooled sections
// against the request's query and assembles the result. Per-document
// failures are recorded in the report; the call fails only when no
// section survives extraction or the query cannot be embedded.
func (o *Orchestrator) Rank(ctx context.Context, req Request) (*output.Result, Report, error) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	log := o.log.With("run_id", report.RunID)
	log.Info("ranking batch started", "documents", len(req.Documents), "persona", req.Persona)

	results := o.processAll(ctx, req.Documents, log, o.segmentStage)
	markDuplicates(results, log)

	var pooled []doctree.Section
	for _, r := range results {
		pooled = append(pooled, r.sections...)
	}
	finish := func() {
		report.Documents = make([]DocStatus, len(results))
		for i, r := range results {
			report.Documents[i] = r.status
		}
		recordDocuments(report.Documents)
		report.Duration = time.Since(start)
	}

	report.Sections = len(pooled)
	if len(pooled) == 0 {
		finish()
		return nil, report, ErrNoSections
	}

	queryVec, err := o.ranker.EmbedQuery(ctx, req.Query())
	if err != nil {
		finish()
		return nil, report, fmt.Errorf("%w: %w", ErrOracle, err)
	}

	ranked := o.rankSections(ctx, queryVec, pooled, results, log)
	if len(ranked) == 0 {
		finish()
		return nil, report, fmt.Errorf("%w: every document failed ranking", ErrOracle)
	}

	asm := output.NewAssembler(output.NewMetadata(req.Persona, req.Task, req.DocumentNames()), o.ranker.Config.MaxResults)
	for i, s := range ranked {
		if asm.Full() {
			break
		}
		if !o.ranker.Config.Passes(s.Score) {
			// Sorted descending, so nothing after this passes either.
			metrics.SectionsTotal.WithLabelValues("below_floor").Add(float64(len(ranked) - i))
			break
		}
		if !asm.Eligible(s) {
			outcome := "duplicate"
			if output.CleanTitle(s.Title) == "" {
				outcome = "untitled"
			}
			metrics.SectionsTotal.WithLabelValues(outcome).Inc()
			continue
		}
		if !o.filter.Compliant(ctx, i, req.Task, s) {
			continue
		}
		refined, err := o.summarizer.Summarize(ctx, s.Content, queryVec)
		if err != nil {
			log.Warn("summary failed, skipping section", "document", s.Document, "section", s.Title, "error", err)
			continue
		}
		asm.Add(s, refined)
		metrics.SectionsTotal.WithLabelValues("selected").Inc()
	}

	report.Selected = asm.Len()
	finish()
	succeeded, failed := report.Counts()
	log.Info("ranking batch finished",
		"sections", report.Sections,
		"selected", report.Selected,
		"succeeded", succeeded,
		"failed", failed,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return asm.Result(), report, nil
}

func (o *Orchestrator) segmentStage(doc *doctree.Document, r *docResult, log *slog.Logger) error {
	if strings.TrimSpace(documentText(doc)) == "" {
		return errNoText
	}
	name, sections, err := o.selectSections(doc)
	if err != nil {
		return err
	}
	r.sections = sections
	r.status.Sections = len(sections)
	r.status.Extractor = name
	return nil
}

func (o *Orchestrator) selectSections(doc *doctree.Document) (string, []doctree.Section, error) {
	if chain, ok := o.extractor.(*segment.Chain); ok {
		return chain.Select(doc)
	}
	sections, err := o.extractor.Extract(doc)
	return o.extractor.Name(), sections, err
}

// rankSections ranks the pooled list with one batched call per field. When
// that fails it ranks each document alone so a single bad document only
// drops its own sections.
func (o *Orchestrator) rankSections(ctx context.Context, queryVec []float32, pooled []doctree.Section, results []docResult, log *slog.Logger) []doctree.Section {
	ranked, err := o.ranker.Rank(ctx, queryVec, pooled)
	if err == nil {
		return ranked
	}
	if ctx.Err() != nil {
		log.Error("ranking cancelled", "error", err)
		return nil
	}
	log.Warn("pooled ranking failed, ranking per document", "error", err)

	var merged []doctree.Section
	for i := range results {
		r := &results[i]
		if len(r.sections) == 0 {
			continue
		}
		docRanked, err := o.ranker.Rank(ctx, queryVec, r.sections)
		if err != nil {
			log.Warn("skipping document", "document", r.status.Document, "error", err)
			r.err = &DocumentError{Document: r.status.Document, Err: fmt.Errorf("%w: %w", ErrOracle, err)}
			r.status.fail(StatusFailed, "ranking", r.err)
			r.sections = nil
			continue
		}
		merged = append(merged, docRanked...)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	return merged
}

// OutlineResult is the outline of one document, or the reason it has none.
type OutlineResult struct {
	Document string
	Outline  doctree.Outline
	Err      error
}

// Outline builds a heading outline for every document. Running headers and
// footers are dropped before scoring.
func (o *Orchestrator) Outline(ctx context.Context, sources []Source) ([]OutlineResult, Report) {
	start := time.Now()
	report := Report{RunID: uuid.NewString()}
	log := o.log.With("run_id", report.RunID)

	results := o.processAll(ctx, sources, log, o.outlineStage)

	out := make([]OutlineResult, len(results))
	report.Documents = make([]DocStatus, len(results))
	for i, r := range results {
		report.Documents[i] = r.status
		out[i] = OutlineResult{Document: r.status.Document, Outline: r.outline, Err: r.err}
	}
	recordDocuments(report.Documents)
	report.Duration = time.Since(start)
	succeeded, failed := report.Counts()
	log.Info("outline batch finished", "succeeded", succeeded, "failed", failed, "duration_ms", report.Duration.Milliseconds())
	return out, report
}

func (o *Orchestrator) outlineStage(doc *doctree.Document, r *docResult, log *slog.Logger) error {
	lines := heading.Profile(doc, heading.ProfileOptions{DropRunningText: true})
	heading.ScoreAll(heading.ScorerFor(lines), lines)
	pct := o.percentile
	if pct <= 0 {
		pct = heading.DefaultPercentile
	}
	candidates := heading.SelectCandidates(lines, pct)
	r.outline = heading.BuildOutline(doc, lines, candidates)
	r.status.Sections = len(r.outline.Outline)
	r.status.Extractor = "outline"
	log.Debug("outline built", "entries", len(r.outline.Outline), "candidates", len(candidates))
	return nil
}
