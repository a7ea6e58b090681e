package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/metrics"
	"github.com/dgallion1/docsift/internal/parser"
)

// docResult is the outcome of processing one source document.
type docResult struct {
	idx      int
	status   DocStatus
	doc      *doctree.Document
	sections []doctree.Section
	outline  doctree.Outline
	err      error
}

// stageFunc runs the mode-specific stage on a parsed document.
type stageFunc func(doc *doctree.Document, r *docResult, log *slog.Logger) error

// processAll runs parse plus stage over sources with at most o.workers in
// flight. Results come back in input order.
func (o *Orchestrator) processAll(ctx context.Context, sources []Source, log *slog.Logger, stage stageFunc) []docResult {
	results := make(chan docResult, len(sources))
	sem := make(chan struct{}, o.workers)

	for i, src := range sources {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			r := docResult{idx: i, status: DocStatus{Document: src.Name}, err: ctx.Err()}
			r.status.fail(StatusFailed, "queued", r.err)
			results <- r
			continue
		}
		go func(i int, src Source) {
			defer func() { <-sem }()
			results <- o.processOne(ctx, i, src, log, stage)
		}(i, src)
	}

	ordered := make([]docResult, len(sources))
	for range sources {
		r := <-results
		ordered[r.idx] = r
	}
	return ordered
}

func (o *Orchestrator) processOne(ctx context.Context, idx int, src Source, log *slog.Logger, stage stageFunc) (r docResult) {
	r = docResult{idx: idx, status: DocStatus{Document: src.Name}}
	r.status.set(StatusQueued, "queued")
	log = log.With("document", src.Name)

	defer func() {
		if p := recover(); p != nil {
			log.Error("document processing panicked", "panic", p)
			r.err = &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: panic: %v", ErrExtraction, p)}
			r.status.fail(StatusFailed, r.status.Phase, r.err)
			r.sections = nil
		}
	}()

	if err := ctx.Err(); err != nil {
		r.err = err
		r.status.fail(StatusFailed, "queued", err)
		return r
	}

	r.status.set(StatusParsing, "parsing")
	doc, err := o.parse(src)
	if err != nil {
		status := StatusFailed
		if errors.Is(err, ErrMissingInput) {
			status = StatusMissing
		}
		log.Warn("skipping document", "error", err)
		r.err = err
		r.status.fail(status, "parsing", err)
		return r
	}
	r.doc = doc
	r.status.Pages = len(doc.Pages)
	r.status.ContentHash = ContentHashHex([]byte(documentText(doc)))

	r.status.set(StatusSegmenting, "segmenting")
	if err := stage(doc, &r, log); err != nil {
		log.Warn("skipping document", "error", err)
		r.err = &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: %w", ErrExtraction, err)}
		r.status.fail(StatusFailed, "segmenting", r.err)
		r.sections = nil
		return r
	}
	r.status.set(StatusCompleted, "done")
	log.Info("document processed", "pages", r.status.Pages, "sections", r.status.Sections, "extractor", r.status.Extractor)
	return r
}

// parse reads and extracts one source.
func (o *Orchestrator) parse(src Source) (*doctree.Document, error) {
	p, err := parser.ForFile(src.Name, o.parserOpts)
	if err != nil {
		return nil, &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: %w", ErrExtraction, err)}
	}

	data := src.Data
	if data == nil {
		data, err = os.ReadFile(src.Path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: %s", ErrMissingInput, src.Path)}
		}
		if err != nil {
			return nil, &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: %w", ErrExtraction, err)}
		}
	}

	doc, err := p.Parse(bytes.NewReader(data), src.Name)
	if err != nil {
		return nil, &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: %w", ErrExtraction, err)}
	}
	doc.Name = src.Name
	if err := doc.Validate(); err != nil {
		return nil, &DocumentError{Document: src.Name, Err: fmt.Errorf("%w: %w", ErrExtraction, err)}
	}
	return doc, nil
}

// documentText joins page text for content hashing.
func documentText(doc *doctree.Document) string {
	var sb strings.Builder
	for _, p := range doc.Pages {
		if sb.Len() > 0 {
			sb.WriteString("\f")
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// markDuplicates skips documents whose text matches an earlier input.
func markDuplicates(results []docResult, log *slog.Logger) {
	seen := make(map[string]string)
	for i := range results {
		r := &results[i]
		if r.status.Status != StatusCompleted || r.status.ContentHash == "" {
			continue
		}
		if first, ok := seen[r.status.ContentHash]; ok {
			log.Info("duplicate document, skipping", "document", r.status.Document, "duplicate_of", first)
			r.status.set(StatusDupSkipped, "dedup")
			r.sections = nil
			continue
		}
		seen[r.status.ContentHash] = r.status.Document
	}
}

func recordDocuments(statuses []DocStatus) {
	for _, s := range statuses {
		metrics.DocumentsTotal.WithLabelValues(string(s.Status)).Inc()
	}
}
