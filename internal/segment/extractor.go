package segment

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/heading"
)

// Defaults for the extractor chain.
const (
	DefaultMarker      = "Ingredients:"
	DefaultMinSections = 2
)

// Extractor produces sections for one document.
type Extractor interface {
	Name() string
	Extract(doc *doctree.Document) ([]doctree.Section, error)
}

var markerTitleRe = regexp.MustCompile(`^[A-Z][a-z]+( [A-Z][a-z]+)*$`)

// MarkerExtractor splits on title-cased lines immediately followed by a
// fixed marker line, as in recipe collections ("Chickpea Salad" then
// "Ingredients:"). It returns no sections when the pattern never occurs.
type MarkerExtractor struct {
	Marker string
}

func (m MarkerExtractor) Name() string { return "marker" }

func (m MarkerExtractor) Extract(doc *doctree.Document) ([]doctree.Section, error) {
	marker := m.Marker
	if marker == "" {
		marker = DefaultMarker
	}

	lines := heading.Profile(doc, heading.ProfileOptions{})
	var titles []doctree.Line
	for i := 0; i+1 < len(lines); i++ {
		if markerTitleRe.MatchString(lines[i].Text) && strings.TrimSpace(lines[i+1].Text) == marker {
			titles = append(titles, lines[i])
		}
	}
	if len(titles) == 0 {
		return nil, nil
	}
	return Segment(doc.Name, lines, titles), nil
}

// HeadingExtractor segments on lines whose heading score clears the
// document's percentile threshold.
type HeadingExtractor struct {
	Percentile float64
	// Scorer overrides the automatic lexical/font choice when set.
	Scorer  heading.Scorer
	Options heading.ProfileOptions
}

func (h HeadingExtractor) Name() string { return "heading" }

func (h HeadingExtractor) Extract(doc *doctree.Document) ([]doctree.Section, error) {
	lines := heading.Profile(doc, h.Options)
	scorer := h.Scorer
	if scorer == nil {
		scorer = heading.ScorerFor(lines)
	}
	heading.ScoreAll(scorer, lines)

	pct := h.Percentile
	if pct <= 0 {
		pct = heading.DefaultPercentile
	}
	return Segment(doc.Name, lines, heading.SelectCandidates(lines, pct)), nil
}

// Chain tries extractors in priority order. A non-final extractor wins only
// when it yields at least MinSections sections; the final one always wins.
type Chain struct {
	Extractors  []Extractor
	MinSections int
	Log         *slog.Logger
}

// NewChain builds the default chain: marker pattern first, heading
// heuristic as fallback.
func NewChain(marker string, minSections int, percentile float64, log *slog.Logger) *Chain {
	return &Chain{
		Extractors: []Extractor{
			MarkerExtractor{Marker: marker},
			HeadingExtractor{Percentile: percentile},
		},
		MinSections: minSections,
		Log:         log,
	}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Extract(doc *doctree.Document) ([]doctree.Section, error) {
	_, sections, err := c.Select(doc)
	return sections, err
}

// Select returns the winning extractor's name alongside its sections.
func (c *Chain) Select(doc *doctree.Document) (string, []doctree.Section, error) {
	if len(c.Extractors) == 0 {
		return "", nil, fmt.Errorf("extractor chain is empty")
	}
	min := c.MinSections
	if min <= 0 {
		min = DefaultMinSections
	}
	log := c.Log
	if log == nil {
		log = slog.Default()
	}

	for i, ex := range c.Extractors {
		sections, err := ex.Extract(doc)
		final := i == len(c.Extractors)-1
		if err != nil {
			if final {
				return "", nil, fmt.Errorf("%s extractor: %w", ex.Name(), err)
			}
			log.Warn("extractor failed, falling back", "extractor", ex.Name(), "document", doc.Name, "error", err)
			continue
		}
		if final || len(sections) >= min {
			log.Debug("sections extracted", "extractor", ex.Name(), "document", doc.Name, "sections", len(sections))
			return ex.Name(), sections, nil
		}
	}
	return "", nil, fmt.Errorf("no extractor produced sections")
}
