// Package heading infers a document's latent heading structure from
// line-level signals: shape, capitalization, numbering and, when the
// extractor provides it, font prominence.
package heading

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// Running header/footer detection tunables.
const (
	runningTextFraction = 0.5  // text seen on at least this share of pages
	runningTextBand     = 0.07 // top/bottom share of page height treated as header/footer
)

// ProfileOptions controls line profiling.
type ProfileOptions struct {
	// DropRunningText removes lines repeated across many pages in the
	// header/footer bands (page numbers, running titles).
	DropRunningText bool
}

// Profile converts a document's pages into ordered, non-empty line
// observations. Font-annotated lines are used when a page carries them.
// Index is the line's position within its page, blank lines included.
func Profile(doc *doctree.Document, opts ProfileOptions) []doctree.Line {
	var lines []doctree.Line
	for _, p := range doc.Pages {
		if len(p.Lines) > 0 {
			for i, sl := range p.Lines {
				text := strings.TrimSpace(sl.Text)
				if text == "" {
					continue
				}
				lines = append(lines, doctree.Line{
					Text:     text,
					Page:     p.Number,
					Index:    i,
					FontSize: sl.FontSize,
					Bold:     sl.Bold,
					Styled:   true,
					BBox:     sl.BBox,
				})
			}
			continue
		}
		for i, raw := range SplitLines(p.Text) {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			lines = append(lines, doctree.Line{Text: text, Page: p.Number, Index: i})
		}
	}

	if opts.DropRunningText {
		lines = dropRunningText(lines, len(doc.Pages))
	}
	return lines
}

// SplitLines splits page text on newlines, normalising CR/LF.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n")
}

var (
	wsRe     = regexp.MustCompile(`\s+`)
	digitsRe = regexp.MustCompile(`\d+`)
)

func normalizeRunning(t string) string {
	t = strings.TrimSpace(t)
	t = digitsRe.ReplaceAllString(t, "#")
	t = wsRe.ReplaceAllString(t, " ")
	return strings.ToLower(t)
}

func dropRunningText(lines []doctree.Line, pageCount int) []doctree.Line {
	if pageCount < 2 || len(lines) == 0 {
		return lines
	}

	heights := make(map[int]float64)
	for _, l := range lines {
		if l.BBox[3] > heights[l.Page] {
			heights[l.Page] = l.BBox[3]
		}
	}

	pages := make(map[string]map[int]bool)
	inBand := make(map[string]bool)
	for _, l := range lines {
		key := normalizeRunning(l.Text)
		if pages[key] == nil {
			pages[key] = make(map[int]bool)
			inBand[key] = true
		}
		pages[key][l.Page] = true

		h := heights[l.Page]
		if h <= 0 || l.BBox == [4]float64{} {
			continue
		}
		mid := (l.BBox[1] + l.BBox[3]) / 2
		if mid > h*runningTextBand && mid < h*(1-runningTextBand) {
			inBand[key] = false
		}
	}

	drop := make(map[string]bool)
	for key, seen := range pages {
		if float64(len(seen))/float64(pageCount) >= runningTextFraction && inBand[key] {
			drop[key] = true
		}
	}
	if len(drop) == 0 {
		return lines
	}

	kept := lines[:0:0]
	for _, l := range lines {
		if !drop[normalizeRunning(l.Text)] {
			kept = append(kept, l)
		}
	}
	return kept
}
