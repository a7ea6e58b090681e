package doctree

import (
	"fmt"
)

// FullDocumentTitle names the single section produced when no heading structure is found.
const FullDocumentTitle = "Full Document"

// Document is the extracted, page-ordered text of one input file.
type Document struct {
	Name  string // File name as given in the batch (used as the "document" field in output)
	Title string // Title from metadata or filename
	Pages []Page
}

// Page is the raw text of one physical page.
type Page struct {
	Number int          // 1-based page number
	Text   string       // Raw page text, lines separated by '\n'
	Lines  []StyledLine // Optional font-annotated lines; when present they replace Text for profiling
}

// StyledLine is a line record carrying font metadata from the extractor.
type StyledLine struct {
	Text     string
	FontSize float64
	Bold     bool
	BBox     [4]float64 // x0, y0, x1, y1; zero when unknown
}

// NewPage validates and builds a plain-text page.
func NewPage(number int, text string) (Page, error) {
	if number < 1 {
		return Page{}, fmt.Errorf("page number must be positive, got %d", number)
	}
	return Page{Number: number, Text: text}, nil
}

// Validate checks that pages are numbered from 1 in strictly ascending order.
func (d *Document) Validate() error {
	prev := 0
	for _, p := range d.Pages {
		if p.Number < 1 {
			return fmt.Errorf("document %q: page number must be positive, got %d", d.Name, p.Number)
		}
		if p.Number <= prev {
			return fmt.Errorf("document %q: page %d out of order after page %d", d.Name, p.Number, prev)
		}
		prev = p.Number
	}
	return nil
}

// Styled reports whether every page carries font-annotated lines.
func (d *Document) Styled() bool {
	if len(d.Pages) == 0 {
		return false
	}
	for _, p := range d.Pages {
		if len(p.Lines) == 0 && p.Text != "" {
			return false
		}
	}
	return true
}

// Position addresses one line in reading order.
type Position struct {
	Page int
	Line int
}

// Less orders positions lexicographically by (page, line).
func (p Position) Less(o Position) bool {
	if p.Page != o.Page {
		return p.Page < o.Page
	}
	return p.Line < o.Line
}

// Line is one non-empty line observation with its heading score.
type Line struct {
	Text     string
	Page     int
	Index    int // order within the page
	Score    int
	FontSize float64
	Bold     bool
	Styled   bool // FontSize/Bold are meaningful
	BBox     [4]float64
}

// Pos returns the line's document position.
func (l Line) Pos() Position {
	return Position{Page: l.Page, Line: l.Index}
}

// Section is a contiguous content span attributed to one heading.
type Section struct {
	Document string
	Title    string
	Content  string
	Page     int
	Start    Position // heading line (inclusive)
	End      Position // next heading line (exclusive); zero value means end of document
	Score    float64  // assigned once by the ranker
}

// OutlineEntry is one heading in an outline-mode result.
type OutlineEntry struct {
	Level string `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Outline is the per-document result of outline mode.
type Outline struct {
	Title   string         `json:"title"`
	Outline []OutlineEntry `json:"outline"`
}
