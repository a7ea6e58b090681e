package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. Pages are rebuilt from positioned glyphs so
// each line keeps its font size and weight; pages without glyph data fall
// back to plain text, and the whole file falls back to pdftotext when the
// library fails and the fallback is enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf opens by path, so spool to a temp file.
	path, _, err := spoolToTemp(r, "docsift-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	doc := &doctree.Document{Name: filename, Title: baseTitle(filename)}

	pages, err := extractPDFPages(path)
	if (err != nil || len(pages) == 0) && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(path)
		if err == nil {
			pages = nil
			for i, page := range splitPages(text) {
				pages = append(pages, doctree.Page{Number: i + 1, Text: page})
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	doc.Pages = pages
	return doc, nil
}

func extractPDFPages(path string) (pages []doctree.Page, err error) {
	// The library panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf library panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		if lines := styledRows(page.Content().Text); len(lines) > 0 {
			texts := make([]string, len(lines))
			for j, l := range lines {
				texts[j] = l.Text
			}
			pages = append(pages, doctree.Page{Number: i, Text: strings.Join(texts, "\n"), Lines: lines})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages = append(pages, doctree.Page{Number: i, Text: text})
	}
	return pages, nil
}

// styledRows groups positioned glyphs into lines by baseline, top of the
// page first, and reads each line left to right.
func styledRows(glyphs []pdflib.Text) []doctree.StyledLine {
	rows := make(map[int64][]pdflib.Text)
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		y := int64(math.Round(g.Y))
		rows[y] = append(rows[y], g)
	}

	keys := make([]int64, 0, len(rows))
	for y := range rows {
		keys = append(keys, y)
	}
	// PDF y grows upward.
	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	var lines []doctree.StyledLine
	for _, y := range keys {
		row := rows[y]
		sort.SliceStable(row, func(i, j int) bool { return row[i].X < row[j].X })

		var buf strings.Builder
		var size float64
		bold := true
		minX, maxX := row[0].X, row[0].X
		prevEnd := row[0].X
		for k, g := range row {
			gap := g.X - prevEnd
			if k > 0 && gap > 0.2*math.Max(g.FontSize, 1) && !strings.HasSuffix(buf.String(), " ") {
				buf.WriteByte(' ')
			}
			buf.WriteString(g.S)
			prevEnd = g.X + g.W
			if g.FontSize > size {
				size = g.FontSize
			}
			if strings.TrimSpace(g.S) != "" && !isBoldFont(g.Font) {
				bold = false
			}
			minX = math.Min(minX, g.X)
			maxX = math.Max(maxX, g.X+g.W)
		}

		text := strings.Join(strings.Fields(buf.String()), " ")
		if text == "" {
			continue
		}
		lines = append(lines, doctree.StyledLine{
			Text:     text,
			FontSize: size,
			Bold:     bold,
			BBox:     [4]float64{minX, float64(y), maxX, float64(y) + size},
		})
	}
	return lines
}

func isBoldFont(font string) bool {
	f := strings.ToLower(font)
	return strings.Contains(f, "bold") || strings.Contains(f, "black") || strings.Contains(f, "heavy")
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
