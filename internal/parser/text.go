package parser

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docsift/internal/doctree"
)

// TextParser handles plain text files. Form feeds separate pages.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("text file is not valid UTF-8")
	}

	doc := &doctree.Document{Name: filename, Title: baseTitle(filename)}
	for i, page := range splitPages(string(data)) {
		doc.Pages = append(doc.Pages, doctree.Page{Number: i + 1, Text: page})
	}
	return doc, nil
}

// splitPages splits on form feeds, dropping one trailing empty page.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
