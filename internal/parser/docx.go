package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files as a single page. Paragraphs styled
// HeadingN, or Title, become heading lines.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReaderAt+size, so spool to a temp file.
	path, size, err := spoolToTemp(r, "docsift-docx-*.docx")
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open temp file: %w", err)
	}
	defer f.Close()

	parsed, err := docx.Parse(f, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &doctree.Document{Name: filename, Title: baseTitle(filename)}
	var b pageBuilder
	for _, item := range parsed.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		level := docxHeadingLevel(para)
		switch {
		case level < 0:
			doc.Title = text
			b.heading(1, text)
		case level > 0:
			b.heading(level, text)
		case docxParagraphBold(para):
			b.lines = append(b.lines, doctree.StyledLine{Text: text, FontSize: bodyFontSize, Bold: true})
		default:
			b.body(text)
		}
	}

	if !b.empty() {
		doc.Pages = []doctree.Page{b.page(1)}
	}
	return doc, nil
}

// docxHeadingLevel returns 1-6 for heading styles, -1 for the Title style
// and 0 otherwise.
func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return -1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	return 0
}

// docxParagraphBold reports whether every text run in the paragraph is bold.
func docxParagraphBold(para *docx.Paragraph) bool {
	runs := 0
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		runs++
		if run.RunProperties == nil || run.RunProperties.Bold == nil {
			return false
		}
	}
	return runs > 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
