package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// Parser converts raw document bytes into page-ordered text.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this tool can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".epub":     true,
}

// Options tunes parser construction.
type Options struct {
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".epub":
		return &EPUBParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// baseTitle strips the directory and extension from a filename.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// spoolToTemp copies r into a temp file for libraries that need a path or
// ReaderAt. The caller removes the returned path.
func spoolToTemp(r io.Reader, pattern string) (string, int64, error) {
	tmp, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", 0, fmt.Errorf("write temp file: %w", err)
	}
	return tmp.Name(), size, nil
}

// Font sizes assigned to markup formats so structural headings reach the
// font-aware scorer.
const bodyFontSize = 11

func headingFontSize(level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return float64(24 - 2*(level-1))
}

// pageBuilder accumulates styled lines for one page of a markup document.
type pageBuilder struct {
	lines []doctree.StyledLine
}

func (b *pageBuilder) heading(level int, text string) {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return
	}
	b.lines = append(b.lines, doctree.StyledLine{Text: text, FontSize: headingFontSize(level), Bold: true})
}

func (b *pageBuilder) body(text string) {
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		b.lines = append(b.lines, doctree.StyledLine{Text: l, FontSize: bodyFontSize})
	}
}

func (b *pageBuilder) empty() bool { return len(b.lines) == 0 }

func (b *pageBuilder) page(number int) doctree.Page {
	texts := make([]string, len(b.lines))
	for i, l := range b.lines {
		texts[i] = l.Text
	}
	return doctree.Page{Number: number, Text: strings.Join(texts, "\n"), Lines: b.lines}
}
