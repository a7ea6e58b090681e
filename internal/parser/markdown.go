package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. ATX and setext
// headings become large bold lines on a single page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &doctree.Document{Name: filename, Title: baseTitle(filename)}
	var b pageBuilder
	titled := false

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			title := extractText(node, src)
			if node.Level == 1 && !titled && title != "" {
				doc.Title = title
				titled = true
			}
			b.heading(node.Level, title)
		case *ast.ThematicBreak:
		default:
			b.body(extractText(n, src))
		}
	}

	if !b.empty() {
		doc.Pages = []doctree.Page{b.page(1)}
	}
	return doc, nil
}

// extractText gets the text content of a goldmark AST node, keeping line
// breaks between block lines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		child := extractText(c, src)
		if child == "" {
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(child)
	}
	return strings.TrimSpace(buf.String())
}
