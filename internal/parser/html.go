package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files as a single page; h1-h6 become heading lines.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &doctree.Document{Name: filename, Title: baseTitle(filename)}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	var b pageBuilder
	walkHTML(root, &b)
	if !b.empty() {
		doc.Pages = []doctree.Page{b.page(1)}
	}
	return doc, nil
}

// walkHTML appends the content of n's <body> (or n itself) to b.
func walkHTML(n *html.Node, b *pageBuilder) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.heading(level, textContent(n))
				return
			}

			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "p", "li", "td", "th", "blockquote", "pre", "dt", "dd":
				b.body(textContent(n))
				return
			}
		}
		if n.Type == html.TextNode && n.Parent != nil && n.Parent.Type == html.ElementNode && n.Parent.Data == "body" {
			b.body(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(n); body != nil {
		walk(body)
	} else {
		walk(n)
	}
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			buf.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
