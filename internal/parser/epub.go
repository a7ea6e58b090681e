package parser

import (
	"fmt"
	"io"
	"os"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
)

// EPUBParser handles EPUB files. Each spine item with text becomes a page.
type EPUBParser struct{}

func (p *EPUBParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	path, _, err := spoolToTemp(r, "docsift-epub-*.epub")
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	rc, err := epub.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open epub: %w", err)
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, fmt.Errorf("no rootfiles found in epub")
	}
	book := rc.Rootfiles[0]

	doc := &doctree.Document{Name: filename, Title: baseTitle(filename)}
	for _, ref := range book.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		item, err := ref.Item.Open()
		if err != nil {
			continue
		}
		root, err := html.Parse(item)
		item.Close()
		if err != nil {
			continue
		}

		var b pageBuilder
		walkHTML(root, &b)
		if b.empty() {
			continue
		}
		doc.Pages = append(doc.Pages, b.page(len(doc.Pages)+1))
	}
	return doc, nil
}
