// Package segment turns a document's profiled lines into contiguous,
// non-overlapping sections.
package segment

import (
	"sort"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
)

// Segment attributes every line strictly between consecutive headings to
// the earlier heading. Text before the first heading is discarded. With no
// headings the whole document becomes one "Full Document" section on page 1.
func Segment(docName string, lines, headings []doctree.Line) []doctree.Section {
	if len(headings) == 0 {
		return []doctree.Section{fullDocument(docName, lines)}
	}

	heads := make([]doctree.Line, len(headings))
	copy(heads, headings)
	sort.SliceStable(heads, func(i, j int) bool { return heads[i].Pos().Less(heads[j].Pos()) })

	sections := make([]doctree.Section, 0, len(heads))
	li := 0
	for hi, h := range heads {
		start := h.Pos()
		var end doctree.Position
		last := hi == len(heads)-1
		if !last {
			end = heads[hi+1].Pos()
		}

		for li < len(lines) && !start.Less(lines[li].Pos()) {
			li++
		}
		var body []string
		for li < len(lines) && (last || lines[li].Pos().Less(end)) {
			body = append(body, lines[li].Text)
			li++
		}

		sections = append(sections, doctree.Section{
			Document: docName,
			Title:    h.Text,
			Content:  strings.Join(body, " "),
			Page:     h.Page,
			Start:    start,
			End:      end,
		})
	}
	return sections
}

func fullDocument(docName string, lines []doctree.Line) doctree.Section {
	texts := make([]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
	}
	s := doctree.Section{
		Document: docName,
		Title:    doctree.FullDocumentTitle,
		Content:  strings.Join(texts, " "),
		Page:     1,
	}
	if len(lines) > 0 {
		s.Start = lines[0].Pos()
	}
	return s
}
