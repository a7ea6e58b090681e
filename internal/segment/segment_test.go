package segment

import (
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/heading"
)

func lineAt(page, idx int, text string) doctree.Line {
	return doctree.Line{Text: text, Page: page, Index: idx}
}

func TestSegment_ContiguousAndDisjoint(t *testing.T) {
	lines := []doctree.Line{
		lineAt(1, 0, "preamble"),
		lineAt(1, 1, "Intro"),
		lineAt(1, 2, "intro body"),
		lineAt(2, 0, "more intro"),
		lineAt(2, 1, "Methods"),
		lineAt(2, 2, "methods body"),
		lineAt(3, 0, "Results"),
		lineAt(3, 1, "results body"),
	}
	heads := []doctree.Line{lines[6], lines[1], lines[4]} // deliberately unsorted

	got := Segment("doc.pdf", lines, heads)
	if len(got) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(got))
	}

	want := []struct {
		title, content string
		page           int
	}{
		{"Intro", "intro body more intro", 1},
		{"Methods", "methods body", 2},
		{"Results", "results body", 3},
	}
	for i, w := range want {
		s := got[i]
		if s.Title != w.title || s.Content != w.content || s.Page != w.page || s.Document != "doc.pdf" {
			t.Errorf("section %d = %+v, want %+v", i, s, w)
		}
	}

	for i := 1; i < len(got); i++ {
		if got[i].Start.Less(got[i-1].End) {
			t.Fatalf("section %d starts before section %d ends", i, i-1)
		}
		if got[i-1].End != got[i].Start {
			t.Fatalf("section %d end %+v != next start %+v", i-1, got[i-1].End, got[i].Start)
		}
	}
	if got[2].End != (doctree.Position{}) {
		t.Fatalf("last section should run to end of document, got %+v", got[2].End)
	}
	for _, s := range got {
		if strings.Contains(s.Content, "preamble") {
			t.Fatal("pre-heading text must be discarded")
		}
	}
}

func TestSegment_NoHeadingsFallsBackToFullDocument(t *testing.T) {
	lines := []doctree.Line{lineAt(1, 0, "just"), lineAt(1, 1, "text"), lineAt(2, 0, "here")}
	got := Segment("plain.txt", lines, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 section, got %d", len(got))
	}
	if got[0].Title != doctree.FullDocumentTitle || got[0].Page != 1 || got[0].Content != "just text here" {
		t.Fatalf("unexpected fallback section: %+v", got[0])
	}
}

func TestHeadingExtractor_NoPositiveScores(t *testing.T) {
	doc := &doctree.Document{Name: "lower.txt", Pages: []doctree.Page{
		{Number: 1, Text: "all lower case body text.\nanother body line, with commas."},
	}}
	sections, err := HeadingExtractor{}.Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 1 || sections[0].Title != doctree.FullDocumentTitle {
		t.Fatalf("expected Full Document fallback, got %+v", sections)
	}
}

func TestHeadingExtractor_FindsHeadings(t *testing.T) {
	doc := &doctree.Document{Name: "guide.txt", Pages: []doctree.Page{
		{Number: 1, Text: "the opening line is body text.\nA. Travel Tips\npack light for the trip.\nkeep copies of documents."},
		{Number: 2, Text: "B. Local Food\ntry the markets in the old town.\nbook dinners early."},
	}}
	sections, err := HeadingExtractor{}.Extract(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %+v", sections)
	}
	if sections[0].Title != "A. Travel Tips" || sections[1].Title != "B. Local Food" || sections[1].Page != 2 {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}

func recipeDoc(recipes ...string) *doctree.Document {
	var b strings.Builder
	b.WriteString("A Collection Of Dishes\n")
	for _, r := range recipes {
		b.WriteString(r + "\nIngredients:\n- 1 cup chickpeas\nInstructions:\n- mix well and serve.\n")
	}
	return &doctree.Document{Name: "dinner.pdf", Pages: []doctree.Page{{Number: 1, Text: b.String()}}}
}

func TestMarkerExtractor(t *testing.T) {
	sections, err := MarkerExtractor{}.Extract(recipeDoc("Chickpea Salad", "Lentil Soup"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 2 || sections[0].Title != "Chickpea Salad" || sections[1].Title != "Lentil Soup" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
	if !strings.HasPrefix(sections[0].Content, "Ingredients:") {
		t.Fatalf("content should start at the marker, got %q", sections[0].Content)
	}

	shouted := &doctree.Document{Pages: []doctree.Page{{Number: 1, Text: "Chickpea Salad\nINGREDIENTS:\nchickpeas\nLentil Soup\ningredients:\nlentils"}}}
	if got, _ := MarkerExtractor{}.Extract(shouted); len(got) != 0 {
		t.Fatalf("marker match must be exact, got %+v", got)
	}

	none, _ := MarkerExtractor{}.Extract(&doctree.Document{Pages: []doctree.Page{{Number: 1, Text: "Intro\nbody"}}})
	if len(none) != 0 {
		t.Fatalf("expected no sections without the marker, got %+v", none)
	}
}

func TestChain_MarkerTakesPrecedence(t *testing.T) {
	chain := NewChain("", 0, 0, nil)
	name, sections, err := chain.Select(recipeDoc("Chickpea Salad", "Lentil Soup"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "marker" || len(sections) != 2 {
		t.Fatalf("expected marker extractor with 2 sections, got %s with %d", name, len(sections))
	}
}

func TestChain_FallsBackBelowMinSections(t *testing.T) {
	chain := NewChain("", 0, 0, nil)
	name, _, err := chain.Select(recipeDoc("Chickpea Salad"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "heading" {
		t.Fatalf("expected heading fallback, got %s", name)
	}
}

type failingExtractor struct{}

func (failingExtractor) Name() string { return "failing" }
func (failingExtractor) Extract(*doctree.Document) ([]doctree.Section, error) {
	return nil, errors.New("boom")
}

func TestChain_SkipsFailingExtractor(t *testing.T) {
	chain := &Chain{Extractors: []Extractor{failingExtractor{}, HeadingExtractor{Scorer: heading.LexicalScorer{}}}}
	name, sections, err := chain.Select(recipeDoc("Chickpea Salad"))
	if err != nil || name != "heading" || len(sections) == 0 {
		t.Fatalf("expected heading fallback, got %q %d %v", name, len(sections), err)
	}

	final := &Chain{Extractors: []Extractor{failingExtractor{}}}
	if _, _, err := final.Select(recipeDoc()); err == nil {
		t.Fatal("expected error from failing final extractor")
	}
}
