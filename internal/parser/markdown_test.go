package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Title" {
		t.Errorf("expected title %q, got %q", "Title", doc.Title)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	want := []struct {
		text string
		size float64
		bold bool
	}{
		{"Title", 24, true},
		{"Intro text.", 11, false},
		{"Section A", 22, true},
		{"Section A content.", 11, false},
		{"Subsection A1", 20, true},
		{"Subsection A1 content.", 11, false},
		{"Section B", 22, true},
		{"Section B content.", 11, false},
	}
	lines := doc.Pages[0].Lines
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %+v", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i].Text != w.text || lines[i].FontSize != w.size || lines[i].Bold != w.bold {
			t.Errorf("line[%d]: expected %+v, got %+v", i, w, lines[i])
		}
	}
	if !doc.Styled() {
		t.Error("markdown documents should be styled")
	}
}

func TestMarkdownParser_NoH1KeepsFilenameTitle(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader("## Only H2\n\nBody."), "guide.md")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "guide" {
		t.Errorf("expected title %q, got %q", "guide", doc.Title)
	}
}

func TestMarkdownParser_ListsAndCode(t *testing.T) {
	input := "## Steps\n\n- first item\n- second item\n\n```\ngo build\n```\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "steps.md")
	if err != nil {
		t.Fatal(err)
	}
	text := doc.Pages[0].Text
	for _, want := range []string{"Steps", "first item", "second item", "go build"} {
		if !strings.Contains(text, want) {
			t.Errorf("page text missing %q:\n%s", want, text)
		}
	}
	if strings.Count(text, "first item") != 1 {
		t.Errorf("list text duplicated:\n%s", text)
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected no pages, got %d", len(doc.Pages))
	}
}
