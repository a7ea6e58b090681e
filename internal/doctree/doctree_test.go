package doctree

import "testing"

func TestNewPage_RejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewPage(n, "text"); err == nil {
			t.Errorf("expected error for page number %d", n)
		}
	}
	p, err := NewPage(3, "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Number != 3 || p.Text != "hello" {
		t.Errorf("unexpected page %+v", p)
	}
}

func TestDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pages   []int
		wantErr bool
	}{
		{"empty", nil, false},
		{"ascending", []int{1, 2, 3}, false},
		{"gap allowed", []int{1, 3}, false},
		{"duplicate", []int{1, 1}, true},
		{"descending", []int{2, 1}, true},
		{"zero", []int{0}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := &Document{Name: "doc.pdf"}
			for _, n := range tc.pages {
				d.Pages = append(d.Pages, Page{Number: n})
			}
			err := d.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err=%v, wantErr=%v", err, tc.wantErr)
			}
		})
	}
}

func TestPosition_Less(t *testing.T) {
	tests := []struct {
		a, b Position
		want bool
	}{
		{Position{1, 0}, Position{1, 1}, true},
		{Position{1, 9}, Position{2, 0}, true},
		{Position{2, 0}, Position{1, 9}, false},
		{Position{1, 1}, Position{1, 1}, false},
	}
	for _, tc := range tests {
		if got := tc.a.Less(tc.b); got != tc.want {
			t.Errorf("%v.Less(%v) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestDocument_Styled(t *testing.T) {
	plain := &Document{Pages: []Page{{Number: 1, Text: "a"}}}
	if plain.Styled() {
		t.Error("expected plain document to be unstyled")
	}
	styled := &Document{Pages: []Page{{Number: 1, Text: "a", Lines: []StyledLine{{Text: "a", FontSize: 12}}}}}
	if !styled.Styled() {
		t.Error("expected styled document")
	}
}
