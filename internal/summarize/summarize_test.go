package summarize

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

// mapEncoder returns a fixed vector per known text and {0, 1} otherwise.
type mapEncoder struct {
	vecs  map[string][]float32
	calls int
}

func (m *mapEncoder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := m.vecs[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

type failEncoder struct{}

func (failEncoder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("encoder down")
}

func TestSplitSentences(t *testing.T) {
	got := SplitSentences("First one. Second one!  Third? Trailing text without stop")
	want := []string{"First one.", "Second one!", "Third?", "Trailing text without stop"}
	if !slices.Equal(got, want) {
		t.Fatalf("SplitSentences = %q, want %q", got, want)
	}
	if got := SplitSentences("Version 1.2 is out. Next"); len(got) != 2 {
		t.Fatalf("decimal point must not split: %q", got)
	}
}

func TestClean(t *testing.T) {
	got := Clean("• Item one\n\n  Item\ttwo ")
	if got != "Item one Item two" {
		t.Fatalf("Clean = %q", got)
	}
}

func TestSummarize_PreservesOriginalOrder(t *testing.T) {
	s0 := "The vegan dessert uses dates and cocoa."
	s1 := "Parking is available behind the hall."
	s2 := "Serve the vegan dessert chilled with berries."
	s3 := "The venue opens at nine every morning."
	s4 := "A vegan dessert platter suits every buffet."
	enc := &mapEncoder{vecs: map[string][]float32{
		s4: {1, 0},     // most similar
		s2: {0.9, 0.1}, // second
		s0: {0.7, 0.3}, // third
	}}

	sum := &Summarizer{Encoder: enc}
	got, err := sum.Summarize(context.Background(), strings.Join([]string{s0, s1, s2, s3, s4}, " "), []float32{1, 0})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	want := s0 + " " + s2 + " " + s4
	if got != want {
		t.Fatalf("Summarize = %q, want %q", got, want)
	}
	if enc.calls != 1 {
		t.Fatalf("expected one batched encoder call, got %d", enc.calls)
	}
}

func TestSummarize_DropsShortSentences(t *testing.T) {
	enc := &mapEncoder{}
	sum := &Summarizer{Encoder: enc}
	got, err := sum.Summarize(context.Background(), "Too short. This sentence has enough words in it. Ok!", []float32{1, 0})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "This sentence has enough words in it." {
		t.Fatalf("unexpected summary %q", got)
	}
	if enc.calls != 0 {
		t.Fatal("no encoder call needed when few sentences survive")
	}
}

func TestSummarize_FallsBackToCleanedContent(t *testing.T) {
	sum := &Summarizer{Encoder: failEncoder{}}
	got, err := sum.Summarize(context.Background(), "• Salt.\n• Pepper.", []float32{1, 0})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "Salt. Pepper." {
		t.Fatalf("expected cleaned content, got %q", got)
	}
}

func TestSummarize_EncoderError(t *testing.T) {
	sum := &Summarizer{Encoder: failEncoder{}, TopK: 1}
	_, err := sum.Summarize(context.Background(), "One two three four five. Six seven eight nine ten.", []float32{1, 0})
	if err == nil {
		t.Fatal("expected encoder error")
	}
}
