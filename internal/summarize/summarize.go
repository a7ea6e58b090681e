// Package summarize builds extractive, order-preserving summaries.
package summarize

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/dgallion1/docsift/internal/oracle"
)

const (
	DefaultTopK     = 3
	DefaultMinWords = 5
)

var (
	bulletGlyphs = strings.NewReplacer("\u2022", "", "\uf0b7", "", "\uf06f", "")
	spaceRe      = regexp.MustCompile(`\s+`)
)

// Clean strips bullet glyphs and collapses whitespace.
func Clean(text string) string {
	text = bulletGlyphs.Replace(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// SplitSentences splits after '.', '!' or '?' when followed by whitespace.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && isSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}

// Summarizer selects the sentences most similar to the query.
type Summarizer struct {
	Encoder  oracle.Encoder
	TopK     int
	MinWords int
}

// Summarize returns up to TopK sentences of content, in their original
// order. With no substantive sentence it returns the cleaned content.
func (s *Summarizer) Summarize(ctx context.Context, content string, queryVec []float32) (string, error) {
	topK := s.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	minWords := s.MinWords
	if minWords <= 0 {
		minWords = DefaultMinWords
	}

	cleaned := Clean(content)
	var sentences []string
	for _, sent := range SplitSentences(cleaned) {
		if len(strings.Fields(sent)) >= minWords {
			sentences = append(sentences, sent)
		}
	}
	if len(sentences) == 0 {
		return cleaned, nil
	}
	if len(sentences) <= topK {
		return strings.Join(sentences, " "), nil
	}

	vecs, err := s.Encoder.Embed(ctx, sentences)
	if err != nil {
		return "", fmt.Errorf("embed sentences: %w", err)
	}
	if len(vecs) != len(sentences) {
		return "", fmt.Errorf("got %d vectors for %d sentences: %w", len(vecs), len(sentences), oracle.ErrEncoder)
	}

	order := make([]int, len(sentences))
	sims := make([]float64, len(sentences))
	for i := range sentences {
		order[i] = i
		sims[i] = oracle.Cosine(queryVec, vecs[i])
	}
	sort.SliceStable(order, func(a, b int) bool { return sims[order[a]] > sims[order[b]] })

	picked := slices.Clone(order[:topK])
	slices.Sort(picked)

	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}
