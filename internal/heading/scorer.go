package heading

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/stats"
)

// Scorer assigns a non-negative heading potential to lines[i]. Scorers may
// look at neighbouring lines; the result depends only on the input slice.
type Scorer interface {
	Score(lines []doctree.Line, i int) int
}

// ScoreAll fills in Score for every line.
func ScoreAll(s Scorer, lines []doctree.Line) {
	for i := range lines {
		lines[i].Score = s.Score(lines, i)
	}
}

// ScorerFor picks the font-aware scorer when every line carries style
// metadata, and the lexical scorer otherwise.
func ScorerFor(lines []doctree.Line) Scorer {
	if len(lines) == 0 {
		return LexicalScorer{}
	}
	for _, l := range lines {
		if !l.Styled || l.FontSize <= 0 {
			return LexicalScorer{}
		}
	}
	return NewFontScorer(lines)
}

// LexicalScorer scores lines from their shape alone.
type LexicalScorer struct{}

func (LexicalScorer) Score(lines []doctree.Line, i int) int {
	return ScoreLine(lines[i].Text)
}

var enumerationRe = regexp.MustCompile(`^([IVXLCDM]+\.|[A-Z]\.)`)

// ScoreLine scores a single line. Body-text signals return 0; otherwise
// independent cues are summed.
func ScoreLine(line string) int {
	s := strings.TrimSpace(line)
	words := strings.Fields(s)
	if s == "" || len(words) > 10 {
		return 0
	}
	if strings.HasSuffix(s, ".") || strings.HasSuffix(s, ",") || strings.HasSuffix(s, ":") || strings.HasSuffix(s, ";") {
		return 0
	}
	if strings.Contains(s, ",") || startsLower(words[0]) {
		return 0
	}

	score := 0
	if len(words) >= 1 && len(words) <= 5 {
		score += 2
	}
	if isTitle(s) {
		score += 3
	}
	if isUpper(s) && len(words) > 1 {
		score += 4
	}
	if enumerationRe.MatchString(s) {
		score += 5
	}
	return score
}

func startsLower(word string) bool {
	for _, r := range word {
		return unicode.IsLower(r)
	}
	return false
}

// isTitle reports whether every word is capitalized: upper-case letters only
// follow uncased characters and lower-case letters only follow cased ones.
func isTitle(s string) bool {
	cased, prevCased := false, false
	for _, r := range s {
		switch {
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			if prevCased {
				return false
			}
			prevCased, cased = true, true
		case unicode.IsLower(r):
			if !prevCased {
				return false
			}
			prevCased, cased = true, true
		default:
			prevCased = false
		}
	}
	return cased
}

// isUpper reports whether s has at least one cased letter and none lower-case.
func isUpper(s string) bool {
	upper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			upper = true
		}
	}
	return upper
}

// Font scorer tunables.
const (
	fontProminencePct = 85
	fontMaxWords      = 20
	fontColonWords    = 28
	fontMaxChars      = 150
)

var numberedRe = regexp.MustCompile(`^\d+(\.\d+)*\.?\s+\S`)

// FontScorer rewards size and boldness contrast against the immediate
// neighbours, plus document-wide font prominence and a few lexical cues.
type FontScorer struct {
	prominent float64 // font size at the prominence percentile
	smallest  float64
}

// NewFontScorer computes the document's font-size distribution.
func NewFontScorer(lines []doctree.Line) *FontScorer {
	sizes := make([]float64, 0, len(lines))
	for _, l := range lines {
		if l.FontSize > 0 {
			sizes = append(sizes, l.FontSize)
		}
	}
	sort.Float64s(sizes)
	fs := &FontScorer{}
	if len(sizes) > 0 {
		fs.smallest = sizes[0]
		fs.prominent = stats.Percentile(sizes, fontProminencePct)
	}
	return fs
}

func (f *FontScorer) Score(lines []doctree.Line, i int) int {
	l := lines[i]
	words := strings.Fields(l.Text)
	if len(words) == 0 || len(l.Text) > fontMaxChars {
		return 0
	}
	colon := strings.HasSuffix(l.Text, ":")
	if len(words) > fontMaxWords && !(colon && len(words) <= fontColonWords) {
		return 0
	}

	var prev, next doctree.Line
	if i > 0 {
		prev = lines[i-1]
	}
	if i+1 < len(lines) {
		next = lines[i+1]
	}

	score := 0
	if l.FontSize > prev.FontSize && l.FontSize > next.FontSize {
		score += 3
	}
	if f.prominent > f.smallest && l.FontSize >= f.prominent {
		score += 2
	}
	if l.Bold && !(prev.Bold && next.Bold) {
		score += 2
	}
	if isUpper(l.Text) && len(words) > 1 {
		score += 2
	}
	if numberedRe.MatchString(l.Text) {
		score += 2
	}
	if colon {
		score++
	}
	if len(words) <= 6 {
		score++
	}
	return score
}
