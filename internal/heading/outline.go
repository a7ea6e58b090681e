package heading

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/dgallion1/docsift/internal/doctree"
)

const (
	titleWindow     = 5 // page-1 lines considered for the document title
	outlineMaxWords = 20
	outlineMaxChars = 150
)

var (
	numberingRes = []*regexp.Regexp{
		regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+\.?\s+\S`),
		regexp.MustCompile(`^\d+\.\d+\.\d+\.?\s+\S`),
		regexp.MustCompile(`^\d+\.\d+\.?\s+\S`),
		regexp.MustCompile(`^\d+\.\s+\S`),
	}
	boilerplateRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)copyright|©`),
		regexp.MustCompile(`(?i)^page\s+\d+`),
		regexp.MustCompile(`(?i)\bversion\s+\d`),
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`),
		regexp.MustCompile(`^\d+$`),
	}
)

// BuildOutline turns heading candidates into a titled, levelled outline.
// lines is the profiled document and candidates the selected headings.
func BuildOutline(doc *doctree.Document, lines, candidates []doctree.Line) doctree.Outline {
	title := detectTitle(lines)
	if title == "" {
		title = doc.Title
	}

	kept := make([]doctree.Line, 0, len(candidates))
	for _, c := range candidates {
		if c.Page == 1 && c.Text == title {
			continue
		}
		if isBoilerplate(c.Text) {
			continue
		}
		if len(strings.Fields(c.Text)) > outlineMaxWords || len(c.Text) > outlineMaxChars {
			continue
		}
		kept = append(kept, c)
	}

	levels := assignLevels(kept)
	out := doctree.Outline{Title: title, Outline: make([]doctree.OutlineEntry, 0, len(kept))}
	for i, c := range kept {
		out.Outline = append(out.Outline, doctree.OutlineEntry{Level: levels[i], Text: c.Text, Page: c.Page})
	}
	return out
}

// detectTitle picks the largest-font line among the first page-1 lines
// not starting with a digit. Without style data the first such line wins.
func detectTitle(lines []doctree.Line) string {
	best := -1
	seen := 0
	for i, l := range lines {
		if l.Page != 1 || seen >= titleWindow {
			break
		}
		seen++
		if startsWithDigit(l.Text) {
			continue
		}
		if best < 0 || l.FontSize > lines[best].FontSize {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return lines[best].Text
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}

func isBoilerplate(s string) bool {
	for _, re := range boilerplateRes {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// numberingLevel maps "1." to 1, "1.1" to 2 and so on; 0 means unnumbered.
func numberingLevel(s string) int {
	for i, re := range numberingRes {
		if re.MatchString(s) {
			return len(numberingRes) - i
		}
	}
	return 0
}

func levelName(n int) string {
	switch n {
	case 1:
		return "H1"
	case 2:
		return "H2"
	case 3:
		return "H3"
	default:
		return "H4"
	}
}

func assignLevels(cands []doctree.Line) []string {
	levels := make([]string, len(cands))
	if len(cands) == 0 {
		return levels
	}

	styled := true
	var sizes []float64
	maxScore := 0
	for _, c := range cands {
		if !c.Styled || c.FontSize <= 0 {
			styled = false
		}
		sizes = append(sizes, c.FontSize)
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	mean, sd := meanStdev(sizes)

	for i, c := range cands {
		if n := numberingLevel(c.Text); n > 0 {
			levels[i] = levelName(n)
			continue
		}
		switch {
		case styled:
			switch {
			case c.FontSize > mean+sd:
				levels[i] = "H1"
			case c.FontSize > mean-sd:
				levels[i] = "H2"
			default:
				levels[i] = "H3"
			}
		case maxScore > 0 && c.Score >= maxScore:
			levels[i] = "H1"
		case maxScore > 0 && float64(c.Score) >= 0.75*float64(maxScore):
			levels[i] = "H2"
		default:
			levels[i] = "H3"
		}
	}
	return levels
}

// meanStdev returns the mean and sample standard deviation.
func meanStdev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(ss / float64(len(xs)-1))
}
