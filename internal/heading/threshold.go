package heading

import (
	"sort"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/stats"
)

// DefaultPercentile keeps roughly the top 5% of positively scored lines.
const DefaultPercentile = 95

// Threshold returns the pct-th percentile of the positive scores. ok is
// false when no score is positive.
func Threshold(scores []int, pct float64) (threshold float64, ok bool) {
	positive := make([]float64, 0, len(scores))
	for _, s := range scores {
		if s > 0 {
			positive = append(positive, float64(s))
		}
	}
	if len(positive) == 0 {
		return 0, false
	}
	sort.Float64s(positive)
	return stats.Percentile(positive, pct), true
}

// SelectCandidates returns the lines whose positive score reaches the
// document-adaptive threshold, in reading order.
func SelectCandidates(lines []doctree.Line, pct float64) []doctree.Line {
	scores := make([]int, len(lines))
	for i, l := range lines {
		scores[i] = l.Score
	}
	thr, ok := Threshold(scores, pct)
	if !ok {
		return nil
	}

	var out []doctree.Line
	for _, l := range lines {
		if l.Score > 0 && float64(l.Score) >= thr {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos().Less(out[j].Pos()) })
	return out
}
