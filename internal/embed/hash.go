package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultHashDimensions is the vector width of HashEncoder.
const DefaultHashDimensions = 4096

// HashEncoder is a deterministic offline encoder: a feature-hashed bag of
// lower-cased alphanumeric tokens, L2-normalised. Hyphenated words contribute
// the compound and each part. It needs no network and suits tests and
// air-gapped runs.
type HashEncoder struct {
	Dimensions int
}

func (h HashEncoder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	dim := h.Dimensions
	if dim <= 0 {
		dim = DefaultHashDimensions
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, dim)
	}
	return out, nil
}

func hashVector(text string, dim int) []float32 {
	vec := make([]float32, dim)
	for _, tok := range Tokenize(text) {
		f := fnv.New32a()
		f.Write([]byte(tok))
		vec[f.Sum32()%uint32(dim)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

// Tokenize lower-cases text and splits it into alphanumeric tokens.
// "gluten-free" yields "gluten-free", "gluten" and "free".
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	var toks []string
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if f == "" {
			continue
		}
		toks = append(toks, f)
		if strings.Contains(f, "-") {
			for _, part := range strings.Split(f, "-") {
				if part != "" {
					toks = append(toks, part)
				}
			}
		}
	}
	return toks
}
