// Package rank scores sections against a persona and task.
package rank

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/docsift/internal/doctree"
	"github.com/dgallion1/docsift/internal/oracle"
)

// Query is the persona and job-to-be-done a batch is ranked against.
type Query struct {
	Persona string
	Task    string
}

// Text is the single string embedded for the query.
func (q Query) Text() string {
	persona := strings.TrimSpace(q.Persona)
	task := strings.TrimSpace(q.Task)
	if persona == "" {
		return task
	}
	return persona + ": " + task
}

// Config holds ranking weights and selection limits.
type Config struct {
	TitleWeight   float64
	ContentWeight float64
	MinRelevance  float64 // scores must be strictly greater
	MaxResults    int
}

func DefaultConfig() Config {
	return Config{
		TitleWeight:   0.3,
		ContentWeight: 0.7,
		MinRelevance:  0.2,
		MaxResults:    15,
	}
}

// Combine weights title and content similarity.
func (c Config) Combine(titleSim, contentSim float64) float64 {
	return c.TitleWeight*titleSim + c.ContentWeight*contentSim
}

// Passes reports whether score clears the relevance floor.
func (c Config) Passes(score float64) bool {
	return score > c.MinRelevance
}

// Ranker orders sections by combined similarity to the query.
type Ranker struct {
	Encoder oracle.Encoder
	Config  Config
}

// EmbedQuery embeds the query once for the whole batch.
func (r *Ranker) EmbedQuery(ctx context.Context, q Query) ([]float32, error) {
	vecs, err := r.Encoder.Embed(ctx, []string{q.Text()})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors: %w", len(vecs), oracle.ErrEncoder)
	}
	return vecs[0], nil
}

// Rank scores every section with one batched call for titles and one for
// contents, and returns copies sorted by descending score. Ties keep
// input order.
func (r *Ranker) Rank(ctx context.Context, queryVec []float32, sections []doctree.Section) ([]doctree.Section, error) {
	if len(sections) == 0 {
		return nil, nil
	}

	titles := make([]string, len(sections))
	contents := make([]string, len(sections))
	for i, s := range sections {
		titles[i] = s.Title
		contents[i] = s.Content
	}

	titleVecs, err := r.Encoder.Embed(ctx, titles)
	if err != nil {
		return nil, fmt.Errorf("embed titles: %w", err)
	}
	contentVecs, err := r.Encoder.Embed(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("embed contents: %w", err)
	}
	if len(titleVecs) != len(sections) || len(contentVecs) != len(sections) {
		return nil, fmt.Errorf("encoder returned %d/%d vectors for %d sections: %w",
			len(titleVecs), len(contentVecs), len(sections), oracle.ErrEncoder)
	}

	ranked := make([]doctree.Section, len(sections))
	for i, s := range sections {
		s.Score = r.Config.Combine(oracle.Cosine(queryVec, titleVecs[i]), oracle.Cosine(queryVec, contentVecs[i]))
		ranked[i] = s
	}
	slices.SortStableFunc(ranked, func(a, b doctree.Section) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return ranked, nil
}
