// Package selector ranks catalog tables by semantic similarity to a query.
package selector

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"dealquery/internal/catalog"
	"dealquery/internal/domain"
)

// DefaultTopK bounds the candidate set when the caller passes no limit.
const DefaultTopK = 10

// DefaultThreshold is the minimum cosine similarity for a table to count
// as relevant.
const DefaultThreshold = 0.3

// Selector embeds query text and ranks catalog tables against it. Pure:
// a Select call reads one snapshot and mutates nothing.
type Selector struct {
	catalog   *catalog.Catalog
	embedder  domain.Embedder
	logger    *slog.Logger
	threshold float64
}

// New creates a Selector. threshold <= 0 uses DefaultThreshold.
func New(cat *catalog.Catalog, embedder domain.Embedder, threshold float64, logger *slog.Logger) *Selector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Selector{
		catalog:   cat,
		embedder:  embedder,
		logger:    logger,
		threshold: threshold,
	}
}

// Select returns the top-k tables most similar to the query, always unioned
// with the catalog's core table set so baseline price lookups work even
// when similarity scoring surfaces nothing. If embedding the query fails
// the core set alone is returned; the failure never reaches the caller.
func (s *Selector) Select(ctx context.Context, queryText string, topK int) (domain.CandidateSet, error) {
	if queryText == "" {
		return domain.CandidateSet{}, domain.ErrValidation("query text must not be empty")
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	snap := s.catalog.Current()

	qvec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		s.logger.Warn("query embedding failed, falling back to core tables", "error", err)
		return s.coreOnly(snap), nil
	}

	return s.rank(snap, qvec, topK, s.threshold), nil
}

// SelectBroadened re-ranks with the similarity threshold dropped. Used by
// step recovery when the initial candidate set proved too narrow.
func (s *Selector) SelectBroadened(ctx context.Context, queryText string, topK int) (domain.CandidateSet, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	snap := s.catalog.Current()
	qvec, err := s.embedder.Embed(ctx, queryText)
	if err != nil {
		return s.coreOnly(snap), nil
	}
	return s.rank(snap, qvec, topK, 0), nil
}

func (s *Selector) rank(snap *catalog.Snapshot, qvec []float32, topK int, threshold float64) domain.CandidateSet {
	scored := make([]domain.Candidate, 0, len(snap.Tables))
	for _, t := range snap.Tables {
		score := cosine(qvec, t.Embedding)
		if score >= threshold {
			scored = append(scored, domain.Candidate{Table: t.Name, Score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Table < scored[j].Table
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	set := domain.CandidateSet{Candidates: scored}
	for _, core := range s.catalog.Hints().CoreTables {
		if !set.Contains(core) && snap.Has(core) {
			set.Candidates = append(set.Candidates, domain.Candidate{Table: core})
		}
	}
	return set
}

func (s *Selector) coreOnly(snap *catalog.Snapshot) domain.CandidateSet {
	var set domain.CandidateSet
	for _, core := range s.catalog.Hints().CoreTables {
		if snap.Has(core) {
			set.Candidates = append(set.Candidates, domain.Candidate{Table: core})
		}
	}
	return set
}

// cosine computes cosine similarity; mismatched or zero vectors score 0.
func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
