package service

import (
	"math"
	"sort"

	"github.com/inferio-2004/recipe-generator/internal/repository"
)

// Rerank weights. Similarity dominates; popularity breaks near-ties.
const (
	similarityWeight = 0.75
	popularityWeight = 0.25

	// unknownDistance stands in for a missing distance so the candidate's
	// similarity collapses to roughly zero.
	unknownDistance = 1e6
)

// Scored is a candidate with its blended score.
type Scored struct {
	repository.Candidate
	Score float64
}

// Rerank blends vector similarity with relative popularity and returns the
// candidates sorted by descending score. The sort is stable, so equal scores
// keep their input order. Truncation is left to the caller.
func Rerank(candidates []repository.Candidate) []Scored {
	out := make([]Scored, len(candidates))
	if len(candidates) == 0 {
		return out
	}

	var maxPop int64
	for _, c := range candidates {
		maxPop = max(maxPop, c.Popularity)
	}
	denom := float64(maxPop)
	if denom <= 0 {
		denom = 1
	}

	for i, c := range candidates {
		out[i] = Scored{
			Candidate: c,
			Score:     similarityWeight*Similarity(c.Distance) + popularityWeight*float64(max(c.Popularity, 0))/denom,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Similarity maps an L2 distance onto (0, 1].
func Similarity(distance *float64) float64 {
	d := unknownDistance
	if distance != nil && !math.IsNaN(*distance) {
		d = math.Max(*distance, 0)
	}
	return 1 / (1 + d)
}
