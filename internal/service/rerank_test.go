package service_test

import (
	"sort"
	"testing"

	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/repository"
	"github.com/inferio-2004/recipe-generator/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(id int64, distance *float64, popularity int64) repository.Candidate {
	return repository.Candidate{
		Recipe:   model.Recipe{ID: id, Popularity: popularity},
		Distance: distance,
	}
}

func TestRerankEmpty(t *testing.T) {
	assert.Empty(t, service.Rerank(nil))
	assert.Empty(t, service.Rerank([]repository.Candidate{}))
}

func TestRerankBlendsSimilarityAndPopularity(t *testing.T) {
	ranked := service.Rerank([]repository.Candidate{
		candidate(1, ptr(0.5), 0),   // 0.75 * 2/3 = 0.5
		candidate(2, ptr(1.0), 100), // 0.75 * 1/2 + 0.25 = 0.625
		candidate(3, ptr(0.0), 50),  // 0.75 + 0.125 = 0.875
	})

	require.Len(t, ranked, 3)
	assert.Equal(t, int64(3), ranked[0].ID)
	assert.Equal(t, int64(2), ranked[1].ID)
	assert.Equal(t, int64(1), ranked[2].ID)
	assert.InDelta(t, 0.875, ranked[0].Score, 1e-9)
	assert.InDelta(t, 0.625, ranked[1].Score, 1e-9)
	assert.InDelta(t, 0.5, ranked[2].Score, 1e-9)
}

func TestRerankMissingDistanceSinksToBottom(t *testing.T) {
	ranked := service.Rerank([]repository.Candidate{
		candidate(1, nil, 0),
		candidate(2, ptr(50.0), 0),
	})
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.Equal(t, int64(1), ranked[1].ID)
	assert.Less(t, ranked[1].Score, 1e-5)
}

func TestRerankZeroPopularityUsesUnitDenominator(t *testing.T) {
	ranked := service.Rerank([]repository.Candidate{candidate(1, ptr(0.0), 0)})
	assert.InDelta(t, 0.75, ranked[0].Score, 1e-9)
}

func TestRerankNegativePopularityCountsAsZero(t *testing.T) {
	ranked := service.Rerank([]repository.Candidate{
		candidate(1, ptr(0.0), -40),
		candidate(2, ptr(0.0), 10),
	})
	assert.Equal(t, int64(2), ranked[0].ID)
	assert.InDelta(t, 0.75, ranked[1].Score, 1e-9)
}

func TestRerankIsStableForEqualScores(t *testing.T) {
	ranked := service.Rerank([]repository.Candidate{
		candidate(10, ptr(1.0), 5),
		candidate(11, ptr(1.0), 5),
		candidate(12, ptr(1.0), 5),
	})
	assert.Equal(t, int64(10), ranked[0].ID)
	assert.Equal(t, int64(11), ranked[1].ID)
	assert.Equal(t, int64(12), ranked[2].ID)
}

func TestRerankProperties(t *testing.T) {
	in := []repository.Candidate{
		candidate(1, ptr(0.3), 7),
		candidate(2, nil, 900),
		candidate(3, ptr(12.0), 0),
		candidate(4, ptr(0.0), 3),
		candidate(5, ptr(2.5), 900),
	}
	ranked := service.Rerank(in)

	require.Len(t, ranked, len(in))
	got := make([]int, len(ranked))
	for i, s := range ranked {
		got[i] = int(s.ID)
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score, s.Score)
		}
	}
	sort.Ints(got)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, got)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, service.Similarity(ptr(0.0)))
	assert.InDelta(t, 0.5, service.Similarity(ptr(1.0)), 1e-12)
	assert.InDelta(t, 1/(1+1e6), service.Similarity(nil), 1e-15)
	assert.Equal(t, 1.0, service.Similarity(ptr(-3.0)))
}
