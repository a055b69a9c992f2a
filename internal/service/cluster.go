package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/inferio-2004/recipe-generator/internal/cluster"
	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/repository"
)

const clusterPageSize = 1000

// ClusterStore reads embeddings and stores a fitted partition.
type ClusterStore interface {
	RecipeEmbeddings(ctx context.Context, afterID int64, limit int) ([]repository.RecipeEmbedding, error)
	ReplaceClusters(ctx context.Context, assignments map[int64][]int64, centroids map[int64][]float32) error
}

// ClusterService recomputes the recipe clusters the recommender biases toward.
type ClusterService struct {
	store     ClusterStore
	dimension int
	opts      cluster.Options
	log       zerolog.Logger
}

func NewClusterService(store ClusterStore, dimension int, opts cluster.Options) *ClusterService {
	return &ClusterService{
		store:     store,
		dimension: dimension,
		opts:      opts,
		log:       logging.Component("clusters"),
	}
}

// Recluster fits k-means over every stored embedding of the configured
// dimension and replaces the existing partition. requestedK is capped by
// cluster.ChooseK and by the number of distinct embeddings. It returns the
// number of clusters written, 0 when there is nothing to cluster.
func (s *ClusterService) Recluster(ctx context.Context, requestedK int) (int, error) {
	var (
		ids     []int64
		points  [][]float32
		afterID int64
		skipped int
	)
	for {
		page, err := s.store.RecipeEmbeddings(ctx, afterID, clusterPageSize)
		if err != nil {
			return 0, err
		}
		for _, row := range page {
			vec := row.Embedding.Slice()
			if len(vec) != s.dimension {
				skipped++
				continue
			}
			ids = append(ids, row.RecipeID)
			points = append(points, vec)
		}
		if len(page) < clusterPageSize {
			break
		}
		afterID = page[len(page)-1].RecipeID
	}
	if skipped > 0 {
		s.log.Warn().Int("skipped", skipped).Int("dimension", s.dimension).Msg("ignoring embeddings with unexpected dimension")
	}
	if len(points) == 0 {
		s.log.Info().Msg("no embeddings to cluster")
		return 0, nil
	}

	k := cluster.ChooseK(requestedK, len(points))
	start := time.Now()
	res, err := cluster.KMeans(ctx, points, k, s.opts)
	if err != nil {
		return 0, err
	}

	k = len(res.Centroids)
	assignments := make(map[int64][]int64, k)
	for i, label := range res.Labels {
		assignments[int64(label)] = append(assignments[int64(label)], ids[i])
	}
	centroids := make(map[int64][]float32, k)
	for label, c := range res.Centroids {
		centroids[int64(label)] = c
	}
	if err := s.store.ReplaceClusters(ctx, assignments, centroids); err != nil {
		return 0, err
	}

	s.log.Info().
		Int("k", k).
		Int("recipes", len(points)).
		Float64("inertia", res.Inertia).
		Dur("elapsed", time.Since(start)).
		Msg("clusters replaced")
	return k, nil
}
