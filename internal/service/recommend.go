package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/metrics"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/repository"
	"github.com/inferio-2004/recipe-generator/internal/vector"
	"github.com/rs/zerolog"
)

const (
	// DefaultRecommendLimit applies to ingredient recommendations.
	DefaultRecommendLimit = 10
	// DefaultUserRecommendLimit applies to personalized recommendations.
	DefaultUserRecommendLimit = 8

	trigramThreshold = 0.35
	likedSampleSize  = 500
)

// Tier is a state of the fallback cascade.
type Tier string

const (
	TierVector    Tier = "vector"
	TierTrigram   Tier = "trigram"
	TierSubstring Tier = "substring"
	TierDone      Tier = "done"
)

// Outcome is how a tier finished.
type Outcome string

const (
	OutcomeHit    Outcome = "hit"
	OutcomeEmpty  Outcome = "empty"
	OutcomeFailed Outcome = "failed"
)

// cascade is the transition table of the fallback state machine. A hit always
// ends the search; only a failed substring tier surfaces an error.
var cascade = map[Tier]map[Outcome]Tier{
	TierVector: {
		OutcomeHit:    TierDone,
		OutcomeEmpty:  TierTrigram,
		OutcomeFailed: TierTrigram,
	},
	TierTrigram: {
		OutcomeHit:    TierDone,
		OutcomeEmpty:  TierSubstring,
		OutcomeFailed: TierSubstring,
	},
	TierSubstring: {
		OutcomeHit:    TierDone,
		OutcomeEmpty:  TierDone,
		OutcomeFailed: TierDone,
	},
}

// RecommendRequest is an ingredient recommendation query.
type RecommendRequest struct {
	Ingredients []string
	Filters     model.DietaryFilters
	Limit       int
}

// RecommenderConfig holds the tunables of the recommender.
type RecommenderConfig struct {
	// Dimension is the embedding size stored vectors must have to be used for
	// personalization.
	Dimension int
	// MaxLimit caps the number of results per request.
	MaxLimit int
}

// Recommender ranks recipes for a set of ingredients or for a user.
type Recommender struct {
	store    RecommendStore
	embedder Embedder
	cfg      RecommenderConfig
	log      zerolog.Logger
}

// NewRecommender creates a Recommender.
func NewRecommender(store RecommendStore, embedder Embedder, cfg RecommenderConfig) *Recommender {
	if cfg.Dimension <= 0 {
		cfg.Dimension = model.EmbeddingDimension
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	return &Recommender{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		log:      logging.Component("recommend"),
	}
}

// Recommend returns recipes for the given ingredients. It tries vector search
// first, then trigram matching, then substring matching, stopping at the first
// tier that returns anything. Without usable ingredients it returns the newest
// recipes.
func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) ([]model.Recipe, error) {
	limit := r.clampLimit(req.Limit, DefaultRecommendLimit)
	terms := CleanTerms(req.Ingredients)

	if len(terms) == 0 {
		recipes, err := r.store.LatestRecipes(ctx, limit)
		if err != nil {
			return nil, fmt.Errorf("latest recipes: %w", err)
		}
		return recipes, nil
	}

	state := TierVector
	for {
		recipes, err := r.runTier(ctx, state, terms, req.Filters, limit)
		outcome := classify(recipes, err)
		metrics.RecordTier(string(state), string(outcome))

		next := cascade[state][outcome]
		switch {
		case outcome == OutcomeHit:
			return recipes, nil
		case outcome == OutcomeFailed && next == TierDone:
			return nil, fmt.Errorf("%s tier: %w", state, err)
		case outcome == OutcomeFailed:
			r.log.Warn().Err(err).Str("tier", string(state)).Strs("terms", terms).Msg("tier failed, falling back")
		}
		if next == TierDone {
			return []model.Recipe{}, nil
		}
		state = next
	}
}

func classify(recipes []model.Recipe, err error) Outcome {
	switch {
	case err != nil:
		return OutcomeFailed
	case len(recipes) == 0:
		return OutcomeEmpty
	default:
		return OutcomeHit
	}
}

func (r *Recommender) runTier(ctx context.Context, tier Tier, terms []string, filters model.DietaryFilters, limit int) ([]model.Recipe, error) {
	switch tier {
	case TierVector:
		emb, err := r.embedder.Embed(ctx, strings.Join(terms, " "))
		if err != nil {
			return nil, err
		}
		return r.vectorRecommend(ctx, emb, filters, limit)
	case TierTrigram:
		return r.store.MatchByTrigram(ctx, terms, filters, trigramThreshold, limit)
	case TierSubstring:
		return r.store.MatchBySubstring(ctx, terms, filters, limit)
	default:
		return nil, fmt.Errorf("unknown tier %q", tier)
	}
}

// vectorRecommend biases toward the embedding's nearest cluster, overfetches
// by distance, reranks with popularity and truncates.
func (r *Recommender) vectorRecommend(ctx context.Context, emb []float32, filters model.DietaryFilters, limit int) ([]model.Recipe, error) {
	if len(emb) == 0 {
		return []model.Recipe{}, nil
	}

	candidates, err := r.store.SearchByVector(ctx, repository.VectorQuery{
		Embedding: emb,
		Limit:     limit,
		Filters:   filters,
		ClusterID: r.locateCluster(ctx, emb),
	})
	if err != nil {
		return nil, err
	}

	ranked := Rerank(candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]model.Recipe, len(ranked))
	for i, s := range ranked {
		out[i] = s.Recipe
	}
	return out, nil
}

// locateCluster returns the nearest centroid's cluster, or nil when clusters
// are missing or the lookup fails. It never fails the request.
func (r *Recommender) locateCluster(ctx context.Context, emb []float32) *int64 {
	id, err := r.store.NearestCluster(ctx, emb)
	if err != nil {
		metrics.ClusterLookupFailures.Inc()
		r.log.Warn().Err(err).Msg("cluster lookup failed, continuing without cluster bias")
		return nil
	}
	return id
}

// RecommendForUser recommends recipes from the user's positive feedback. The
// mean of the liked recipes' embeddings drives a vector search; when none of
// them has a usable embedding, recipes sharing ingredients with the liked ones
// are ranked by overlap instead.
func (r *Recommender) RecommendForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Recipe, error) {
	limit = r.clampLimit(limit, DefaultUserRecommendLimit)
	labels := model.PositiveActionLabels()

	rows, err := r.store.LikedEmbeddings(ctx, userID, labels, likedSampleSize)
	if err != nil {
		return nil, fmt.Errorf("liked embeddings: %w", err)
	}

	valid := make([][]float32, 0, len(rows))
	for _, row := range rows {
		vec := row.Embedding.Slice()
		if len(vec) != r.cfg.Dimension {
			r.log.Debug().Int64("recipe_id", row.RecipeID).Int("dim", len(vec)).Msg("skipping embedding with unexpected dimension")
			continue
		}
		valid = append(valid, vec)
	}

	if len(valid) > 0 {
		metrics.PersonalizationPaths.WithLabelValues("embedding").Inc()
		userEmb := toFloat32(vector.Normalize(vector.Mean(valid, r.cfg.Dimension)))
		recipes, err := r.vectorRecommend(ctx, userEmb, model.DietaryFilters{}, limit)
		if err != nil {
			return nil, fmt.Errorf("personal vector search: %w", err)
		}
		return recipes, nil
	}

	metrics.PersonalizationPaths.WithLabelValues("cooccurrence").Inc()
	recipes, err := r.store.CooccurrenceRecommendations(ctx, userID, labels, limit)
	if err != nil {
		return nil, fmt.Errorf("co-occurrence recommendations: %w", err)
	}
	return recipes, nil
}

func (r *Recommender) clampLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	return min(limit, r.cfg.MaxLimit)
}

// CleanTerms lower-cases and trims ingredient terms and drops empty ones.
func CleanTerms(raw []string) []string {
	terms := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
