package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/metrics"
	"github.com/inferio-2004/recipe-generator/internal/vector"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// FeatureExtractor runs a loaded embedding model. The returned value is the raw
// model output (any numeric sequence); it is sanitized by the caller.
type FeatureExtractor interface {
	Extract(ctx context.Context, text string) (any, error)
}

// ModelLoader produces a ready FeatureExtractor. Load may be slow.
type ModelLoader interface {
	Load(ctx context.Context) (FeatureExtractor, error)
}

// EmbeddingService turns free text into a sanitized embedding. The model is
// loaded lazily once per process; concurrent first callers share one load.
type EmbeddingService struct {
	loader    ModelLoader
	modelName string

	mu    sync.Mutex
	model FeatureExtractor
	group singleflight.Group

	cache    *redis.Client
	cacheTTL time.Duration

	log zerolog.Logger
}

// EmbeddingOption configures an EmbeddingService.
type EmbeddingOption func(*EmbeddingService)

// WithEmbeddingCache caches query embeddings in Redis for ttl. A nil client
// disables caching.
func WithEmbeddingCache(client *redis.Client, ttl time.Duration) EmbeddingOption {
	return func(s *EmbeddingService) {
		s.cache = client
		s.cacheTTL = ttl
	}
}

// NewEmbeddingService creates an EmbeddingService. modelName namespaces cache keys.
func NewEmbeddingService(loader ModelLoader, modelName string, opts ...EmbeddingOption) *EmbeddingService {
	s := &EmbeddingService{
		loader:    loader,
		modelName: modelName,
		log:       logging.Component("embedding"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed returns the sanitized embedding of text. Blank text yields an empty
// vector without touching the model. Model load and inference errors are
// returned as is.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return []float32{}, nil
	}

	key := s.cacheKey(text)
	if vec, ok := s.cached(ctx, key); ok {
		return vec, nil
	}

	m, err := s.getModel(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := m.Extract(ctx, text)
	metrics.EmbeddingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("embedding inference: %w", err)
	}

	vec := vector.SanitizeAny(raw)
	s.store(ctx, key, vec)
	return vec, nil
}

// getModel returns the process-wide model, loading it on first use. The load
// runs detached from the first caller's cancellation since every waiter of the
// flight depends on it. A failed load is not remembered.
func (s *EmbeddingService) getModel(ctx context.Context) (FeatureExtractor, error) {
	s.mu.Lock()
	m := s.model
	s.mu.Unlock()
	if m != nil {
		return m, nil
	}

	v, err, _ := s.group.Do("model", func() (any, error) {
		s.mu.Lock()
		if s.model != nil {
			m := s.model
			s.mu.Unlock()
			return m, nil
		}
		s.mu.Unlock()

		s.log.Info().Str("model", s.modelName).Msg("loading embedding model")
		loaded, err := s.loader.Load(context.WithoutCancel(ctx))
		if err != nil {
			metrics.EmbeddingModelLoads.WithLabelValues("failure").Inc()
			return nil, err
		}
		if loaded == nil {
			metrics.EmbeddingModelLoads.WithLabelValues("failure").Inc()
			return nil, errors.New("model loader returned no model")
		}
		metrics.EmbeddingModelLoads.WithLabelValues("success").Inc()

		s.mu.Lock()
		s.model = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load embedding model: %w", err)
	}
	return v.(FeatureExtractor), nil
}

func (s *EmbeddingService) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embedding:" + s.modelName + ":" + hex.EncodeToString(sum[:])
}

func (s *EmbeddingService) cached(ctx context.Context, key string) ([]float32, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("embedding cache read failed")
		}
		metrics.EmbeddingCacheMisses.Inc()
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		s.log.Warn().Err(err).Msg("discarding malformed cached embedding")
		metrics.EmbeddingCacheMisses.Inc()
		return nil, false
	}
	metrics.EmbeddingCacheHits.Inc()
	return vector.Sanitize(vec), true
}

func (s *EmbeddingService) store(ctx context.Context, key string, vec []float32) {
	if s.cache == nil || len(vec) == 0 {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Warn().Err(err).Msg("embedding cache write failed")
	}
}
