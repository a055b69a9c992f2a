package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recommendation engine instrumentation, exposed on /metrics.
var (
	// TierOutcomes counts how each fallback tier finished: hit, empty or failed.
	TierOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_tier_outcomes_total",
			Help: "Outcomes of recommendation fallback tiers",
		},
		[]string{"tier", "outcome"},
	)

	// ClusterLookupFailures counts centroid lookups that degraded to no bias.
	ClusterLookupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cluster_lookup_failures_total",
			Help: "Nearest-centroid lookups that failed and were skipped",
		},
	)

	// PersonalizationPaths counts which personalization path served a request.
	PersonalizationPaths = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_personalization_path_total",
			Help: "Personalized recommendations by path (embedding or cooccurrence)",
		},
		[]string{"path"},
	)

	EmbeddingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_inference_duration_seconds",
			Help:    "Duration of embedding model inference calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	EmbeddingModelLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_model_loads_total",
			Help: "Embedding model load attempts by result",
		},
		[]string{"result"},
	)

	EmbeddingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Query embeddings served from the Redis cache",
		},
	)

	EmbeddingCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Query embeddings not found in the Redis cache",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)
)

// RecordTier records the outcome of one fallback tier.
func RecordTier(tier, outcome string) {
	TierOutcomes.WithLabelValues(tier, outcome).Inc()
}

// Circuit breaker instrumentation for the embedding model host.
var (
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)
