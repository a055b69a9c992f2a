package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inferio-2004/recipe-generator/config"
	"github.com/inferio-2004/recipe-generator/internal/api"
	"github.com/inferio-2004/recipe-generator/internal/database"
	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/middleware"
	"github.com/inferio-2004/recipe-generator/internal/repository"
	"github.com/inferio-2004/recipe-generator/internal/server"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Component("main")

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	rdb, err := database.NewRedisClient(cfg)
	if err != nil {
		// Redis only backs the embedding cache and rate limits.
		log.Warn().Err(err).Msg("redis unavailable, continuing without cache and rate limits")
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	embedder := service.NewEmbeddingService(
		service.NewOllamaLoader(service.OllamaConfig{
			BaseURL: cfg.EmbeddingURL,
			Model:   cfg.EmbeddingModel,
			Token:   cfg.EmbeddingToken,
		}),
		cfg.EmbeddingModel,
		service.WithEmbeddingCache(rdb, cfg.EmbeddingCacheTTL),
	)

	store := repository.NewStore(db)
	deps := api.Dependencies{
		DB: db,
		Recommender: service.NewRecommender(store, embedder, service.RecommenderConfig{
			Dimension: cfg.EmbeddingDimension,
			MaxLimit:  cfg.RecommendMaxLimit,
		}),
		Feedback:  service.NewFeedbackService(store),
		Recipes:   service.NewRecipeService(store, embedder, cfg.EmbeddingDimension),
		Validator: middleware.NewJWTValidator(cfg.JWTSecret),
	}
	if rdb != nil {
		deps.RateLimiter = middleware.NewRateLimiter(rdb, middleware.RateLimitConfig{
			Window: time.Minute,
			Limit:  cfg.RateLimitPerMinute,
		})
	}

	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.Warn().Err(err).Msg("image presigning disabled")
	} else if s3cfg != nil {
		deps.Images = api.NewS3ImageResolver(s3cfg, time.Hour)
	}

	srv := server.New(cfg, deps)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
