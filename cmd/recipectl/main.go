// Command recipectl runs the offline jobs around the recipe catalogue:
// embedding backfill, re-clustering and seeding from a JSON file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/inferio-2004/recipe-generator/config"
	"github.com/inferio-2004/recipe-generator/internal/database"
	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/repository"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

// app holds what every subcommand needs once the root command has run.
type app struct {
	cfg   *config.Config
	db    *gorm.DB
	store *repository.Store
}

// embedder builds a throttled embedder for batch work so jobs do not starve
// the API of model capacity.
func (a *app) embedder() service.Embedder {
	svc := service.NewEmbeddingService(
		service.NewOllamaLoader(service.OllamaConfig{
			BaseURL: a.cfg.EmbeddingURL,
			Model:   a.cfg.EmbeddingModel,
			Token:   a.cfg.EmbeddingToken,
		}),
		a.cfg.EmbeddingModel,
	)
	return service.NewThrottledEmbedder(svc, a.cfg.EmbedRatePerSecond, 1)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Maintenance jobs for the recipe catalogue",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
			db, err := database.New(cfg)
			if err != nil {
				return err
			}
			a.cfg, a.db, a.store = cfg, db, repository.NewStore(db)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.db == nil {
				return nil
			}
			return database.Close(a.db)
		},
	}
	root.AddCommand(newEmbedCmd(a), newClusterCmd(a), newSeedCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("recipectl failed")
		stop()
		os.Exit(1)
	}
}
