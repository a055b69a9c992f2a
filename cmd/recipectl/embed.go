package main

import (
	"github.com/spf13/cobra"

	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

func newEmbedCmd(a *app) *cobra.Command {
	var batch int
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Compute embeddings for recipes that have none",
		RunE: func(cmd *cobra.Command, _ []string) error {
			recipes := service.NewRecipeService(a.store, a.embedder(), a.cfg.EmbeddingDimension)
			n, err := recipes.BackfillEmbeddings(cmd.Context(), batch)
			log := logging.Component("recipectl")
			log.Info().Int("embedded", n).Msg("embedding backfill finished")
			return err
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 100, "recipes fetched per round")
	return cmd
}
