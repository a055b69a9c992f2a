package main

import (
	"github.com/spf13/cobra"

	"github.com/inferio-2004/recipe-generator/internal/cluster"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

func newClusterCmd(a *app) *cobra.Command {
	var (
		k    int
		opts cluster.Options
	)
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Re-fit recipe clusters from the stored embeddings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := service.NewClusterService(a.store, a.cfg.EmbeddingDimension, opts)
			_, err := svc.Recluster(cmd.Context(), k)
			return err
		},
	}
	cmd.Flags().IntVar(&k, "k", 100, "requested number of clusters, capped by the recipe count")
	cmd.Flags().IntVar(&opts.Restarts, "restarts", 10, "k-means restarts")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 42, "random seed")
	return cmd
}
