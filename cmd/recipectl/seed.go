package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

// seedRecipe is one entry of a seed file.
type seedRecipe struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	Instructions string   `json:"instructions"`
	Ingredients  []string `json:"ingredients"`
	PrepMinutes  int      `json:"prep_minutes"`
	CookMinutes  int      `json:"cook_minutes"`
	Servings     int      `json:"servings"`
	ImageURL     string   `json:"image_url"`
	model.DietaryFilters
}

func loadSeedFile(path string) ([]service.CreateRecipeRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []seedRecipe
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	reqs := make([]service.CreateRecipeRequest, 0, len(entries))
	for i, e := range entries {
		if e.Title == "" {
			return nil, fmt.Errorf("entry %d: title is required", i)
		}
		reqs = append(reqs, service.CreateRecipeRequest{
			Title:        e.Title,
			Summary:      e.Summary,
			Instructions: e.Instructions,
			PrepMinutes:  e.PrepMinutes,
			CookMinutes:  e.CookMinutes,
			Servings:     e.Servings,
			Dietary:      e.DietaryFilters,
			Ingredients:  e.Ingredients,
			ImageURL:     e.ImageURL,
		})
	}
	return reqs, nil
}

func newSeedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert recipes from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reqs, err := loadSeedFile(file)
			if err != nil {
				return err
			}
			log := logging.Component("recipectl")
			recipes := service.NewRecipeService(a.store, a.embedder(), a.cfg.EmbeddingDimension)
			for _, req := range reqs {
				recipe, err := recipes.CreateRecipe(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("seed %q: %w", req.Title, err)
				}
				log.Debug().Int64("id", recipe.ID).Str("title", recipe.Title).Msg("seeded recipe")
			}
			log.Info().Int("recipes", len(reqs)).Msg("seed finished")
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON array of recipes")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
