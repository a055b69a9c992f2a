package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/model"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ErrEmbeddingDimension is returned when a computed embedding does not have the
// configured dimension and therefore cannot be stored.
var ErrEmbeddingDimension = errors.New("embedding has unexpected dimension")

// CreateRecipeRequest holds the fields of a new recipe. Ingredients, when
// empty, are parsed from IngredientsText.
type CreateRecipeRequest struct {
	Title           string
	Summary         string
	Instructions    string
	PrepMinutes     int
	CookMinutes     int
	Servings        int
	Dietary         model.DietaryFilters
	IngredientsText string
	Ingredients     []string
	ImageURL        string
}

// UpdateRecipeRequest holds a partial update; nil fields are left unchanged.
type UpdateRecipeRequest struct {
	Title        *string
	Summary      *string
	Instructions *string
	ImageURL     *string
}

// RecipeService handles recipe operations
type RecipeService struct {
	store     CatalogueStore
	embedder  Embedder
	dimension int
	log       zerolog.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(store CatalogueStore, embedder Embedder, dimension int) *RecipeService {
	if dimension <= 0 {
		dimension = model.EmbeddingDimension
	}
	return &RecipeService{
		store:     store,
		embedder:  embedder,
		dimension: dimension,
		log:       logging.Component("recipes"),
	}
}

// CreateRecipe stores a recipe with its embedding and ingredient links. If the
// model is unavailable the recipe is stored without an embedding for the
// backfill job to complete later.
func (s *RecipeService) CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*model.Recipe, error) {
	recipe := &model.Recipe{
		Title:           strings.TrimSpace(req.Title),
		Summary:         req.Summary,
		Instructions:    req.Instructions,
		PrepMinutes:     req.PrepMinutes,
		CookMinutes:     req.CookMinutes,
		Servings:        req.Servings,
		Vegetarian:      req.Dietary.Vegetarian,
		Vegan:           req.Dietary.Vegan,
		GlutenFree:      req.Dietary.GlutenFree,
		DairyFree:       req.Dietary.DairyFree,
		Halal:           req.Dietary.Halal,
		Kosher:          req.Dietary.Kosher,
		IngredientsText: req.IngredientsText,
		ImageURL:        req.ImageURL,
	}
	if recipe.Servings <= 0 {
		recipe.Servings = 1
	}

	names := req.Ingredients
	if len(names) == 0 {
		names = ParseIngredients(req.IngredientsText)
	} else {
		names = dedupeNames(names)
	}
	if recipe.IngredientsText == "" && len(names) > 0 {
		recipe.IngredientsText = strings.Join(names, ", ")
	}

	emb, err := s.embedDocument(ctx, recipe)
	switch {
	case errors.Is(err, ErrEmbeddingDimension):
		return nil, err
	case err != nil:
		s.log.Warn().Err(err).Str("title", recipe.Title).Msg("storing recipe without embedding")
	case emb != nil:
		recipe.Embedding = emb
	}

	if err := s.store.CreateRecipe(ctx, recipe, names); err != nil {
		return nil, err
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id int64) (*model.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	return recipe, err
}

// UpdateRecipe updates a recipe. A changed title or summary refreshes the
// embedding when the model is reachable.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id int64, req UpdateRecipeRequest) (*model.Recipe, error) {
	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}
	if req.Instructions != nil {
		updates["instructions"] = *req.Instructions
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if len(updates) == 0 {
		return s.GetRecipe(ctx, id)
	}

	if err := s.store.UpdateRecipe(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Title != nil || req.Summary != nil {
		if err := s.refreshEmbedding(ctx, recipe); err != nil {
			s.log.Warn().Err(err).Int64("recipe_id", id).Msg("embedding not refreshed")
		}
	}
	return recipe, nil
}

// DeleteRecipe deletes a recipe
func (s *RecipeService) DeleteRecipe(ctx context.Context, id int64) error {
	if err := s.store.DeleteRecipe(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	return nil
}

// ListRecipes lists recipes, optionally filtered by a title or ingredient search
func (s *RecipeService) ListRecipes(ctx context.Context, q string, limit, offset int) ([]model.Recipe, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListRecipes(ctx, q, limit, max(offset, 0))
}

// ListIngredients returns known ingredients starting with prefix.
func (s *RecipeService) ListIngredients(ctx context.Context, prefix string, limit int) ([]model.Ingredient, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListIngredients(ctx, prefix, limit)
}

// BackfillEmbeddings embeds recipes that have no embedding yet, batchSize at a
// time, until none remain or ctx is done. It returns the number embedded.
// Recipes whose document produces no vector are skipped for this run.
func (s *RecipeService) BackfillEmbeddings(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	done := 0
	skipped := map[int64]bool{}
	for {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		batch, err := s.store.RecipesMissingEmbedding(ctx, batchSize+len(skipped))
		if err != nil {
			return done, err
		}

		progressed := false
		for i := range batch {
			recipe := &batch[i]
			if skipped[recipe.ID] {
				continue
			}
			emb, err := s.embedDocument(ctx, recipe)
			if err != nil {
				return done, fmt.Errorf("embed recipe %d: %w", recipe.ID, err)
			}
			if emb == nil {
				skipped[recipe.ID] = true
				continue
			}
			if err := s.store.SetEmbedding(ctx, recipe.ID, emb.Slice()); err != nil {
				return done, err
			}
			done++
			progressed = true
		}

		if !progressed {
			return done, nil
		}
		s.log.Info().Int("embedded", done).Msg("backfill progress")
	}
}

func (s *RecipeService) refreshEmbedding(ctx context.Context, recipe *model.Recipe) error {
	emb, err := s.embedDocument(ctx, recipe)
	if err != nil || emb == nil {
		return err
	}
	return s.store.SetEmbedding(ctx, recipe.ID, emb.Slice())
}

// embedDocument returns nil without error when the document is blank.
func (s *RecipeService) embedDocument(ctx context.Context, recipe *model.Recipe) (*pgvector.Vector, error) {
	vec, err := s.embedder.Embed(ctx, recipe.EmbeddingDocument())
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, nil
	}
	if len(vec) != s.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrEmbeddingDimension, len(vec), s.dimension)
	}
	v := pgvector.NewVector(vec)
	return &v, nil
}

// ParseIngredients splits free ingredient text on commas, semicolons and new
// lines into lower-cased unique names.
func ParseIngredients(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	return dedupeNames(parts)
}

func dedupeNames(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, p := range raw {
		name := strings.ToLower(strings.TrimSpace(p))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
