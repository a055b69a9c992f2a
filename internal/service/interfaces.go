package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/repository"
)

// Embedder turns text into a sanitized embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// RecommendStore is the read side the recommender queries.
type RecommendStore interface {
	NearestCluster(ctx context.Context, vec []float32) (*int64, error)
	SearchByVector(ctx context.Context, q repository.VectorQuery) ([]repository.Candidate, error)
	MatchByTrigram(ctx context.Context, terms []string, filters model.DietaryFilters, threshold float64, limit int) ([]model.Recipe, error)
	MatchBySubstring(ctx context.Context, terms []string, filters model.DietaryFilters, limit int) ([]model.Recipe, error)
	LatestRecipes(ctx context.Context, limit int) ([]model.Recipe, error)
	LikedEmbeddings(ctx context.Context, userID uuid.UUID, labels []string, limit int) ([]repository.RecipeEmbedding, error)
	CooccurrenceRecommendations(ctx context.Context, userID uuid.UUID, labels []string, limit int) ([]model.Recipe, error)
}

// FeedbackStore persists feedback events.
type FeedbackStore interface {
	RecipeExists(ctx context.Context, id int64) (bool, error)
	AppendAction(ctx context.Context, action *model.UserRecipeAction) error
}

// CatalogueStore backs the recipe catalogue.
type CatalogueStore interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe, ingredientNames []string) error
	GetRecipe(ctx context.Context, id int64) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, updates map[string]any) error
	DeleteRecipe(ctx context.Context, id int64) error
	ListRecipes(ctx context.Context, q string, limit, offset int) ([]model.Recipe, error)
	ListIngredients(ctx context.Context, prefix string, limit int) ([]model.Ingredient, error)
	RecipesMissingEmbedding(ctx context.Context, limit int) ([]model.Recipe, error)
	SetEmbedding(ctx context.Context, id int64, vec []float32) error
}

// IRecommender defines the recommendation operations exposed over HTTP
type IRecommender interface {
	Recommend(ctx context.Context, req RecommendRequest) ([]model.Recipe, error)
	RecommendForUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Recipe, error)
}

// IFeedbackService defines the interface for feedback operations
type IFeedbackService interface {
	RecordFeedback(ctx context.Context, userID uuid.UUID, req FeedbackRequest) (*model.UserRecipeAction, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, req CreateRecipeRequest) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id int64, req UpdateRecipeRequest) (*model.Recipe, error)
	DeleteRecipe(ctx context.Context, id int64) error
	ListRecipes(ctx context.Context, q string, limit, offset int) ([]model.Recipe, error)
	ListIngredients(ctx context.Context, prefix string, limit int) ([]model.Ingredient, error)
}
