package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inferio-2004/recipe-generator/internal/model"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecipeFixture describes a recipe to seed.
type RecipeFixture struct {
	Title       string
	Ingredients []string
	Embedding   []float32
	ClusterID   *int64
	Popularity  int64
	Dietary     model.DietaryFilters
	CreatedAt   time.Time
}

// SeedRecipe inserts a recipe with its ingredient links and returns it.
func SeedRecipe(t *testing.T, db *gorm.DB, f RecipeFixture) model.Recipe {
	t.Helper()

	recipe := model.Recipe{
		Title:      f.Title,
		Servings:   1,
		ClusterID:  f.ClusterID,
		Popularity: f.Popularity,
		Vegan:      f.Dietary.Vegan,
		Vegetarian: f.Dietary.Vegetarian,
		GlutenFree: f.Dietary.GlutenFree,
		DairyFree:  f.Dietary.DairyFree,
		Halal:      f.Dietary.Halal,
		Kosher:     f.Dietary.Kosher,
		CreatedAt:  f.CreatedAt,
	}
	for i, ing := range f.Ingredients {
		if i > 0 {
			recipe.IngredientsText += ", "
		}
		recipe.IngredientsText += ing
	}
	if f.Embedding != nil {
		v := pgvector.NewVector(f.Embedding)
		recipe.Embedding = &v
	}
	if err := db.Create(&recipe).Error; err != nil {
		t.Fatalf("failed to seed recipe %q: %v", f.Title, err)
	}

	seen := map[string]bool{}
	for _, name := range f.Ingredients {
		if seen[name] {
			continue
		}
		seen[name] = true
		ing := model.Ingredient{Name: name}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&ing).Error; err != nil {
			t.Fatalf("failed to seed ingredient %q: %v", name, err)
		}
		if err := db.Where("name = ?", name).First(&ing).Error; err != nil {
			t.Fatalf("failed to load ingredient %q: %v", name, err)
		}
		link := model.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ing.ID}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("failed to link ingredient %q: %v", name, err)
		}
	}
	return recipe
}

// SeedAction records a feedback event at the given time.
func SeedAction(t *testing.T, db *gorm.DB, userID uuid.UUID, recipeID int64, action string, at time.Time) {
	t.Helper()
	event := model.UserRecipeAction{
		UserID:    userID,
		RecipeID:  recipeID,
		Action:    model.Action(action),
		CreatedAt: at,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to seed action: %v", err)
	}
}

// SeedCluster stores a cluster centroid.
func SeedCluster(t *testing.T, db *gorm.DB, id int64, centroid []float32) {
	t.Helper()
	cluster := model.RecipeCluster{ClusterID: id, Centroid: pgvector.NewVector(centroid)}
	if err := db.Create(&cluster).Error; err != nil {
		t.Fatalf("failed to seed cluster: %v", err)
	}
}
