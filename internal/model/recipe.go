package model

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// EmbeddingDimension is the output size of the sentence embedding model the
// recipe vectors are built with.
const EmbeddingDimension = 384

type Recipe struct {
	ID              int64            `gorm:"primaryKey" json:"id"`
	Title           string           `gorm:"not null" json:"title"`
	Summary         string           `gorm:"type:text" json:"summary"`
	Instructions    string           `gorm:"type:text" json:"instructions"`
	PrepMinutes     int              `json:"prep_minutes"`
	CookMinutes     int              `json:"cook_minutes"`
	Servings        int              `gorm:"not null;default:1" json:"servings"`
	Vegetarian      bool             `gorm:"not null;default:false" json:"vegetarian"`
	Vegan           bool             `gorm:"not null;default:false" json:"vegan"`
	GlutenFree      bool             `gorm:"not null;default:false" json:"gluten_free"`
	DairyFree       bool             `gorm:"not null;default:false" json:"dairy_free"`
	Halal           bool             `gorm:"not null;default:false" json:"halal"`
	Kosher          bool             `gorm:"not null;default:false" json:"kosher"`
	IngredientsText string           `gorm:"type:text;not null;default:''" json:"ingredients_text"`
	ImageURL        string           `json:"image_url,omitempty"`
	Embedding       *pgvector.Vector `gorm:"type:vector(384)" json:"-"`
	ClusterID       *int64           `gorm:"index" json:"cluster_id,omitempty"`
	Popularity      int64            `gorm:"not null;default:0" json:"popularity"`
	CreatedAt       time.Time        `json:"created_at"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// EmbeddingDocument is the text a recipe's embedding is computed from.
func (r *Recipe) EmbeddingDocument() string {
	return r.Title + " | " + r.IngredientsText + " | " + r.Summary
}

// Ingredient is a canonical ingredient name used by fuzzy matching and autocomplete.
type Ingredient struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

// RecipeIngredient links a recipe to an ingredient. Quantity, unit and note are
// informational only.
type RecipeIngredient struct {
	RecipeID     int64  `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	IngredientID int64  `gorm:"primaryKey;autoIncrement:false" json:"ingredient_id"`
	Quantity     string `json:"quantity,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Note         string `json:"note,omitempty"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// RecipeCluster is a centroid produced by the offline clustering job.
type RecipeCluster struct {
	ClusterID int64           `gorm:"primaryKey;autoIncrement:false" json:"cluster_id"`
	Centroid  pgvector.Vector `gorm:"type:vector(384);not null" json:"-"`
}

func (RecipeCluster) TableName() string {
	return "recipe_clusters"
}

// DietaryFilters are the six independent dietary constraints. An active flag
// requires the matching recipe column to be true; inactive flags impose nothing.
type DietaryFilters struct {
	Vegan      bool `json:"vegan"`
	Vegetarian bool `json:"vegetarian"`
	GlutenFree bool `json:"gluten_free"`
	DairyFree  bool `json:"dairy_free"`
	Halal      bool `json:"halal"`
	Kosher     bool `json:"kosher"`
}

// Columns returns the recipe columns that must be true, in a fixed order.
func (f DietaryFilters) Columns() []string {
	cols := make([]string, 0, 6)
	if f.Vegan {
		cols = append(cols, "vegan")
	}
	if f.Vegetarian {
		cols = append(cols, "vegetarian")
	}
	if f.GlutenFree {
		cols = append(cols, "gluten_free")
	}
	if f.DairyFree {
		cols = append(cols, "dairy_free")
	}
	if f.Halal {
		cols = append(cols, "halal")
	}
	if f.Kosher {
		cols = append(cols, "kosher")
	}
	return cols
}

// Matches reports whether r satisfies every active filter.
func (f DietaryFilters) Matches(r *Recipe) bool {
	return (!f.Vegan || r.Vegan) &&
		(!f.Vegetarian || r.Vegetarian) &&
		(!f.GlutenFree || r.GlutenFree) &&
		(!f.DairyFree || r.DairyFree) &&
		(!f.Halal || r.Halal) &&
		(!f.Kosher || r.Kosher)
}
