package testhelpers

import (
	"os"
	"testing"

	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirExists(t *testing.T) {
	info, err := os.Stat(MigrationsDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSetupSQLite(t *testing.T) {
	db := SetupSQLite(t)

	recipe := SeedRecipe(t, db, RecipeFixture{
		Title:       "Pesto",
		Ingredients: []string{"basil", "garlic", "basil"},
	})
	assert.NotZero(t, recipe.ID)
	assert.Equal(t, "basil, garlic, basil", recipe.IngredientsText)

	var count int64
	require.NoError(t, db.Model(&model.Ingredient{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSetupTestDatabase(t *testing.T) {
	db := SetupTestDatabase(t)

	var extensions []string
	require.NoError(t, db.Raw("SELECT extname FROM pg_extension ORDER BY extname").Scan(&extensions).Error)
	assert.Contains(t, extensions, "vector")
	assert.Contains(t, extensions, "pg_trgm")

	SeedCluster(t, db, 1, make([]float32, model.EmbeddingDimension))
	var clusters int64
	require.NoError(t, db.Model(&model.RecipeCluster{}).Count(&clusters).Error)
	assert.Equal(t, int64(1), clusters)
}
