package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_recipes.sql",
		"0001_extensions.sql",
		"0001_extensions_rollback.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.sql"), 0o755))

	files, err := MigrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_extensions.sql", "0002_recipes.sql"}, files)
}

func TestMigrationFilesMissingDir(t *testing.T) {
	_, err := MigrationFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestMigrationVersion(t *testing.T) {
	assert.Equal(t, "0003", MigrationVersion("0003_user_recipe_actions.sql"))
	assert.Equal(t, "init.sql", MigrationVersion("init.sql"))
}

func TestRunMigrationsSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, RunMigrations(db, "unused"))

	for _, table := range []any{
		&model.Recipe{},
		&model.Ingredient{},
		&model.RecipeIngredient{},
		&model.RecipeCluster{},
		&model.UserRecipeAction{},
	} {
		assert.True(t, db.Migrator().HasTable(table))
	}
}

func TestRepositoryMigrationsAreOrdered(t *testing.T) {
	files, err := MigrationFiles(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	seen := map[string]bool{}
	for _, f := range files {
		v := MigrationVersion(f)
		assert.False(t, seen[v], "duplicate migration version %s", v)
		seen[v] = true

		_, err := os.Stat(filepath.Join("..", "..", "migrations", f[:len(f)-len(".sql")]+"_rollback.sql"))
		assert.NoError(t, err, "missing rollback for %s", f)
	}
}
