// Package repository holds every SQL statement the recommender issues against
// Postgres. Vector and trigram queries need the pgvector and pg_trgm extensions;
// the catalogue, feedback and co-occurrence queries are portable.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/vector"
	"github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recipeColumns is every recipe column except the embedding, which never
// leaves the store on read paths.
const recipeColumns = `r.id, r.title, r.summary, r.instructions, r.prep_minutes, r.cook_minutes, r.servings,
	r.vegetarian, r.vegan, r.gluten_free, r.dairy_free, r.halal, r.kosher,
	r.ingredients_text, r.image_url, r.cluster_id, r.popularity, r.created_at`

// Candidate is a recipe returned by vector search together with the ranking
// inputs. SameCluster and Distance are internal and never serialized.
type Candidate struct {
	model.Recipe
	SameCluster bool
	Distance    *float64
}

// VectorQuery parameterizes SearchByVector.
type VectorQuery struct {
	Embedding []float32
	Limit     int
	// Overfetch caps the number of rows fetched for reranking. Zero means
	// max(Limit*10, 200).
	Overfetch int
	Filters   model.DietaryFilters
	ClusterID *int64
}

// OverfetchSize resolves the number of rows SearchByVector will request.
func (q VectorQuery) OverfetchSize() int {
	if q.Overfetch > 0 {
		return q.Overfetch
	}
	return max(q.Limit*10, 200)
}

// RecipeEmbedding is a recipe's stored vector.
type RecipeEmbedding struct {
	RecipeID  int64
	Embedding pgvector.Vector
}

// Store is the gorm-backed recipe store.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// NearestCluster returns the cluster whose centroid is closest to vec, or nil
// when there are no clusters.
func (s *Store) NearestCluster(ctx context.Context, vec []float32) (*int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT cluster_id FROM recipe_clusters ORDER BY centroid <-> CAST(? AS vector) LIMIT 1`,
		vector.Encode(vec),
	).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("nearest cluster: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

// SearchByVector returns up to q.OverfetchSize() recipes with an embedding,
// same-cluster recipes first, then by ascending L2 distance. A NULL cluster id
// never counts as a cluster match.
func (s *Store) SearchByVector(ctx context.Context, q VectorQuery) ([]Candidate, error) {
	if len(q.Embedding) == 0 {
		return []Candidate{}, nil
	}

	query := `SELECT ` + recipeColumns + `,
		COALESCE(r.cluster_id = ?, false) AS same_cluster,
		r.embedding <-> CAST(? AS vector) AS distance
	FROM recipes r
	WHERE r.embedding IS NOT NULL` + dietaryClause(q.Filters) + `
	ORDER BY same_cluster DESC, distance ASC
	LIMIT ?`

	var rows []Candidate
	err := s.db.WithContext(ctx).Raw(query, q.ClusterID, vector.Encode(q.Embedding), q.OverfetchSize()).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return rows, nil
}

type matchRow struct {
	model.Recipe
	MatchCount    int64
	AvgSimilarity float64
}

// MatchByTrigram ranks recipes by how many distinct ingredients fuzzily match
// any term (pg_trgm similarity >= threshold), then by mean similarity.
func (s *Store) MatchByTrigram(ctx context.Context, terms []string, filters model.DietaryFilters, threshold float64, limit int) ([]model.Recipe, error) {
	query := `WITH input_terms AS (
		SELECT unnest(CAST(? AS text[])) AS term
	),
	matched_ings AS (
		SELECT DISTINCT i.id, t.term, similarity(lower(i.name), lower(t.term)) AS sim
		FROM ingredients i
		JOIN input_terms t ON similarity(lower(i.name), lower(t.term)) >= ?
	)
	SELECT ` + recipeColumns + `,
		COUNT(DISTINCT mi.id) AS match_count,
		AVG(mi.sim) AS avg_similarity
	FROM recipes r
	JOIN recipe_ingredients ri ON ri.recipe_id = r.id
	JOIN matched_ings mi ON mi.id = ri.ingredient_id
	WHERE TRUE` + dietaryClause(filters) + `
	GROUP BY r.id
	ORDER BY match_count DESC, avg_similarity DESC
	LIMIT ?`

	var rows []matchRow
	if err := s.db.WithContext(ctx).Raw(query, pq.Array(terms), threshold, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("trigram match: %w", err)
	}
	return stripMatches(rows), nil
}

// MatchBySubstring ranks recipes by how many distinct ingredients contain any
// term, case-insensitively.
func (s *Store) MatchBySubstring(ctx context.Context, terms []string, filters model.DietaryFilters, limit int) ([]model.Recipe, error) {
	patterns := make([]string, len(terms))
	for i, t := range terms {
		patterns[i] = "%" + escapeLike(t) + "%"
	}

	query := `WITH input_terms AS (
		SELECT unnest(CAST(? AS text[])) AS pattern
	)
	SELECT ` + recipeColumns + `,
		COUNT(DISTINCT i.id) AS match_count
	FROM recipes r
	JOIN recipe_ingredients ri ON ri.recipe_id = r.id
	JOIN ingredients i ON i.id = ri.ingredient_id
	JOIN input_terms t ON i.name ILIKE t.pattern ESCAPE '\'
	WHERE TRUE` + dietaryClause(filters) + `
	GROUP BY r.id
	ORDER BY match_count DESC
	LIMIT ?`

	var rows []matchRow
	if err := s.db.WithContext(ctx).Raw(query, pq.Array(patterns), limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("substring match: %w", err)
	}
	return stripMatches(rows), nil
}

// LatestRecipes returns the newest recipes.
func (s *Store) LatestRecipes(ctx context.Context, limit int) ([]model.Recipe, error) {
	recipes := []model.Recipe{}
	err := s.db.WithContext(ctx).
		Omit("embedding").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("latest recipes: %w", err)
	}
	return recipes, nil
}

// LikedEmbeddings returns the embeddings of recipes the user acted on with one
// of labels, most recent action first.
func (s *Store) LikedEmbeddings(ctx context.Context, userID uuid.UUID, labels []string, limit int) ([]RecipeEmbedding, error) {
	var rows []RecipeEmbedding
	err := s.db.WithContext(ctx).Raw(`SELECT r.id AS recipe_id, r.embedding
	FROM user_recipe_actions ura
	JOIN recipes r ON r.id = ura.recipe_id
	WHERE ura.user_id = ?
		AND LOWER(ura.action) IN ?
		AND r.embedding IS NOT NULL
	ORDER BY ura.created_at DESC, ura.id DESC
	LIMIT ?`, userID, labels, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("liked embeddings: %w", err)
	}
	return rows, nil
}

// CooccurrenceRecommendations scores every recipe the user has not acted on by
// summing, over its ingredients, the number of the user's liked recipes that
// contain the same ingredient. Only positive scores are returned, best first.
func (s *Store) CooccurrenceRecommendations(ctx context.Context, userID uuid.UUID, labels []string, limit int) ([]model.Recipe, error) {
	query := `WITH liked_ings AS (
		SELECT ri.ingredient_id, COUNT(DISTINCT ura.recipe_id) AS cnt
		FROM user_recipe_actions ura
		JOIN recipe_ingredients ri ON ri.recipe_id = ura.recipe_id
		WHERE ura.user_id = ? AND LOWER(ura.action) IN ?
		GROUP BY ri.ingredient_id
	)
	SELECT ` + recipeColumns + `,
		SUM(l.cnt) AS match_count
	FROM recipes r
	JOIN recipe_ingredients ri ON ri.recipe_id = r.id
	JOIN liked_ings l ON l.ingredient_id = ri.ingredient_id
	WHERE r.id NOT IN (SELECT ura2.recipe_id FROM user_recipe_actions ura2 WHERE ura2.user_id = ?)
	GROUP BY r.id
	HAVING SUM(l.cnt) > 0
	ORDER BY match_count DESC, r.id ASC
	LIMIT ?`

	var rows []matchRow
	if err := s.db.WithContext(ctx).Raw(query, userID, labels, userID, limit).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("co-occurrence recommendations: %w", err)
	}
	return stripMatches(rows), nil
}

// RecipeExists reports whether a recipe with id exists.
func (s *Store) RecipeExists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("recipe exists: %w", err)
	}
	return count > 0, nil
}

// AppendAction stores one feedback event.
func (s *Store) AppendAction(ctx context.Context, action *model.UserRecipeAction) error {
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("append action: %w", err)
	}
	return nil
}

// CreateRecipe inserts recipe and links it to the named ingredients, creating
// any ingredient not seen before.
func (s *Store) CreateRecipe(ctx context.Context, recipe *model.Recipe, ingredientNames []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if len(ingredientNames) == 0 {
			return nil
		}

		ings := make([]model.Ingredient, len(ingredientNames))
		for i, name := range ingredientNames {
			ings[i] = model.Ingredient{Name: name}
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&ings).Error; err != nil {
			return fmt.Errorf("create ingredients: %w", err)
		}

		var stored []model.Ingredient
		if err := tx.Where("name IN ?", ingredientNames).Find(&stored).Error; err != nil {
			return fmt.Errorf("load ingredients: %w", err)
		}

		links := make([]model.RecipeIngredient, len(stored))
		for i, ing := range stored {
			links[i] = model.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ing.ID}
		}
		if err := tx.Create(&links).Error; err != nil {
			return fmt.Errorf("link ingredients: %w", err)
		}
		return nil
	})
}

// GetRecipe loads a recipe by id. It returns gorm.ErrRecordNotFound when absent.
func (s *Store) GetRecipe(ctx context.Context, id int64) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).Omit("embedding").First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return &recipe, nil
}

// UpdateRecipe applies column updates to a recipe. It returns
// gorm.ErrRecordNotFound when no row matched.
func (s *Store) UpdateRecipe(ctx context.Context, id int64, updates map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteRecipe removes a recipe; links and feedback go with it.
func (s *Store) DeleteRecipe(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("delete recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.UserRecipeAction{}).Error; err != nil {
			return fmt.Errorf("delete recipe actions: %w", err)
		}
		res := tx.Delete(&model.Recipe{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// ListRecipes pages through recipes, newest first, optionally narrowed to those
// whose title or ingredient text contains q.
func (s *Store) ListRecipes(ctx context.Context, q string, limit, offset int) ([]model.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&model.Recipe{}).Omit("embedding")
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(ingredients_text) LIKE ? ESCAPE '\'`, like, like)
	}

	recipes := []model.Recipe{}
	err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// ListIngredients returns ingredient names starting with prefix, alphabetically.
func (s *Store) ListIngredients(ctx context.Context, prefix string, limit int) ([]model.Ingredient, error) {
	query := s.db.WithContext(ctx).Model(&model.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}

	ings := []model.Ingredient{}
	if err := query.Order("name ASC").Limit(limit).Find(&ings).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ings, nil
}

// RecipesMissingEmbedding returns up to limit recipes with no stored embedding,
// oldest first.
func (s *Store) RecipesMissingEmbedding(ctx context.Context, limit int) ([]model.Recipe, error) {
	recipes := []model.Recipe{}
	err := s.db.WithContext(ctx).
		Omit("embedding").
		Where("embedding IS NULL").
		Order("id ASC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("recipes missing embedding: %w", err)
	}
	return recipes, nil
}

// SetEmbedding stores vec as the recipe's embedding.
func (s *Store) SetEmbedding(ctx context.Context, id int64, vec []float32) error {
	v := pgvector.NewVector(vec)
	res := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("id = ?", id).Update("embedding", &v)
	if res.Error != nil {
		return fmt.Errorf("set embedding: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecipeEmbeddings pages through stored embeddings in id order, starting after
// afterID.
func (s *Store) RecipeEmbeddings(ctx context.Context, afterID int64, limit int) ([]RecipeEmbedding, error) {
	rows := []RecipeEmbedding{}
	err := s.db.WithContext(ctx).Raw(`SELECT id AS recipe_id, embedding
	FROM recipes
	WHERE embedding IS NOT NULL AND id > ?
	ORDER BY id
	LIMIT ?`, afterID, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("recipe embeddings: %w", err)
	}
	return rows, nil
}

// ReplaceClusters swaps in a new partition: every recipe's cluster id is
// cleared, the given assignments are applied and the centroid table is
// rewritten, all in one transaction.
func (s *Store) ReplaceClusters(ctx context.Context, assignments map[int64][]int64, centroids map[int64][]float32) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM recipe_clusters").Error; err != nil {
			return fmt.Errorf("clear clusters: %w", err)
		}
		if err := tx.Exec("UPDATE recipes SET cluster_id = NULL WHERE cluster_id IS NOT NULL").Error; err != nil {
			return fmt.Errorf("clear cluster ids: %w", err)
		}

		for id, centroid := range centroids {
			row := model.RecipeCluster{ClusterID: id, Centroid: pgvector.NewVector(centroid)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert centroid %d: %w", id, err)
			}
		}
		for id, recipeIDs := range assignments {
			for start := 0; start < len(recipeIDs); start += 1000 {
				batch := recipeIDs[start:min(start+1000, len(recipeIDs))]
				err := tx.Model(&model.Recipe{}).Where("id IN ?", batch).Update("cluster_id", id).Error
				if err != nil {
					return fmt.Errorf("assign cluster %d: %w", id, err)
				}
			}
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside a LIKE pattern escaped with '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// dietaryClause renders one equality predicate per active flag. Column names
// come from a fixed whitelist, never from input.
func dietaryClause(f model.DietaryFilters) string {
	var b strings.Builder
	for _, col := range f.Columns() {
		b.WriteString(" AND r.")
		b.WriteString(col)
		b.WriteString(" = TRUE")
	}
	return b.String()
}

func stripMatches(rows []matchRow) []model.Recipe {
	out := make([]model.Recipe, len(rows))
	for i := range rows {
		out[i] = rows[i].Recipe
	}
	return out
}
