package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

func TestCreateRecipe(t *testing.T) {
	env := newTestEnv(t, nil)
	env.recipes.On("CreateRecipe", mock.Anything, service.CreateRecipeRequest{
		Title:           "Caprese",
		Summary:         "Fresh",
		Servings:        2,
		Dietary:         model.DietaryFilters{Vegan: true, GlutenFree: true},
		IngredientsText: "tomato, basil",
	}).Return(&model.Recipe{ID: 9, Title: "Caprese", Vegan: true, GlutenFree: true}, nil)

	rr := env.do(http.MethodPost, "/api/v1/recipes",
		`{"title":"Caprese","summary":"Fresh","servings":2,"vegan":true,"gluten_free":true,"ingredients_text":"tomato, basil"}`, true)

	require.Equal(t, http.StatusCreated, rr.Code)
	body := decode[map[string]any](t, rr)
	assert.Equal(t, float64(9), body["id"])
	assert.NotContains(t, body, "embedding")
}

func TestCreateRecipeValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	rr := env.do(http.MethodPost, "/api/v1/recipes", `{"summary":"no title"}`, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/recipes", `{"title":"Caprese"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetRecipe(t *testing.T) {
	env := newTestEnv(t, prefixResolver{})
	env.recipes.On("GetRecipe", mock.Anything, int64(4)).
		Return(&model.Recipe{ID: 4, Title: "Soup", ImageURL: "s3://bucket/soup.jpg"}, nil)
	env.recipes.On("GetRecipe", mock.Anything, int64(5)).Return(nil, service.ErrRecipeNotFound)

	rr := env.do(http.MethodGet, "/api/v1/recipes/4", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://cdn.example.com/soup.jpg", decode[model.Recipe](t, rr).ImageURL)

	rr = env.do(http.MethodGet, "/api/v1/recipes/5", "", false)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/recipes/abc", "", false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListRecipes(t *testing.T) {
	env := newTestEnv(t, nil)
	env.recipes.On("ListRecipes", mock.Anything, "tomato", 5, 10).
		Return([]model.Recipe{{ID: 1, Title: "Salsa"}}, nil)

	rr := env.do(http.MethodGet, "/api/v1/recipes?q=tomato&limit=5&offset=10", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Recipe](t, rr), 1)

	rr = env.do(http.MethodGet, "/api/v1/recipes?offset=x", "", false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateRecipe(t *testing.T) {
	env := newTestEnv(t, nil)
	title := "Leek Soup"
	env.recipes.On("UpdateRecipe", mock.Anything, int64(4), service.UpdateRecipeRequest{Title: &title}).
		Return(&model.Recipe{ID: 4, Title: title}, nil)

	rr := env.do(http.MethodPut, "/api/v1/recipes/4", `{"title":"Leek Soup"}`, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, title, decode[model.Recipe](t, rr).Title)
}

func TestDeleteRecipe(t *testing.T) {
	env := newTestEnv(t, nil)
	env.recipes.On("DeleteRecipe", mock.Anything, int64(4)).Return(nil)
	env.recipes.On("DeleteRecipe", mock.Anything, int64(5)).Return(service.ErrRecipeNotFound)

	rr := env.do(http.MethodDelete, "/api/v1/recipes/4", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())

	rr = env.do(http.MethodDelete, "/api/v1/recipes/5", "", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodDelete, "/api/v1/recipes/4", "", false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestListIngredients(t *testing.T) {
	env := newTestEnv(t, nil)
	env.recipes.On("ListIngredients", mock.Anything, "to", 0).
		Return([]model.Ingredient{{ID: 1, Name: "tofu"}, {ID: 2, Name: "tomato"}}, nil)

	rr := env.do(http.MethodGet, "/api/v1/ingredients?q=to", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[{"id":1,"name":"tofu"},{"id":2,"name":"tomato"}]`, rr.Body.String())
}
