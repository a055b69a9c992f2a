package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inferio-2004/recipe-generator/internal/middleware"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

type RecipeHandler struct {
	recipes   service.IRecipeService
	validator middleware.TokenValidator
	limiter   *middleware.RateLimiter
	images    ImageResolver
}

func NewRecipeHandler(recipes service.IRecipeService, validator middleware.TokenValidator, limiter *middleware.RateLimiter, images ImageResolver) *RecipeHandler {
	return &RecipeHandler{
		recipes:   recipes,
		validator: validator,
		limiter:   limiter,
		images:    images,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", middleware.AuthMiddleware(h.validator), rateLimit(h.limiter, "recipe_create"), h.CreateRecipe)
		recipes.PUT("/:id", middleware.AuthMiddleware(h.validator), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.AuthMiddleware(h.validator), h.DeleteRecipe)
	}
	router.GET("/ingredients", h.ListIngredients)
}

type createRecipeRequest struct {
	Title           string   `json:"title" binding:"required"`
	Summary         string   `json:"summary"`
	Instructions    string   `json:"instructions"`
	PrepMinutes     int      `json:"prep_minutes"`
	CookMinutes     int      `json:"cook_minutes"`
	Servings        int      `json:"servings"`
	Vegetarian      bool     `json:"vegetarian"`
	Vegan           bool     `json:"vegan"`
	GlutenFree      bool     `json:"gluten_free"`
	DairyFree       bool     `json:"dairy_free"`
	Halal           bool     `json:"halal"`
	Kosher          bool     `json:"kosher"`
	IngredientsText string   `json:"ingredients_text"`
	Ingredients     []string `json:"ingredients"`
	ImageURL        string   `json:"image_url"`
}

type updateRecipeRequest struct {
	Title        *string `json:"title"`
	Summary      *string `json:"summary"`
	Instructions *string `json:"instructions"`
	ImageURL     *string `json:"image_url"`
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset")
	if !ok {
		return
	}

	recipes, err := h.recipes.ListRecipes(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	resolveImages(c.Request.Context(), h.images, recipes)
	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), service.CreateRecipeRequest{
		Title:        req.Title,
		Summary:      req.Summary,
		Instructions: req.Instructions,
		PrepMinutes:  req.PrepMinutes,
		CookMinutes:  req.CookMinutes,
		Servings:     req.Servings,
		Dietary: model.DietaryFilters{
			Vegan:      req.Vegan,
			Vegetarian: req.Vegetarian,
			GlutenFree: req.GlutenFree,
			DairyFree:  req.DairyFree,
			Halal:      req.Halal,
			Kosher:     req.Kosher,
		},
		IngredientsText: req.IngredientsText,
		Ingredients:     req.Ingredients,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	var req updateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), id, service.UpdateRecipeRequest{
		Title:        req.Title,
		Summary:      req.Summary,
		Instructions: req.Instructions,
		ImageURL:     req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListIngredients backs ingredient autocomplete.
func (h *RecipeHandler) ListIngredients(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	ingredients, err := h.recipes.ListIngredients(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, recipe *model.Recipe) {
	if h.images != nil && recipe.ImageURL != "" {
		recipe.ImageURL = h.images.Resolve(c.Request.Context(), recipe.ImageURL)
	}
	c.JSON(status, recipe)
}

func recipeID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return 0, false
	}
	return id, true
}

// intQuery reads an optional integer query parameter, answering 400 when it
// is malformed. A missing parameter reads as 0.
func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return n, true
}
