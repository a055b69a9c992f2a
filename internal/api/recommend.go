package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inferio-2004/recipe-generator/internal/middleware"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

// RecommendHandler serves ingredient and personal recommendations and
// collects feedback on them.
type RecommendHandler struct {
	recommender service.IRecommender
	feedback    service.IFeedbackService
	validator   middleware.TokenValidator
	limiter     *middleware.RateLimiter
	images      ImageResolver
}

func NewRecommendHandler(recommender service.IRecommender, feedback service.IFeedbackService, validator middleware.TokenValidator, limiter *middleware.RateLimiter, images ImageResolver) *RecommendHandler {
	return &RecommendHandler{
		recommender: recommender,
		feedback:    feedback,
		validator:   validator,
		limiter:     limiter,
		images:      images,
	}
}

func (h *RecommendHandler) RegisterRoutes(router *gin.RouterGroup) {
	recommend := router.Group("/recommend")
	{
		recommend.POST("", middleware.OptionalAuth(h.validator), rateLimit(h.limiter, "recommend"), h.Recommend)
		recommend.GET("/user", middleware.AuthMiddleware(h.validator), rateLimit(h.limiter, "recommend_user"), h.RecommendForUser)
		recommend.POST("/feedback", middleware.AuthMiddleware(h.validator), h.RecordFeedback)
	}
}

type recommendRequest struct {
	Ingredients json.RawMessage      `json:"ingredients"`
	Filters     model.DietaryFilters `json:"filters"`
	Limit       int                  `json:"limit"`
}

type feedbackRequest struct {
	RecipeID int64  `json:"recipe_id"`
	Action   string `json:"action"`
	Rating   *int   `json:"rating"`
}

// Recommend ranks recipes for a list of ingredient terms.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var ingredients []string
	if len(req.Ingredients) > 0 && string(req.Ingredients) != "null" {
		if err := json.Unmarshal(req.Ingredients, &ingredients); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ingredients must be an array of strings"})
			return
		}
	}

	recipes, err := h.recommender.Recommend(c.Request.Context(), service.RecommendRequest{
		Ingredients: ingredients,
		Filters:     req.Filters,
		Limit:       req.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resolveImages(c.Request.Context(), h.images, recipes)
	c.JSON(http.StatusOK, recipes)
}

// RecommendForUser returns recommendations built from the caller's feedback.
func (h *RecommendHandler) RecommendForUser(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	recipes, err := h.recommender.RecommendForUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	resolveImages(c.Request.Context(), h.images, recipes)
	c.JSON(http.StatusOK, recipes)
}

// RecordFeedback appends a feedback event for the caller.
func (h *RecommendHandler) RecordFeedback(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipe_id and action required"})
		return
	}

	event, err := h.feedback.RecordFeedback(c.Request.Context(), userID, service.FeedbackRequest{
		RecipeID: req.RecipeID,
		Action:   req.Action,
		Rating:   req.Rating,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func rateLimit(limiter *middleware.RateLimiter, endpoint string) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return limiter.RateLimitMiddleware(endpoint)
}
