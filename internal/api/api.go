package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/inferio-2004/recipe-generator/internal/middleware"
	"github.com/inferio-2004/recipe-generator/internal/service"
)

// Dependencies are the collaborators the HTTP layer needs. RateLimiter and
// Images may be nil.
type Dependencies struct {
	DB          *gorm.DB
	Recommender service.IRecommender
	Feedback    service.IFeedbackService
	Recipes     service.IRecipeService
	Validator   middleware.TokenValidator
	RateLimiter *middleware.RateLimiter
	Images      ImageResolver
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	router.GET("/health", HealthCheck(deps.DB))

	v1 := router.Group("/api/v1")
	{
		NewRecommendHandler(deps.Recommender, deps.Feedback, deps.Validator, deps.RateLimiter, deps.Images).RegisterRoutes(v1)
		NewRecipeHandler(deps.Recipes, deps.Validator, deps.RateLimiter, deps.Images).RegisterRoutes(v1)
	}
}
