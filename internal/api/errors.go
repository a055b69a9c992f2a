package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inferio-2004/recipe-generator/internal/service"
)

// respondError maps service errors onto HTTP responses. Anything unexpected
// is attached to the context for the error handler to log and answered with a
// generic 500.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
