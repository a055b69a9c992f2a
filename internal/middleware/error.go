package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/inferio-2004/recipe-generator/internal/logging"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler recovers panics and logs errors attached with c.Error. When a
// handler recorded an error without writing a response, a generic 500 is sent.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.Component("http")
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
			}
		}()

		c.Next()

		for _, e := range c.Errors {
			log.Error().Err(e.Err).
				Str("method", c.Request.Method).
				Str("path", c.FullPath()).
				Int("status", c.Writer.Status()).
				Msg("request failed")
		}
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Server error"})
		}
	}
}

// RequestLogger logs one line per request at debug, or warn for 5xx responses.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logging.Component("http")
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		event := log.Debug()
		if status >= http.StatusInternalServerError {
			event = log.Warn()
		}
		event.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
