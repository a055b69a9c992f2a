package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inferio-2004/recipe-generator/internal/testhelpers"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()
	r.GET("/", rl.RateLimitMiddleware("recommend"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiterWithoutRedisPassesThrough(t *testing.T) {
	r := limitedRouter(NewRateLimiter(nil, RateLimitConfig{Limit: 1}))
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	client := testhelpers.SetupRedis(t)
	r := limitedRouter(NewRateLimiter(client, RateLimitConfig{Limit: 2, Window: time.Minute, KeyPrefix: "test"}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
		if i == 0 {
			assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own window.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
