package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/inferio-2004/recipe-generator/internal/middleware"
	"github.com/inferio-2004/recipe-generator/internal/mocks"
	"github.com/inferio-2004/recipe-generator/internal/types"
)

const validToken = "valid-token"

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router      *gin.Engine
	recommender *mocks.MockRecommender
	feedback    *mocks.MockFeedbackService
	recipes     *mocks.MockRecipeService
	userID      uuid.UUID
}

// prefixResolver stands in for S3 presigning.
type prefixResolver struct{}

func (prefixResolver) Resolve(ctx context.Context, ref string) string {
	return "https://cdn.example.com/" + strings.TrimPrefix(ref, "s3://bucket/")
}

func newTestEnv(t *testing.T, images ImageResolver) *testEnv {
	t.Helper()
	env := &testEnv{
		router:      gin.New(),
		recommender: new(mocks.MockRecommender),
		feedback:    new(mocks.MockFeedbackService),
		recipes:     new(mocks.MockRecipeService),
		userID:      uuid.New(),
	}

	validator := new(mocks.MockTokenValidator)
	validator.On("ValidateToken", validToken).Return(&types.TokenClaims{UserID: env.userID}, nil)
	validator.On("ValidateToken", mock.Anything).Return(nil, errors.New("invalid token"))

	env.router.Use(middleware.ErrorHandler())
	v1 := env.router.Group("/api/v1")
	NewRecommendHandler(env.recommender, env.feedback, validator, nil, images).RegisterRoutes(v1)
	NewRecipeHandler(env.recipes, validator, nil, images).RegisterRoutes(v1)

	t.Cleanup(func() {
		env.recommender.AssertExpectations(t)
		env.feedback.AssertExpectations(t)
		env.recipes.AssertExpectations(t)
	})
	return env
}

func (e *testEnv) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+validToken)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode %q: %v", rr.Body.String(), err)
	}
	return v
}

