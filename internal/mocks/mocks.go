package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/inferio-2004/recipe-generator/internal/model"
	"github.com/inferio-2004/recipe-generator/internal/repository"
	"github.com/stretchr/testify/mock"
)

// MockEmbedder is a mock implementation of service.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockRecommendStore is a mock implementation of service.RecommendStore
type MockRecommendStore struct {
	mock.Mock
}

func (m *MockRecommendStore) NearestCluster(ctx context.Context, vec []float32) (*int64, error) {
	args := m.Called(ctx, vec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*int64), args.Error(1)
}

func (m *MockRecommendStore) SearchByVector(ctx context.Context, q repository.VectorQuery) ([]repository.Candidate, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Candidate), args.Error(1)
}

func (m *MockRecommendStore) MatchByTrigram(ctx context.Context, terms []string, filters model.DietaryFilters, threshold float64, limit int) ([]model.Recipe, error) {
	args := m.Called(ctx, terms, filters, threshold, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecommendStore) MatchBySubstring(ctx context.Context, terms []string, filters model.DietaryFilters, limit int) ([]model.Recipe, error) {
	args := m.Called(ctx, terms, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecommendStore) LatestRecipes(ctx context.Context, limit int) ([]model.Recipe, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}

func (m *MockRecommendStore) LikedEmbeddings(ctx context.Context, userID uuid.UUID, labels []string, limit int) ([]repository.RecipeEmbedding, error) {
	args := m.Called(ctx, userID, labels, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.RecipeEmbedding), args.Error(1)
}

func (m *MockRecommendStore) CooccurrenceRecommendations(ctx context.Context, userID uuid.UUID, labels []string, limit int) ([]model.Recipe, error) {
	args := m.Called(ctx, userID, labels, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipe), args.Error(1)
}
