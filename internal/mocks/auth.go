package mocks

import (
	"github.com/inferio-2004/recipe-generator/internal/types"
	"github.com/stretchr/testify/mock"
)

// MockTokenValidator implements middleware.TokenValidator for testing
type MockTokenValidator struct {
	mock.Mock
}

func (v *MockTokenValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	args := v.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}
