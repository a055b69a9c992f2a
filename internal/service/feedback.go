package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/inferio-2004/recipe-generator/internal/logging"
	"github.com/inferio-2004/recipe-generator/internal/model"
)

var (
	// ErrInvalidFeedback is returned for feedback missing a recipe or action,
	// or with a rating outside 1..5.
	ErrInvalidFeedback = errors.New("invalid feedback")
	// ErrRecipeNotFound is returned when a referenced recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")
)

// FeedbackRequest is one feedback event as submitted by a client.
type FeedbackRequest struct {
	RecipeID int64
	Action   string
	Rating   *int
}

type FeedbackService struct {
	store FeedbackStore
}

func NewFeedbackService(store FeedbackStore) *FeedbackService {
	return &FeedbackService{store: store}
}

// RecordFeedback appends a feedback event for userID. The action label is
// normalized before it is stored so later reads match it case-insensitively.
func (s *FeedbackService) RecordFeedback(ctx context.Context, userID uuid.UUID, req FeedbackRequest) (*model.UserRecipeAction, error) {
	if req.RecipeID <= 0 {
		return nil, fmt.Errorf("%w: recipe_id is required", ErrInvalidFeedback)
	}
	action, ok := model.NormalizeAction(req.Action)
	if !ok {
		return nil, fmt.Errorf("%w: action is required", ErrInvalidFeedback)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidFeedback)
	}

	exists, err := s.store.RecipeExists(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrRecipeNotFound
	}

	event := &model.UserRecipeAction{
		UserID:   userID,
		RecipeID: req.RecipeID,
		Action:   action,
		Rating:   req.Rating,
	}
	if err := s.store.AppendAction(ctx, event); err != nil {
		return nil, err
	}

	log := logging.Component("feedback")
	log.Debug().Str("user_id", userID.String()).Int64("recipe_id", req.RecipeID).Str("action", string(action)).Msg("feedback recorded")
	return event, nil
}
