package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Action is a normalized feedback label.
type Action string

const (
	ActionLike     Action = "like"
	ActionFavorite Action = "favorite"
	ActionSave     Action = "save"
	ActionLove     Action = "love"
	ActionDislike  Action = "dislike"
	ActionView     Action = "view"
)

var actionAliases = map[string]Action{
	"liked":      ActionLike,
	"likes":      ActionLike,
	"favourite":  ActionFavorite,
	"favorited":  ActionFavorite,
	"favourited": ActionFavorite,
	"fav":        ActionFavorite,
	"saved":      ActionSave,
	"loved":      ActionLove,
	"disliked":   ActionDislike,
	"viewed":     ActionView,
}

var positiveActions = map[Action]bool{
	ActionLike:     true,
	ActionFavorite: true,
	ActionSave:     true,
	ActionLove:     true,
}

// NormalizeAction lower-cases and trims a raw label and folds known aliases
// onto their canonical form. Unknown labels are kept as given (normalized
// case). ok is false for a blank label.
func NormalizeAction(label string) (a Action, ok bool) {
	s := strings.ToLower(strings.TrimSpace(label))
	if s == "" {
		return "", false
	}
	if canonical, found := actionAliases[s]; found {
		return canonical, true
	}
	return Action(s), true
}

// IsPositive reports whether the action counts as positive feedback.
func (a Action) IsPositive() bool {
	return positiveActions[a]
}

// PositiveActionLabels lists the stored labels read as positive feedback. It
// includes the legacy "liked" spelling written before labels were normalized.
func PositiveActionLabels() []string {
	return []string{"like", "liked", "favorite", "save", "love"}
}

// UserRecipeAction is one append-only feedback event.
type UserRecipeAction struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeID  int64     `gorm:"not null;index" json:"recipe_id"`
	Action    Action    `gorm:"not null" json:"action"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (UserRecipeAction) TableName() string {
	return "user_recipe_actions"
}
