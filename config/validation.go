package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "\n")
}

// sensitiveRequired lists, per environment, whether secrets must be present.
// Development and test run without auth or with anonymous DB users.
var sensitiveRequired = map[Environment]bool{
	Development: false,
	Test:        false,
	CI:          true,
	Production:  true,
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()
	var errs ValidationErrors

	if cfg.DatabaseURL == "" {
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "is required when DATABASE_URL is not set"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "is required when DATABASE_URL is not set"})
		}
	}
	if cfg.EmbeddingURL == "" {
		errs = append(errs, ValidationError{"EMBEDDING_URL", "is required"})
	}
	if cfg.EmbeddingModel == "" {
		errs = append(errs, ValidationError{"EMBEDDING_MODEL", "is required"})
	}
	if cfg.EmbeddingDimension <= 0 {
		errs = append(errs, ValidationError{"EMBEDDING_DIMENSION", "must be positive"})
	}
	if cfg.RecommendMaxLimit <= 0 {
		errs = append(errs, ValidationError{"RECOMMEND_MAX_LIMIT", "must be positive"})
	}

	if sensitiveRequired[env] {
		if cfg.DatabaseURL == "" && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"db_password", "secret is required"})
		}
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"jwt_secret", "secret is required"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
