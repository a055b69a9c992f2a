package config

import (
	"os"
	"strings"
)

// Environment selects where secrets are read from and which are required.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"":            Development,
	"dev":         Development,
	"development": Development,
	"local":       Development,
	"test":        Test,
	"testing":     Test,
	"prod":        Production,
	"production":  Production,
}

// GetEnvironment reads ENV. CI=true wins over ENV. Unrecognized names are
// returned as given so LoadConfig can reject them.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}
	name := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env, ok := environmentAliases[name]; ok {
		return env
	}
	return Environment(name)
}

// IsProduction reports whether secrets must come from the secrets directory only.
func IsProduction() bool {
	return GetEnvironment() == Production
}
