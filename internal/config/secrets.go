package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Secrets holds sensitive configuration loaded from environment variables
// SECURITY: Use environment variables instead of CLI flags for secrets
// CLI flags are visible in process listings (ps auxww)
type Secrets struct {
	// APIToken authenticates callers of the management API
	// Env: SHELLGATE_API_TOKEN
	APIToken string `envconfig:"SHELLGATE_API_TOKEN"`
}

// LoadSecrets loads secrets from environment variables
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("failed to load secrets from environment: %w", err)
	}
	return &s, nil
}

// ValidateForServe validates that secrets required by the API server are set
func (s *Secrets) ValidateForServe() error {
	if s.APIToken == "" {
		return errors.New("API token is required to serve (set SHELLGATE_API_TOKEN)")
	}
	if len(s.APIToken) < 16 {
		return errors.New("API token must be at least 16 characters")
	}
	return nil
}

// MaskAPIToken returns a masked version of the API token for logging
func (s *Secrets) MaskAPIToken() string {
	if s.APIToken == "" {
		return "(not set)"
	}
	if len(s.APIToken) <= 8 {
		return "****"
	}
	return s.APIToken[:4] + "****" + s.APIToken[len(s.APIToken)-4:]
}
