package config

import (
	"strconv"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetLoginPath() string
	GetRefreshPath() string
	GetInvalidTokenCode() string
	GetRequiredRoleFlag() string
	GetAPITimeout() time.Duration
	GetRefreshCoalescing() bool
}

const (
	apiBaseURLEnvVar       = "API_BASE_URL"
	apiTimeoutEnvVar       = "API_TIMEOUT"
	requiredRoleFlagEnvVar = "REQUIRED_ROLE_FLAG"
	coalesceEnvVar         = "REFRESH_COALESCING"
)

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the backend REST API root (e.g., "https://api.example.com")
func (API) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLEnvVar, "http://localhost:8000")
}

func (API) GetLoginPath() string {
	return "/api/auth/login/"
}

func (API) GetRefreshPath() string {
	return "/api/auth/token/refresh/"
}

// GetInvalidTokenCode is the `code` value the backend puts in bodies of rejected tokens
func (API) GetInvalidTokenCode() string {
	return "token_not_valid"
}

// GetRequiredRoleFlag names the boolean on the user record that grants dashboard access
func (API) GetRequiredRoleFlag() string {
	return GetEnv(requiredRoleFlagEnvVar, "is_partner")
}

// GetAPITimeout returns the client timeout, 0 leaves the transport defaults in place
func (API) GetAPITimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv(apiTimeoutEnvVar, "0s"))
	if err != nil {
		return 0
	}
	return d
}

func (API) GetRefreshCoalescing() bool {
	b, _ := strconv.ParseBool(GetEnv(coalesceEnvVar, "false"))
	return b
}
