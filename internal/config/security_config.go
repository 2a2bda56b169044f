package config

import "time"

type SecurityConfig interface {
	GetSessionCookieName() string
	GetMaxSessionAge() time.Duration
	GetSecureCookies() bool
	GetSessionSecret() string
}

const sessionSecretEnvVar = "SESSION_SECRET"

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionCookieName() string {
	return "dashboard_session"
}

func (Security) GetMaxSessionAge() time.Duration {
	return 24 * time.Hour
}

// GetSecureCookies reports whether cookies carry the Secure flag (off in DEV)
func (Security) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() != "DEV"
}

// GetSessionSecret is the key material for sessions persisted to disk
func (Security) GetSessionSecret() string {
	return GetEnv(sessionSecretEnvVar, "")
}
