package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	errs "github.com/jrsteele09/go-partner-dashboard/internal/errors"
	"gopkg.in/yaml.v3"
)

// File is the optional YAML configuration. Zero values fall back to the environment.
type File struct {
	App      AppFile      `yaml:"app"`
	API      APIFile      `yaml:"api"`
	Security SecurityFile `yaml:"security"`
}

// AppFile configures the process
type AppFile struct {
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
}

// APIFile configures the backend the gateway talks to
type APIFile struct {
	// BaseURL is the backend root (e.g., "https://api.example.com")
	BaseURL string `yaml:"base_url"`
	// InvalidTokenCode overrides the body code that marks a rejected token
	InvalidTokenCode string `yaml:"invalid_token_code"`
	// RequiredRoleFlag is the user flag checked at sign-in
	RequiredRoleFlag string `yaml:"required_role_flag"`
	// Timeout bounds every backend call, 0 uses transport defaults
	Timeout time.Duration `yaml:"timeout"`
	// CoalesceRefresh shares one in-flight refresh across concurrent calls
	CoalesceRefresh bool `yaml:"coalesce_refresh"`
}

// SecurityFile configures session cookies
type SecurityFile struct {
	CookieName    string        `yaml:"cookie_name"`
	MaxSessionAge time.Duration `yaml:"max_session_age"`
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	f := &File{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return f, nil
}

// Validate checks that the configured values are usable
func (f *File) Validate() error {
	if f.API.BaseURL != "" {
		u, err := url.Parse(f.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errs.Wrapf(errs.ErrInvalidConfig, "api.base_url %q must be an absolute URL", f.API.BaseURL)
		}
	}
	if f.API.Timeout < 0 {
		return errs.Wrapf(errs.ErrInvalidConfig, "api.timeout must not be negative")
	}
	if f.Security.MaxSessionAge < 0 {
		return errs.Wrapf(errs.ErrInvalidConfig, "security.max_session_age must not be negative")
	}
	return nil
}

// Overlay returns a Config where the file's non-zero values take precedence over base
func (f *File) Overlay(base Config) Config {
	return overlay{Config: base, file: f}
}

type overlay struct {
	Config
	file *File
}

func pick(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func (o overlay) GetAppName() string {
	return pick(o.file.App.Name, o.Config.GetAppName())
}

func (o overlay) GetPort() string {
	if o.file.App.Port == "" {
		return o.Config.GetPort()
	}
	return ":" + o.file.App.Port
}

func (o overlay) GetEnv() string {
	return pick(o.file.App.Env, o.Config.GetEnv())
}

func (o overlay) GetLogLevel() string {
	return pick(o.file.App.LogLevel, o.Config.GetLogLevel())
}

func (o overlay) GetAPIBaseURL() string {
	return pick(o.file.API.BaseURL, o.Config.GetAPIBaseURL())
}

func (o overlay) GetInvalidTokenCode() string {
	return pick(o.file.API.InvalidTokenCode, o.Config.GetInvalidTokenCode())
}

func (o overlay) GetRequiredRoleFlag() string {
	return pick(o.file.API.RequiredRoleFlag, o.Config.GetRequiredRoleFlag())
}

func (o overlay) GetAPITimeout() time.Duration {
	if o.file.API.Timeout > 0 {
		return o.file.API.Timeout
	}
	return o.Config.GetAPITimeout()
}

func (o overlay) GetRefreshCoalescing() bool {
	return o.file.API.CoalesceRefresh || o.Config.GetRefreshCoalescing()
}

func (o overlay) GetSessionCookieName() string {
	return pick(o.file.Security.CookieName, o.Config.GetSessionCookieName())
}

func (o overlay) GetMaxSessionAge() time.Duration {
	if o.file.Security.MaxSessionAge > 0 {
		return o.file.Security.MaxSessionAge
	}
	return o.Config.GetMaxSessionAge()
}

// GetSecureCookies follows the overlaid environment name
func (o overlay) GetSecureCookies() bool {
	return o.GetEnv() != "DEV"
}
