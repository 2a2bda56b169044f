package config

type Config interface {
	EnvConfig
	APIConfig
	CorsConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	API
	Cors
	Security
}

func New() Config {
	return mainConfig{}
}

// NewFromFile layers the YAML file at path over the environment configuration.
// An empty path returns the environment configuration unchanged.
func NewFromFile(path string) (Config, error) {
	base := New()
	if path == "" {
		return base, nil
	}
	f, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f.Overlay(base), nil
}
