package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config interface {
	EnvConfig
	CorsConfig
	SecurityConfig
	SSOConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetDatabasePath() string
	GetContentFile() string
	GetLogLevel() string
	GetLogFormat() string
	GetAdminEmail() string
	GetAdminPassword() string
	GetSmtpHost() string
	GetSmtpPort() string
	GetSmtpAccount() string
	GetSmtpPassword() string
	GetSmtpRecipient() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Security
	SSO
}

// New loads .env files (if present) and parses the environment into a Config.
func New() (Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	c := mainConfig{}
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	return c, nil
}

// Default returns a Config built only from struct defaults, ignoring the environment.
func Default() Config {
	c := mainConfig{}
	_ = env.ParseWithOptions(&c, env.Options{Environment: map[string]string{}})
	return c
}
