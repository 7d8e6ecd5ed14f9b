package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port          string `env:"PORT" envDefault:"8080"`
	AppName       string `env:"APP_NAME" envDefault:"Nourish Nutrition"`
	Env           string `env:"ENV" envDefault:"DEV"`
	BaseURL       string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	DatabasePath  string `env:"DATABASE_PATH"`
	ContentFile   string `env:"CONTENT_FILE"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"console"`
	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@localhost"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	SmtpHost      string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SmtpPort      string `env:"SMTP_PORT" envDefault:"587"`
	SmtpAccount   string `env:"SMTP_ACCOUNT"`
	SmtpPassword  string `env:"SMTP_PASSWORD"`
	SmtpRecipient string `env:"EMAIL_RECIPIENT"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

// GetBaseURL returns the public URL of the site (e.g., "https://nourish.example.com").
// Used for links in outgoing emails and the SSO redirect URI.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimSuffix(e.BaseURL, "/")
}

// GetDatabasePath returns the SQLite file path. Empty means in-memory repositories.
func (e EnvVars) GetDatabasePath() string {
	return e.DatabasePath
}

func (e EnvVars) GetContentFile() string {
	return e.ContentFile
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) GetLogFormat() string {
	return e.LogFormat
}

func (e EnvVars) GetAdminEmail() string {
	return e.AdminEmail
}

func (e EnvVars) GetAdminPassword() string {
	return e.AdminPassword
}

func (e EnvVars) GetSmtpHost() string {
	return e.SmtpHost
}

func (e EnvVars) GetSmtpPort() string {
	return e.SmtpPort
}

func (e EnvVars) GetSmtpAccount() string {
	return e.SmtpAccount
}

func (e EnvVars) GetSmtpPassword() string {
	return e.SmtpPassword
}

func (e EnvVars) GetSmtpRecipient() string {
	return e.SmtpRecipient
}
