package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetResetTokenSecret() string
	GetResetTokenExpiry() time.Duration
	GetSignupBypass() bool
	GetHousekeepingSchedule() string
}

type Security struct {
	MaxSessionAge        time.Duration `env:"SESSION_MAX_AGE" envDefault:"24h"`
	ResetTokenSecret     string        `env:"RESET_TOKEN_SECRET"`
	ResetTokenExpiry     time.Duration `env:"RESET_TOKEN_EXPIRY" envDefault:"1h"`
	SignupBypass         bool          `env:"SIGNUP_BYPASS" envDefault:"true"`
	HousekeepingSchedule string        `env:"HOUSEKEEPING_SCHEDULE" envDefault:"@every 10m"`
}

var _ SecurityConfig = Security{}

func (s Security) GetMaxSessionAge() time.Duration {
	if s.MaxSessionAge <= 0 {
		return 24 * time.Hour
	}
	return s.MaxSessionAge
}

// GetResetTokenSecret returns the HMAC key for password reset tokens.
// Empty means a random key is generated at startup (tokens do not survive restarts).
func (s Security) GetResetTokenSecret() string {
	return s.ResetTokenSecret
}

func (s Security) GetResetTokenExpiry() time.Duration {
	if s.ResetTokenExpiry <= 0 {
		return time.Hour
	}
	return s.ResetTokenExpiry
}

// GetSignupBypass reports whether a freshly signed up user may pass the route guard once.
func (s Security) GetSignupBypass() bool {
	return s.SignupBypass
}

func (s Security) GetHousekeepingSchedule() string {
	return s.HousekeepingSchedule
}
