package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const DefaultAdminUsername = "admin"

// InitialiseSystem makes sure the practice has an admin account.
// A generated password is logged once; the admin must change it on first login.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	adminEmail := s.config.GetAdminEmail()
	if adminEmail == "" {
		adminEmail = generateEmailFromBaseURL(DefaultAdminUsername, s.config.GetBaseURL())
	}

	generatedPassword, err := s.services.Auth.EnsureAdmin(ctx, adminEmail, s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	if generatedPassword != "" {
		log.Printf("📋 Site Configuration:")
		log.Printf("   Base URL:    %s", s.config.GetBaseURL())
		log.Printf("   Sign in:     %s%s", s.config.GetBaseURL(), RouteLogin)
		log.Printf("")
		log.Printf("👤 Admin Credentials:")
		log.Printf("   Email:       %s", adminEmail)
		log.Printf("   Password:    %s     (⚠️ required to change on first time login)", generatedPassword)
		log.Printf("")
		if s.services.SSO != nil {
			log.Printf("🔐 Single sign-on callback: %s%s", s.config.GetBaseURL(), RouteCallback)
			log.Printf("")
		}
	}
	return nil
}

// generateEmailFromBaseURL creates an email address from a username and base URL
// Example: ("admin", "https://nourish.example.com/path") -> "admin@nourish.example.com"
func generateEmailFromBaseURL(user, baseURL string) string {
	domain := strings.ReplaceAll(strings.ReplaceAll(baseURL, "https://", ""), "http://", "")
	domain = strings.SplitN(domain, "/", 2)[0] // Remove any path
	domain = strings.SplitN(domain, ":", 2)[0] // Remove port if present
	return fmt.Sprintf("%s@%s", user, domain)
}
