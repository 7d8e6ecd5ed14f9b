package loginsession

import (
	"context"
	"time"
)

type Session struct {
	// Core identity
	ID     string
	UserID string
	Email  string
	Name   string
	Role   string

	// Set by signup, cleared by the first guarded navigation that uses it
	JustSignedUp bool

	// Session management
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the session is no longer valid at now
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type Repo interface {
	Upsert(ctx context.Context, session Session) error
	Get(ctx context.Context, sessionID string) (Session, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteForUser(ctx context.Context, userID string) error
	// ClearJustSignedUp clears the flag and reports whether this call was the one that cleared it
	ClearJustSignedUp(ctx context.Context, sessionID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
