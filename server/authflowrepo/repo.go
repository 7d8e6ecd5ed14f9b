package authflowrepo

import (
	"context"
	"time"
)

// AuthFlowState is what the login redirect needs to remember until the callback
type AuthFlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(ctx context.Context, state string, authState *AuthFlowState) error
	Get(ctx context.Context, state string) (*AuthFlowState, error)
	Delete(ctx context.Context, state string) error
	// DeleteCreatedBefore removes abandoned flows and returns how many were removed
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}
