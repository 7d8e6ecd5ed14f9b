// Package sso signs staff in through an external OpenID Connect provider using
// the authorization code flow with PKCE.
package sso

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/server/authflowrepo"
)

// DefaultStateTTL is how long a started sign in may wait for its callback
const DefaultStateTTL = 10 * time.Minute

// Identity is the verified user returned by the provider
type Identity struct {
	Subject string
	Email   string
	Name    string
}

type Provider struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	states   authflowrepo.Repo
	stateTTL time.Duration
	nowTime  func() time.Time
}

type Option func(*Provider)

func WithNowTime(now func() time.Time) Option {
	return func(p *Provider) {
		p.nowTime = now
	}
}

func WithStateTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.stateTTL = ttl
		}
	}
}

// Discover fetches the issuer's metadata and builds a Provider for it
func Discover(ctx context.Context, issuer, clientID, clientSecret, redirectURL string, states authflowrepo.Repo, opts ...Option) (*Provider, error) {
	op, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("[sso Discover] %w", err)
	}
	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     op.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	return New(cfg, op.Verifier(&oidc.Config{ClientID: clientID}), states, opts...), nil
}

// New builds a Provider from an explicit client config and token verifier
func New(cfg *oauth2.Config, verifier *oidc.IDTokenVerifier, states authflowrepo.Repo, opts ...Option) *Provider {
	p := &Provider{
		oauth:    cfg,
		verifier: verifier,
		states:   states,
		stateTTL: DefaultStateTTL,
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// StateTTL is how long flow state is kept
func (p *Provider) StateTTL() time.Duration {
	return p.stateTTL
}

// Begin records a new flow and returns the provider URL to redirect the browser to
func (p *Provider) Begin(ctx context.Context, returnURL string) (string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", err
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	if err := p.states.Upsert(ctx, state, &authflowrepo.AuthFlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		ReturnURL:    safeReturnURL(returnURL),
		CreatedAt:    p.nowTime(),
	}); err != nil {
		return "", fmt.Errorf("[sso Begin] store state: %w", err)
	}

	return p.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier), oidc.Nonce(nonce)), nil
}

// Complete exchanges the callback code and verifies the ID token. The flow
// state is removed whether or not the exchange succeeds.
func (p *Provider) Complete(ctx context.Context, state, code string) (Identity, string, error) {
	if state == "" || code == "" {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "missing code or state")
	}
	flow, err := p.states.Get(ctx, state)
	if err != nil {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrInvalidToken, "unknown state")
	}
	if err := p.states.Delete(ctx, state); err != nil {
		return Identity{}, "", fmt.Errorf("[sso Complete] delete state: %w", err)
	}
	if p.nowTime().Sub(flow.CreatedAt) > p.stateTTL {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrTokenExpired, "sign in took too long")
	}

	token, err := p.oauth.Exchange(ctx, code, oauth2.VerifierOption(flow.CodeVerifier))
	if err != nil {
		return Identity{}, "", fmt.Errorf("[sso Complete] token exchange: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrInvalidToken, "no id_token in response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrInvalidToken, "verify id token: %v", err)
	}

	var claims struct {
		Nonce         string `json:"nonce"`
		Email         string `json:"email"`
		EmailVerified *bool  `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, "", fmt.Errorf("[sso Complete] claims: %w", err)
	}
	if claims.Nonce != flow.Nonce {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrInvalidToken, "nonce mismatch")
	}
	if claims.Email == "" || (claims.EmailVerified != nil && !*claims.EmailVerified) {
		return Identity{}, "", siteerrors.Wrapf(siteerrors.ErrInvalidToken, "no verified email")
	}

	return Identity{Subject: idToken.Subject, Email: claims.Email, Name: claims.Name}, flow.ReturnURL, nil
}

// Cleanup removes flows older than the state TTL
func (p *Provider) Cleanup(ctx context.Context) (int, error) {
	return p.states.DeleteCreatedBefore(ctx, p.nowTime().Add(-p.stateTTL))
}

// safeReturnURL only allows local paths so the callback cannot redirect off site
func safeReturnURL(u string) string {
	if !strings.HasPrefix(u, "/") || strings.HasPrefix(u, "//") || strings.HasPrefix(u, "/\\") {
		return ""
	}
	return u
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
