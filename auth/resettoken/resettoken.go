// Package resettoken issues and verifies signed password reset tokens.
//
// A token embeds a fingerprint of the user's current password hash, so it stops
// verifying as soon as the password changes. That makes every token single use.
package resettoken

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/users"
)

const (
	issuer  = "nutrition-site"
	purpose = "password_reset"
)

// Claims carried by a reset token
type Claims struct {
	Email       string `json:"email"`
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp"`
	jwtlib.RegisteredClaims
}

// Manager signs and parses reset tokens with HS256
type Manager struct {
	secret  []byte
	expiry  time.Duration
	nowTime func() time.Time
}

type Option func(*Manager)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = now
	}
}

// New creates a Manager. An empty secret generates a random one.
func New(secret string, expiry time.Duration, opts ...Option) (*Manager, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("[resettoken New] generate secret: %w", err)
		}
	}
	m := &Manager{secret: key, expiry: expiry, nowTime: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue creates a token for user
func (m *Manager) Issue(user *users.User) (string, error) {
	now := m.nowTime()
	claims := Claims{
		Email:       user.Email,
		Purpose:     purpose,
		Fingerprint: Fingerprint(user.PasswordHash),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(m.expiry)),
			ID:        uuid.New().String(),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("[resettoken Issue] sign: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature, expiry and purpose of a token
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwtlib.WithIssuer(issuer),
		jwtlib.WithTimeFunc(m.nowTime),
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, siteerrors.ErrTokenExpired
		}
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidToken, "%v", err)
	}
	if claims.Purpose != purpose {
		return nil, siteerrors.ErrInvalidToken
	}
	return claims, nil
}

// Verify parses token and checks it still matches user's current password
func (m *Manager) Verify(token string, user *users.User) (*Claims, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject != user.ID || claims.Fingerprint != Fingerprint(user.PasswordHash) {
		return nil, siteerrors.ErrInvalidToken
	}
	return claims, nil
}

// Fingerprint is a short digest of a password hash
func Fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
