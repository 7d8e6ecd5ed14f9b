package auth

import (
	"context"
	"crypto/rand"
	"math/big"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/users"
	"github.com/pkg/errors"
)

// EnsureAdmin makes sure email belongs to an admin account.
//
// A missing account is created. When password is empty a random one is generated,
// returned, and the user must change it on first login. An existing account is
// promoted to admin and its password is left alone.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (generatedPassword string, err error) {
	email = users.NormaliseEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}

	existing, err := s.repos.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != users.RoleAdmin {
			existing.Role = users.RoleAdmin
			if err := s.repos.Users.Upsert(ctx, existing); err != nil {
				return "", errors.Wrap(err, "[EnsureAdmin] promote user")
			}
		}
		return "", nil
	case !siteerrors.Is(err, siteerrors.ErrUserNotFound):
		return "", errors.Wrap(err, "[EnsureAdmin] lookup user")
	}

	mustChange := false
	if password == "" {
		password, err = generatePassword(16)
		if err != nil {
			return "", errors.Wrap(err, "[EnsureAdmin] generate password")
		}
		generatedPassword = password
		mustChange = true
	} else if err := users.ValidatePasswordStrength(password); err != nil {
		return "", err
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return "", errors.Wrap(err, "[EnsureAdmin] hash password")
	}
	admin := &users.User{
		Email:                  email,
		Name:                   "Administrator",
		PasswordHash:           hash,
		Role:                   users.RoleAdmin,
		Verified:               true,
		PasswordChangeRequired: mustChange,
		DateJoined:             s.nowTime(),
	}
	if err := s.repos.Users.Upsert(ctx, admin); err != nil {
		return "", errors.Wrap(err, "[EnsureAdmin] create admin")
	}
	return generatedPassword, nil
}

// generatePassword returns a random password that passes ValidatePasswordStrength
func generatePassword(length int) (string, error) {
	const (
		upper  = "ABCDEFGHJKLMNPQRSTUVWXYZ"
		lower  = "abcdefghijkmnopqrstuvwxyz"
		digits = "23456789"
	)
	all := upper + lower + digits
	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	out := make([]byte, 0, length)
	for _, set := range []string{upper, lower, digits} {
		c, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	return string(out), nil
}
