package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
)

var _ loginsession.Repo = (*LoginSessionRepo)(nil)

type LoginSessionRepo struct {
	db *sql.DB
}

func (r *LoginSessionRepo) Upsert(ctx context.Context, s loginsession.Session) error {
	if s.ID == "" {
		return fmt.Errorf("sessionID is required")
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO login_sessions
		(id, user_id, email, name, role, just_signed_up, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			name = excluded.name,
			role = excluded.role,
			just_signed_up = excluded.just_signed_up,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at`,
		s.ID, s.UserID, s.Email, s.Name, s.Role, boolToInt(s.JustSignedUp), toMillis(s.CreatedAt), toMillis(s.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("upsert login session: %w", err)
	}
	return nil
}

func (r *LoginSessionRepo) Get(ctx context.Context, sessionID string) (loginsession.Session, error) {
	if sessionID == "" {
		return loginsession.Session{}, fmt.Errorf("sessionID is required")
	}
	var (
		s                  loginsession.Session
		justSignedUp       int
		created, expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, email, name, role, just_signed_up, created_at, expires_at
		FROM login_sessions WHERE id = ?`, sessionID).
		Scan(&s.ID, &s.UserID, &s.Email, &s.Name, &s.Role, &justSignedUp, &created, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return loginsession.Session{}, siteerrors.ErrSessionNotFound
	}
	if err != nil {
		return loginsession.Session{}, fmt.Errorf("get login session: %w", err)
	}
	s.JustSignedUp = justSignedUp != 0
	s.CreatedAt = fromMillis(created)
	s.ExpiresAt = fromMillis(expiresAt)
	return s, nil
}

func (r *LoginSessionRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete login session: %w", err)
	}
	return nil
}

// ClearJustSignedUp clears the flag in one statement so only one caller sees it set
func (r *LoginSessionRepo) ClearJustSignedUp(ctx context.Context, sessionID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE login_sessions SET just_signed_up = 0
		WHERE id = ? AND just_signed_up = 1`, sessionID)
	if err != nil {
		return false, fmt.Errorf("clear just signed up: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear just signed up: %w", err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, sessionID); err != nil {
			return false, err
		}
	}
	return n == 1, nil
}

func (r *LoginSessionRepo) DeleteForUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r *LoginSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}
