package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db *sql.DB
}

const userColumns = `id, email, name, password_hash, role, date_joined, last_login, verified, blocked, password_change_required`

// Upsert stores the user. The email must not belong to another user; two
// concurrent inserts for one email are settled by the UNIQUE index.
func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	user.Email = users.NormaliseEmail(user.Email)

	existing, err := r.GetByEmail(ctx, user.Email)
	switch {
	case err == nil && existing.ID != user.ID:
		return siteerrors.ErrUserExists
	case err != nil && !errors.Is(err, siteerrors.ErrUserNotFound):
		return err
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			name = excluded.name,
			password_hash = excluded.password_hash,
			role = excluded.role,
			date_joined = excluded.date_joined,
			last_login = excluded.last_login,
			verified = excluded.verified,
			blocked = excluded.blocked,
			password_change_required = excluded.password_change_required`,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role),
		toMillis(user.DateJoined), toMillis(user.LastLogin),
		boolToInt(user.Verified), boolToInt(user.Blocked), boolToInt(user.PasswordChangeRequired),
	)
	if isUniqueViolation(err) {
		return siteerrors.ErrUserExists
	}
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *UserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, users.NormaliseEmail(email))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return siteerrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, users.NormaliseEmail(email))
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) (users.UsersListResponse, error) {
	resp := users.UsersListResponse{Offset: offset, Limit: limit}
	total, err := r.Count(ctx)
	if err != nil {
		return resp, err
	}
	resp.Total = total

	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return resp, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return resp, err
		}
		resp.Users = append(resp.Users, u)
	}
	return resp, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*users.User, error) {
	var (
		u                               users.User
		role                            string
		joined, lastLogin               int64
		verified, blocked, mustChangePw int
	)
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &role, &joined, &lastLogin, &verified, &blocked, &mustChangePw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteerrors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Role = users.RoleType(role)
	u.DateJoined = fromMillis(joined)
	u.LastLogin = fromMillis(lastLogin)
	u.Verified = verified != 0
	u.Blocked = blocked != 0
	u.PasswordChangeRequired = mustChangePw != 0
	return &u, nil
}
