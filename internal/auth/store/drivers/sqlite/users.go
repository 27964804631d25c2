package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
	"github.com/coachhub/platform/internal/auth/store"
)

type usersRepo struct {
	db DBTX
}

const userColumns = `id, email, phone, first_name, last_name, password_hash, role, is_active,
	refresh_token_hash, refresh_token_expires_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                  domain.User
		role               string
		active             int64
		refreshHash        sql.NullString
		refreshExpiresAt   sql.NullInt64
		createdAt, updated int64
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Phone, &u.FirstName, &u.LastName, &u.PasswordHash,
		&role, &active, &refreshHash, &refreshExpiresAt, &createdAt, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Role = domain.Role(role)
	u.IsActive = active != 0
	u.RefreshTokenHash = mapNullStringPtr(refreshHash)
	u.RefreshTokenExpiresAt = mapNullMillis(refreshExpiresAt)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email))
}

func (r *usersRepo) GetUserByPhone(ctx context.Context, phone string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = ?`, phone))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, phone, first_name, last_name, password_hash, role, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Phone, u.FirstName, u.LastName, u.PasswordHash,
		string(u.Role), boolToInt(u.IsActive), toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapWriteError(err)
}

func (r *usersRepo) SetRefreshToken(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_hash = ?, refresh_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		hash, toMillis(expiresAt), toMillis(time.Now()), userID,
	)
	return expectRow(res, err, store.ErrNotFound)
}

func (r *usersRepo) RotateRefreshToken(
	ctx context.Context,
	userID, currentHash, newHash string,
	expiresAt time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_hash = ?, refresh_token_expires_at = ?, updated_at = ?
		WHERE id = ? AND refresh_token_hash = ?`,
		newHash, toMillis(expiresAt), toMillis(time.Now()), userID, currentHash,
	)
	return expectRow(res, err, store.ErrConditionFailed)
}

func (r *usersRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = ?
		WHERE id = ?`,
		toMillis(time.Now()), userID,
	)
	return expectRow(res, err, store.ErrNotFound)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?`,
		boolToInt(active), toMillis(time.Now()), userID,
	)
	return expectRow(res, err, store.ErrNotFound)
}

func (r *usersRepo) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET refresh_token_hash = NULL, refresh_token_expires_at = NULL
		WHERE refresh_token_expires_at IS NOT NULL AND refresh_token_expires_at <= ?`,
		toMillis(now),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// expectRow returns none when the statement touched zero rows.
func expectRow(res sql.Result, err error, none error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
