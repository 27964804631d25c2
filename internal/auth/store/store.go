package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coachhub/platform/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConditionFailed is returned when a conditional write matched no row,
	// e.g. a refresh rotation whose expected current token was superseded.
	ErrConditionFailed = errors.New("store: condition failed")
)

// UniqueViolation reports which unique column rejected a write. It matches
// ErrAlreadyExists with errors.Is.
type UniqueViolation struct {
	Field string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("store: %s already exists", e.Field)
}

func (e *UniqueViolation) Is(target error) bool { return target == ErrAlreadyExists }

// Store is the root data access interface. Concrete drivers implement this.
// Sub-repositories are exposed as methods so a transaction can hand out the
// same repos bound to the tx, and nothing can start a tx inside a tx.
type Store interface {
	Users() Users

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Inside fn only use the tx store; the sqlite
	// driver holds a single connection.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	GetUserByPhone(ctx context.Context, phone string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID). A
	// duplicate email or phone returns a *UniqueViolation.
	CreateUser(ctx context.Context, u domain.User) error

	// SetRefreshToken unconditionally replaces the stored refresh token
	// fingerprint, superseding whatever was there.
	SetRefreshToken(ctx context.Context, userID, hash string, expiresAt time.Time) error

	// RotateRefreshToken replaces the stored fingerprint only if it still
	// equals currentHash. Otherwise it returns ErrConditionFailed.
	RotateRefreshToken(ctx context.Context, userID, currentHash, newHash string, expiresAt time.Time) error

	// ClearRefreshToken signs the user out of the rotation chain.
	ClearRefreshToken(ctx context.Context, userID string) error

	SetActive(ctx context.Context, userID string, active bool) error

	// ClearExpiredRefreshTokens nulls refresh state whose expiry is at or
	// before now and reports how many users were touched.
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
}
