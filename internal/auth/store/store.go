package store

import (
	"context"
	"errors"

	"github.com/woowonjae/blogauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Users() Users
	Roles() Roles

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// Use it for multi-step operations that must be atomic (e.g., user
	// creation plus role assignment). The caller MUST call Commit() or
	// Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// This is the recommended way to handle transactions as it automatically
	// handles commit/rollback logic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources (optional for sqlite).
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
	// GetUserByUsername returns a user with roles loaded. Used during login.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail returns a user with roles loaded.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user row and returns the generated id.
	// Unique-constraint violations map to ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// ExistsByUsername reports whether any row holds the username.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail reports whether any row holds the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ListAll returns every user row (roles not loaded). Used by the
	// credential migration batch.
	ListAll(ctx context.Context) ([]domain.User, error)

	// UpdatePassword sets the stored credential and bumps updated_at.
	UpdatePassword(ctx context.Context, userID int64, credential string) error
}

type Roles interface {
	// GetRoleByName fetches a role by its name.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// AssignRoleToUser writes a user-role assignment row.
	AssignRoleToUser(ctx context.Context, userID, roleID int64) error

	// ListRolesForUser returns the roles assigned to a user.
	ListRolesForUser(ctx context.Context, userID int64) ([]domain.Role, error)
}
