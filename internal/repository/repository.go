// Package repository declares the storage contracts the services depend on.
// Implementations live in the sqlite and postgres subpackages.
package repository

import (
	"context"

	"github.com/sakif/user-auth/internal/model"
)

// UserRepository persists user records.
//
// Implementations must:
//   - fill ID, CreatedAt and UpdatedAt on Create
//   - return an error wrapping apperror.ErrConflict when the username is taken
//   - return an error wrapping apperror.ErrNotFound from the getters when no row matches
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Store is a UserRepository that owns a connection which must be released.
type Store interface {
	UserRepository
	Ping(ctx context.Context) error
	Close() error
}
