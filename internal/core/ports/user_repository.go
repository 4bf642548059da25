package ports

import (
	"context"

	"github.com/tabify/order-sync/internal/core/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create inserts a new user. On a duplicate phone (concurrent
	// registration) the already-stored user is returned instead.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindBySessionKey(ctx context.Context, sessionKey string) (*domain.User, error)
	// OwnerExists reports whether any user currently holds the owner role.
	OwnerExists(ctx context.Context) (bool, error)
}
