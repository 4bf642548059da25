package ports

import (
	"context"

	"github.com/tabify/order-sync/internal/core/domain"
)

// IdentityService resolves session credentials and registers users.
type IdentityService interface {
	// Register is idempotent by phone number: re-registering an existing
	// phone returns the stored user unchanged. A second owner registration
	// fails with domain.ErrRoleConflict.
	Register(ctx context.Context, name, phone, role string) (*domain.User, error)
	// ResolveSession maps an opaque session credential to a user.
	ResolveSession(ctx context.Context, sessionKey string) (*domain.User, error)
}
