package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

// SessionCache abstracts the session credential lookaside cache (Redis).
// Get returns (nil, nil) on a miss.
type SessionCache interface {
	Get(ctx context.Context, sessionKey string) (*domain.User, error)
	Set(ctx context.Context, sessionKey string, user *domain.User) error
}

// IdentityService implements registration and session resolution.
type IdentityService struct {
	repo  ports.UserRepository
	cache SessionCache // optional
	log   zerolog.Logger
}

func NewIdentityService(repo ports.UserRepository, cache SessionCache, log zerolog.Logger) *IdentityService {
	return &IdentityService{repo: repo, cache: cache, log: log}
}

// Register creates a user or restores an existing one by phone number.
// The phone is the natural key: an existing user is returned unchanged,
// name and role from the request are ignored. Only one owner may exist.
func (s *IdentityService) Register(ctx context.Context, name, phone, role string) (*domain.User, error) {
	if name == "" || phone == "" {
		return nil, domain.ErrInvalidUser
	}
	if role == "" {
		role = string(domain.RoleCustomer)
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	existing, err := s.repo.FindByPhone(ctx, phone)
	if err == nil {
		s.log.Debug().Str("phone", phone).Str("user_id", existing.ID).Msg("existing user restored")
		return existing, nil
	}
	if err != domain.ErrUserNotFound {
		return nil, fmt.Errorf("register: %w", err)
	}

	if domain.Role(role) == domain.RoleOwner {
		hasOwner, err := s.repo.OwnerExists(ctx)
		if err != nil {
			return nil, fmt.Errorf("register: %w", err)
		}
		if hasOwner {
			return nil, domain.ErrRoleConflict
		}
	}

	user := &domain.User{
		Name:       name,
		Phone:      phone,
		Role:       domain.Role(role),
		SessionKey: uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("failed to create user")
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("user registered")
	return created, nil
}

// ResolveSession looks up the user holding the given session credential.
// The cache is consulted first; cache failures are logged and never fail
// the lookup.
func (s *IdentityService) ResolveSession(ctx context.Context, sessionKey string) (*domain.User, error) {
	if sessionKey == "" {
		return nil, domain.ErrInvalidSession
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, sessionKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("session cache lookup failed, falling back to store")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.repo.FindBySessionKey(ctx, sessionKey)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrInvalidSession
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionKey, user); err != nil {
			s.log.Warn().Err(err).Msg("failed to warm session cache")
		}
	}

	return user, nil
}
