package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tabify/order-sync/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub user repository
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byPhone   map[string]*domain.User
	bySession map[string]*domain.User
	nextID    int
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byPhone:   make(map[string]*domain.User),
		bySession: make(map[string]*domain.User),
	}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	if existing, ok := r.byPhone[u.Phone]; ok {
		clone := *existing
		return &clone, nil
	}
	r.nextID++
	clone := *u
	clone.ID = clone.Phone + "-id"
	r.byPhone[clone.Phone] = &clone
	r.bySession[clone.SessionKey] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByPhone(_ context.Context, phone string) (*domain.User, error) {
	u, ok := r.byPhone[phone]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindBySessionKey(_ context.Context, key string) (*domain.User, error) {
	u, ok := r.bySession[key]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) OwnerExists(_ context.Context) (bool, error) {
	for _, u := range r.byPhone {
		if u.Role == domain.RoleOwner {
			return true, nil
		}
	}
	return false, nil
}

// stubSessionCache records hits and can be primed or broken.
type stubSessionCache struct {
	entries map[string]*domain.User
	getErr  error
	setErr  error
	gets    int
	sets    int
}

func newStubSessionCache() *stubSessionCache {
	return &stubSessionCache{entries: make(map[string]*domain.User)}
}

func (c *stubSessionCache) Get(_ context.Context, key string) (*domain.User, error) {
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *stubSessionCache) Set(_ context.Context, key string, u *domain.User) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[key] = u
	return nil
}

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Register tests
// ---------------------------------------------------------------------------

func TestIdentityService_Register_NewCustomer(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, discardLogger)

	user, err := svc.Register(context.Background(), "Alice", "+5215550001", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("expected default role customer, got %q", user.Role)
	}
	if user.SessionKey == "" {
		t.Error("session key must be generated")
	}
	if user.ID == "" {
		t.Error("user id must be assigned")
	}
}

func TestIdentityService_Register_IdempotentByPhone(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, discardLogger)

	first, err := svc.Register(context.Background(), "Alice", "+5215550001", "customer")
	if err != nil {
		t.Fatalf("first register: %v", err)
	}
	second, err := svc.Register(context.Background(), "Someone Else", "+5215550001", "customer")
	if err != nil {
		t.Fatalf("second register: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected same user id, got %q and %q", first.ID, second.ID)
	}
	if second.Name != "Alice" {
		t.Errorf("re-registration must not update the name, got %q", second.Name)
	}
	if second.SessionKey != first.SessionKey {
		t.Error("re-registration must return the stored session key")
	}
}

func TestIdentityService_Register_SecondOwnerRejected(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, discardLogger)

	if _, err := svc.Register(context.Background(), "Boss", "+5215550100", "owner"); err != nil {
		t.Fatalf("first owner: %v", err)
	}

	_, err := svc.Register(context.Background(), "Impostor", "+5215550101", "owner")
	if !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}
}

func TestIdentityService_Register_ConcurrentOwnerLosesRace(t *testing.T) {
	// OwnerExists can pass for two racing owner registrations; the store's
	// unique owner constraint rejects the loser at insert time and that
	// rejection must surface as the role conflict.
	repo := newStubUserRepo()
	repo.createErr = domain.ErrRoleConflict
	svc := NewIdentityService(repo, nil, discardLogger)

	_, err := svc.Register(context.Background(), "Boss", "+5215550100", "owner")
	if !errors.Is(err, domain.ErrRoleConflict) {
		t.Fatalf("expected ErrRoleConflict, got %v", err)
	}
}

func TestIdentityService_Register_ExistingOwnerPhoneStillRestores(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, discardLogger)

	owner, _ := svc.Register(context.Background(), "Boss", "+5215550100", "owner")

	// Same phone again, still role owner: restore, not conflict.
	restored, err := svc.Register(context.Background(), "Boss", "+5215550100", "owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if restored.ID != owner.ID {
		t.Errorf("expected restored owner %q, got %q", owner.ID, restored.ID)
	}
}

func TestIdentityService_Register_InvalidInput(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), nil, discardLogger)

	cases := []struct {
		name, phone, role string
		want              error
	}{
		{"", "+5215550001", "customer", domain.ErrInvalidUser},
		{"Alice", "", "customer", domain.ErrInvalidUser},
		{"Alice", "+5215550001", "admin", domain.ErrInvalidRole},
	}
	for _, tc := range cases {
		if _, err := svc.Register(context.Background(), tc.name, tc.phone, tc.role); !errors.Is(err, tc.want) {
			t.Errorf("Register(%q,%q,%q): expected %v, got %v", tc.name, tc.phone, tc.role, tc.want, err)
		}
	}
}

// ---------------------------------------------------------------------------
// ResolveSession tests
// ---------------------------------------------------------------------------

func TestIdentityService_ResolveSession_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewIdentityService(repo, nil, discardLogger)

	user, _ := svc.Register(context.Background(), "Alice", "+5215550001", "customer")

	resolved, err := svc.ResolveSession(context.Background(), user.SessionKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("expected user %q, got %q", user.ID, resolved.ID)
	}
}

func TestIdentityService_ResolveSession_Unknown(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), nil, discardLogger)

	_, err := svc.ResolveSession(context.Background(), "nope")
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestIdentityService_ResolveSession_EmptyKey(t *testing.T) {
	svc := NewIdentityService(newStubUserRepo(), nil, discardLogger)

	_, err := svc.ResolveSession(context.Background(), "")
	if !errors.Is(err, domain.ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestIdentityService_ResolveSession_WarmsAndHitsCache(t *testing.T) {
	repo := newStubUserRepo()
	cache := newStubSessionCache()
	svc := NewIdentityService(repo, cache, discardLogger)

	user, _ := svc.Register(context.Background(), "Alice", "+5215550001", "customer")

	if _, err := svc.ResolveSession(context.Background(), user.SessionKey); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("expected cache warm after miss, sets=%d", cache.sets)
	}

	// Break the repo: a cache hit must not reach it.
	repo.bySession = map[string]*domain.User{}
	resolved, err := svc.ResolveSession(context.Background(), user.SessionKey)
	if err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("expected cached user %q, got %q", user.ID, resolved.ID)
	}
}

func TestIdentityService_ResolveSession_CacheFailureIsNonFatal(t *testing.T) {
	repo := newStubUserRepo()
	cache := newStubSessionCache()
	cache.getErr = errors.New("redis down")
	cache.setErr = errors.New("redis down")
	svc := NewIdentityService(repo, cache, discardLogger)

	user, _ := svc.Register(context.Background(), "Alice", "+5215550001", "customer")

	resolved, err := svc.ResolveSession(context.Background(), user.SessionKey)
	if err != nil {
		t.Fatalf("expected fallback to store, got %v", err)
	}
	if resolved.ID != user.ID {
		t.Errorf("expected user %q, got %q", user.ID, resolved.ID)
	}
}
