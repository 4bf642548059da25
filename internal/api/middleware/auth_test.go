package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tabify/order-sync/internal/core/domain"
)

type stubIdentity struct {
	resolveFn func(ctx context.Context, sessionKey string) (*domain.User, error)
}

func (s *stubIdentity) Register(ctx context.Context, name, phone, role string) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (s *stubIdentity) ResolveSession(ctx context.Context, sessionKey string) (*domain.User, error) {
	return s.resolveFn(ctx, sessionKey)
}

func TestSessionAuth_InjectsUserAndRole(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer key-1")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	identity := &stubIdentity{
		resolveFn: func(ctx context.Context, sessionKey string) (*domain.User, error) {
			if sessionKey != "key-1" {
				t.Fatalf("unexpected session key: %s", sessionKey)
			}
			return &domain.User{ID: "u1", Role: domain.RoleOwner, SessionKey: sessionKey}, nil
		},
	}

	called := false
	handler := SessionAuth(identity)(func(c echo.Context) error {
		called = true
		user, ok := c.Get("user").(*domain.User)
		if !ok || user.ID != "u1" {
			t.Fatalf("user not injected: %+v", c.Get("user"))
		}
		if role, _ := c.Get("role").(string); role != "owner" {
			t.Fatalf("role not injected: %v", c.Get("role"))
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestSessionAuth_MissingHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	identity := &stubIdentity{
		resolveFn: func(ctx context.Context, sessionKey string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	handler := SessionAuth(identity)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSessionAuth_MalformedHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	identity := &stubIdentity{
		resolveFn: func(ctx context.Context, sessionKey string) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	handler := SessionAuth(identity)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestSessionAuth_UnknownSession(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale-key")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	identity := &stubIdentity{
		resolveFn: func(ctx context.Context, sessionKey string) (*domain.User, error) {
			return nil, domain.ErrInvalidSession
		},
	}

	handler := SessionAuth(identity)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	err := handler(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
