package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

func TestBalanceHandler_List_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubOrderService{
		listBalancesFn: func(ctx context.Context, search string, page, limit int) (*ports.BalancePage, error) {
			if search != "ali" {
				t.Fatalf("unexpected search: %q", search)
			}
			return &ports.BalancePage{
				Rows: []ports.BalanceRow{
					{UserID: "u1", UserName: "Alice", Phone: "555-0100", TotalDue: 25.5, OrderCount: 3},
				},
				TotalCustomers: 1,
				Page:           1,
				Limit:          20,
				TotalPages:     1,
			}, nil
		},
	}
	handler := NewBalanceHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/orders/balances?search=ali", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	balances, ok := resp["balances"].([]any)
	if !ok || len(balances) != 1 {
		t.Fatalf("expected one balance row, got %+v", resp["balances"])
	}
	pagination, ok := resp["pagination"].(map[string]any)
	if !ok || pagination["totalCustomers"] != float64(1) {
		t.Fatalf("unexpected pagination: %+v", resp["pagination"])
	}
}

func TestBalanceHandler_List_EmptyIsArray(t *testing.T) {
	e := newTestEcho()
	stub := &stubOrderService{
		listBalancesFn: func(ctx context.Context, search string, page, limit int) (*ports.BalancePage, error) {
			return &ports.BalancePage{Page: 1, Limit: 20}, nil
		},
	}
	handler := NewBalanceHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/orders/balances", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"balances":[]`) {
		t.Fatalf("expected empty balances array, got %s", rec.Body.String())
	}
}

func TestBalanceHandler_MarkPaid_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubOrderService{
		settleFn: func(ctx context.Context, userID string) (int64, error) {
			if userID != "u1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return 3, nil
		},
	}
	handler := NewBalanceHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/orders/balances/mark-paid", strings.NewReader(`{"userId":"u1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.MarkPaid(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"updatedOrders":3`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestBalanceHandler_MarkPaid_MissingUserID(t *testing.T) {
	e := newTestEcho()
	stub := &stubOrderService{
		settleFn: func(ctx context.Context, userID string) (int64, error) {
			t.Fatalf("should not be called")
			return 0, nil
		},
	}
	handler := NewBalanceHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/orders/balances/mark-paid", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.MarkPaid(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestBalanceHandler_MarkPaid_UnknownUser(t *testing.T) {
	e := newTestEcho()
	stub := &stubOrderService{
		settleFn: func(ctx context.Context, userID string) (int64, error) {
			return 0, domain.ErrInvalidUserID
		},
	}
	handler := NewBalanceHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/orders/balances/mark-paid", strings.NewReader(`{"userId":" "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler.MarkPaid(c)
	if !errors.Is(err, domain.ErrInvalidUserID) {
		t.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}
