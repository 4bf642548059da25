package ports

import (
	"context"

	"github.com/tabify/order-sync/internal/core/domain"
)

// OrderItemInput is a single line item from the creation request.
type OrderItemInput struct {
	Name     string
	Quantity int
	Price    float64
}

// CreateOrderInput carries all data needed to place a new order.
// TotalAmount is trusted input and stored as-is.
type CreateOrderInput struct {
	SessionKey  string
	Items       []OrderItemInput
	TotalAmount float64
}

// OrderPage is one page of orders plus pagination metadata.
type OrderPage struct {
	Orders     []*domain.Order
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// BalancePage is one page of per-customer outstanding balances.
type BalancePage struct {
	Rows           []BalanceRow
	TotalCustomers int64
	Page           int
	Limit          int
	TotalPages     int
}

// OrderService owns the order lifecycle and the balance aggregation.
type OrderService interface {
	Create(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	Accept(ctx context.Context, orderID string) (*domain.Order, error)
	UpdatePayment(ctx context.Context, orderID, paymentStatus string) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListMine(ctx context.Context, sessionKey string, page, limit int) (*OrderPage, error)
	// ListAll returns all orders, optionally filtered by payment status
	// ("paid" or "unpaid"; empty means no filter).
	ListAll(ctx context.Context, paymentFilter string, page, limit int) (*OrderPage, error)
	ListBalances(ctx context.Context, search string, page, limit int) (*BalancePage, error)
	// SettleBalance flips every unpaid order of the user to paid and returns
	// the count of orders changed.
	SettleBalance(ctx context.Context, userID string) (int64, error)
}
