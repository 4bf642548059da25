package ports

import (
	"context"
	"time"

	"github.com/tabify/order-sync/internal/core/domain"
)

// ListOrdersFilter carries all query parameters for listing orders.
type ListOrdersFilter struct {
	UserID        string // optional: scope to one customer
	PaymentStatus string // optional: "paid" or "unpaid"
	Page          int    // 1-based
	Limit         int    // max rows per page (capped by the service)
}

// BalancesFilter carries the parameters of the unpaid-balance aggregation.
type BalancesFilter struct {
	Search string // optional: case-insensitive substring match on customer name
	Page   int    // 1-based
	Limit  int
}

// BalanceRow is one customer's outstanding balance.
type BalanceRow struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	Phone       string    `json:"phone"`
	TotalDue    float64   `json:"totalDue"`
	OrderCount  int64     `json:"orderCount"`
	LastOrderAt time.Time `json:"lastOrderAt"`
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) (*domain.Order, error)
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	// SetStatus applies the given lifecycle and payment values to an order
	// and returns the resulting document. Empty values are left unchanged.
	// Returns domain.ErrOrderNotFound when the order does not exist.
	SetStatus(ctx context.Context, id string, status domain.OrderStatus, payment domain.PaymentStatus) (*domain.Order, error)
	// List returns a page of orders matching filter, newest first, and the total count.
	List(ctx context.Context, filter ListOrdersFilter) ([]*domain.Order, int64, error)
	// UnpaidBalances groups unpaid orders by customer and returns the page of
	// rows sorted by most recent order, plus the total number of customers.
	UnpaidBalances(ctx context.Context, filter BalancesFilter) ([]BalanceRow, int64, error)
	// MarkAllPaid flips every unpaid order of the user to paid and returns
	// the number of orders changed.
	MarkAllPaid(ctx context.Context, userID string) (int64, error)
	// DeleteAll purges the whole collection. Maintenance use only.
	DeleteAll(ctx context.Context) (int64, error)
}
