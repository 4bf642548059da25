package handler

import (
	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// --- Request types ---

type registerRequest struct {
	Name  string `json:"name"  validate:"required"`
	Phone string `json:"phone" validate:"required"`
	Role  string `json:"role"  validate:"omitempty,oneof=customer owner"`
}

type orderItemRequest struct {
	Name     string  `json:"name"     validate:"required"`
	Quantity int     `json:"quantity" validate:"required,gte=1"`
	Price    float64 `json:"price"    validate:"gte=0"`
}

type createOrderRequest struct {
	SessionKey  string             `json:"sessionKey"  validate:"required"`
	Items       []orderItemRequest `json:"items"       validate:"required,min=1,dive"`
	TotalAmount float64            `json:"totalAmount" validate:"gte=0"`
}

type markPaidRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// --- Response types ---

type registerResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user"`
}

type createOrderResponse struct {
	Success bool          `json:"success"`
	Order   *domain.Order `json:"order"`
}

// myPagination is the trimmed pagination block on the customer's own list.
type myPagination struct {
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

type myOrdersResponse struct {
	Success    bool            `json:"success"`
	Orders     []*domain.Order `json:"orders"`
	Pagination myPagination    `json:"pagination"`
}

type listPagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	TotalOrders int64 `json:"totalOrders"`
}

type listOrdersResponse struct {
	Success    bool            `json:"success"`
	Orders     []*domain.Order `json:"orders"`
	Pagination listPagination  `json:"pagination"`
}

type balancePagination struct {
	Page           int   `json:"page"`
	Limit          int   `json:"limit"`
	TotalPages     int   `json:"totalPages"`
	TotalCustomers int64 `json:"totalCustomers"`
}

type listBalancesResponse struct {
	Success    bool               `json:"success"`
	Balances   []ports.BalanceRow `json:"balances"`
	Pagination balancePagination  `json:"pagination"`
}

type markPaidResponse struct {
	Success       bool  `json:"success"`
	UpdatedOrders int64 `json:"updatedOrders"`
}
