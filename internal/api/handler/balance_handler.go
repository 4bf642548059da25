package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tabify/order-sync/internal/core/ports"
)

// BalanceHandler exposes the per-customer outstanding balance aggregation.
type BalanceHandler struct {
	orders ports.OrderService
}

func NewBalanceHandler(orders ports.OrderService) *BalanceHandler {
	return &BalanceHandler{orders: orders}
}

// List handles GET /orders/balances.
//
// @Summary      List per-customer outstanding balances
// @Tags         balances
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "1-based page number"
// @Param        limit   query     int     false  "Rows per page"
// @Param        search  query     string  false  "Case-insensitive substring match on customer name"
// @Success      200     {object}  listBalancesResponse
// @Failure      403     {object}  errorResponse
// @Router       /orders/balances [get]
func (h *BalanceHandler) List(c echo.Context) error {
	page, limit := pageParams(c)

	result, err := h.orders.ListBalances(c.Request().Context(), c.QueryParam("search"), page, limit)
	if err != nil {
		return err
	}

	balances := result.Rows
	if balances == nil {
		balances = []ports.BalanceRow{}
	}

	return c.JSON(http.StatusOK, listBalancesResponse{
		Success:  true,
		Balances: balances,
		Pagination: balancePagination{
			Page:           result.Page,
			Limit:          result.Limit,
			TotalPages:     result.TotalPages,
			TotalCustomers: result.TotalCustomers,
		},
	})
}

// MarkPaid handles POST /orders/balances/mark-paid, bulk settlement of a
// customer's unpaid orders.
//
// @Summary      Mark all unpaid orders of a customer as paid
// @Tags         balances
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      markPaidRequest  true  "Customer to settle"
// @Success      200   {object}  markPaidResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /orders/balances/mark-paid [post]
func (h *BalanceHandler) MarkPaid(c echo.Context) error {
	var req markPaidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	count, err := h.orders.SettleBalance(c.Request().Context(), req.UserID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, markPaidResponse{Success: true, UpdatedOrders: count})
}
