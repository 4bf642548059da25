package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

// OrderHandler handles the request/response order surface. State changes
// made here share the same fan-out path as the realtime channel, so owners
// connected over websocket still see orders created over plain HTTP.
type OrderHandler struct {
	orders ports.OrderService
}

func NewOrderHandler(orders ports.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create handles POST /orders/create. The session credential travels in
// the body, matching the realtime newOrder message.
//
// @Summary      Place a new order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        body  body      createOrderRequest  true  "Order details"
// @Success      201   {object}  createOrderResponse
// @Failure      400   {object}  errorResponse
// @Router       /orders/create [post]
func (h *OrderHandler) Create(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	items := make([]ports.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ports.OrderItemInput{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	order, err := h.orders.Create(c.Request().Context(), ports.CreateOrderInput{
		SessionKey:  req.SessionKey,
		Items:       items,
		TotalAmount: req.TotalAmount,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, createOrderResponse{Success: true, Order: order})
}

// My handles GET /orders/my, the calling customer's own orders.
//
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "1-based page number"
// @Param        limit  query     int  false  "Rows per page"
// @Success      200    {object}  myOrdersResponse
// @Failure      401    {object}  errorResponse
// @Router       /orders/my [get]
func (h *OrderHandler) My(c echo.Context) error {
	user, ok := c.Get("user").(*domain.User)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
	}
	page, limit := pageParams(c)

	result, err := h.orders.ListMine(c.Request().Context(), user.SessionKey, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, myOrdersResponse{
		Success:    true,
		Orders:     orEmpty(result.Orders),
		Pagination: myPagination{Page: result.Page, TotalPages: result.TotalPages},
	})
}

// All handles GET /orders/all.
//
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "1-based page number"
// @Param        limit  query     int  false  "Rows per page"
// @Success      200    {object}  listOrdersResponse
// @Failure      403    {object}  errorResponse
// @Router       /orders/all [get]
func (h *OrderHandler) All(c echo.Context) error {
	return h.listAll(c, "")
}

// Paid handles GET /orders/paid.
func (h *OrderHandler) Paid(c echo.Context) error {
	return h.listAll(c, string(domain.PaymentPaid))
}

// Unpaid handles GET /orders/unpaid.
func (h *OrderHandler) Unpaid(c echo.Context) error {
	return h.listAll(c, string(domain.PaymentUnpaid))
}

func (h *OrderHandler) listAll(c echo.Context, paymentFilter string) error {
	page, limit := pageParams(c)

	result, err := h.orders.ListAll(c.Request().Context(), paymentFilter, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listOrdersResponse{
		Success: true,
		Orders:  orEmpty(result.Orders),
		Pagination: listPagination{
			Page:        result.Page,
			Limit:       result.Limit,
			TotalPages:  result.TotalPages,
			TotalOrders: result.Total,
		},
	})
}

// Get handles GET /orders/:id, the point lookup a reloaded client uses to
// recover current state after missed updates.
//
// @Summary      Get an order by id
// @Tags         orders
// @Produce      json
// @Param        id   path      string  true  "Order id"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  errorResponse
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.orders.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// pageParams reads ?page and ?limit, leaving normalization to the service.
func pageParams(c echo.Context) (int, int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return page, limit
}

// orEmpty keeps list payloads as [] instead of null.
func orEmpty(orders []*domain.Order) []*domain.Order {
	if orders == nil {
		return []*domain.Order{}
	}
	return orders
}
