package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client is served from a different origin in development;
	// session credentials, not origins, gate every state-changing action.
	CheckOrigin: func(*http.Request) bool { return true },
}

var errUnknownEvent = errors.New("unknown event")

// Handler upgrades HTTP requests to websocket connections and translates
// wire messages into service calls. One Handler serves all connections.
type Handler struct {
	registry *Registry
	orders   ports.OrderService
	log      zerolog.Logger
}

func NewHandler(registry *Registry, orders ports.OrderService, log zerolog.Logger) *Handler {
	return &Handler{registry: registry, orders: orders, log: log}
}

// --- inbound payloads ---

type newOrderMessage struct {
	SessionKey  string `json:"sessionKey"`
	Items       []struct {
		Name     string  `json:"name"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	} `json:"items"`
	TotalAmount float64 `json:"totalAmount"`
}

type updatePaymentMessage struct {
	OrderID       string `json:"orderId"`
	PaymentStatus string `json:"paymentStatus"`
}

type wsErrorMessage struct {
	Message string `json:"message"`
}

// Serve handles GET /ws.
func (h *Handler) Serve(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := newClient(ws, h.log)
	connGaugeInc(client.roleLabel())
	h.log.Info().Str("conn_id", client.ID()).Msg("client connected")

	go client.writePump()
	h.readPump(c.Request().Context(), client)
	return nil
}

// readPump reads and dispatches messages until the connection dies, then
// tears the connection down. Runs in the request goroutine.
func (h *Handler) readPump(ctx context.Context, c *client) {
	defer func() {
		connGaugeDec(c.roleLabel())
		h.registry.Unregister(c)
		c.close()
		h.log.Info().Str("conn_id", c.ID()).Msg("client disconnected")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug().Err(err).Str("conn_id", c.ID()).Msg("read failed")
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendEnvelope("orderError", wsErrorMessage{Message: "malformed message"})
			continue
		}

		if err := h.handleMessage(ctx, c, env); err != nil {
			c.sendEnvelope("orderError", wsErrorMessage{Message: err.Error()})
		}
	}
}

// handleMessage applies one client message. Errors are reported back to
// the sender and never terminate the connection.
func (h *Handler) handleMessage(ctx context.Context, c *client, env envelope) error {
	switch env.Event {
	case "registerRole":
		var role string
		if err := json.Unmarshal(env.Data, &role); err != nil || !domain.ValidRole(role) {
			return domain.ErrInvalidRole
		}
		connGaugeDec(c.roleLabel())
		c.setRole(domain.Role(role))
		connGaugeInc(c.roleLabel())
		h.registry.DeclareRole(c, domain.Role(role))
		h.log.Info().Str("conn_id", c.ID()).Str("role", role).Msg("role declared")
		return nil

	case "newOrder":
		var msg newOrderMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return domain.ErrInvalidOrder
		}
		items := make([]ports.OrderItemInput, 0, len(msg.Items))
		for _, it := range msg.Items {
			items = append(items, ports.OrderItemInput{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
		}
		order, err := h.orders.Create(ctx, ports.CreateOrderInput{
			SessionKey:  msg.SessionKey,
			Items:       items,
			TotalAmount: msg.TotalAmount,
		})
		if err != nil {
			return err
		}
		// The creating connection receives this order's updates until a
		// newer connection re-binds after a reload.
		h.registry.BindOrder(c, order.ID)
		return nil

	case "acceptOrder":
		var orderID string
		if err := json.Unmarshal(env.Data, &orderID); err != nil {
			return domain.ErrOrderNotFound
		}
		_, err := h.orders.Accept(ctx, orderID)
		return err

	case "updatePaymentStatus":
		var msg updatePaymentMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return domain.ErrInvalidPaymentStatus
		}
		_, err := h.orders.UpdatePayment(ctx, msg.OrderID, msg.PaymentStatus)
		return err

	case "reconnectOrder":
		var orderID string
		if err := json.Unmarshal(env.Data, &orderID); err != nil {
			return domain.ErrOrderNotFound
		}
		// Re-binding only; order state is untouched and nothing is broadcast.
		if _, err := h.orders.Get(ctx, orderID); err != nil {
			return err
		}
		h.registry.BindOrder(c, orderID)
		h.log.Debug().Str("conn_id", c.ID()).Str("order_id", orderID).Msg("customer re-bound to order")
		return nil

	default:
		return errUnknownEvent
	}
}
