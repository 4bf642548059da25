package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tabify/order-sync/internal/api/metrics"
	"github.com/tabify/order-sync/internal/core/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32

	maxMessageSize = 64 * 1024
)

var errConnClosed = errors.New("connection closed")
var errSendBufferFull = errors.New("send buffer full")

// envelope is the wire format for every message in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// client is one live websocket connection. It satisfies Conn; outbound
// messages go through a buffered channel drained by the write pump so a
// slow or dead peer never blocks the dispatcher.
type client struct {
	id   string
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  zerolog.Logger

	mu   sync.Mutex
	role domain.Role
}

func newClient(ws *websocket.Conn, log zerolog.Logger) *client {
	id := uuid.NewString()
	return &client{
		id:   id,
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  log.With().Str("conn_id", id).Logger(),
	}
}

func (c *client) ID() string { return c.id }

// Send serializes the event and queues it for delivery. It never blocks:
// a closed connection or a full buffer reports an error and the caller
// drops the delivery.
func (c *client) Send(event domain.OrderEvent) error {
	payload, err := marshalEvent(event)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errConnClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return errSendBufferFull
	}
}

// sendEnvelope queues an arbitrary envelope (used for per-message errors).
func (c *client) sendEnvelope(event string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	payload, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return
	}
	select {
	case <-c.done:
	case c.send <- payload:
	default:
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

func (c *client) setRole(role domain.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
}

// roleLabel is the metrics label for this connection's declared role.
func (c *client) roleLabel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.role == "" {
		return "undeclared"
	}
	return string(c.role)
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. One per connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.log.Debug().Err(err).Msg("write failed, closing connection")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// marshalEvent maps a committed order event to its wire envelope.
func marshalEvent(event domain.OrderEvent) ([]byte, error) {
	var data any
	switch event.Type {
	case domain.EventNewOrder, domain.EventOrderUpdate:
		data = event.Order
	case domain.EventBalanceSettled:
		data = map[string]any{
			"userId":        event.UserID,
			"updatedOrders": event.UpdatedCount,
		}
	default:
		return nil, errors.New("unknown event type")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: string(event.Type), Data: raw})
}

// connGauge pairs the Inc/Dec around a connection's lifetime so role
// changes between them stay balanced.
func connGaugeInc(label string) { metrics.ConnectionsActive.WithLabelValues(label).Inc() }
func connGaugeDec(label string) { metrics.ConnectionsActive.WithLabelValues(label).Dec() }
