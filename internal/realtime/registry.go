// Package realtime holds the live-connection state and the fan-out path:
// the session registry, the dispatcher, and the websocket transport.
package realtime

import (
	"sync"

	"github.com/tabify/order-sync/internal/core/domain"
)

// Conn is a live client connection able to receive order events.
// Send must be safe to call after the peer has gone away; it reports an
// error instead of blocking or panicking.
type Conn interface {
	ID() string
	Send(event domain.OrderEvent) error
}

// Registry maps live connections to roles and orders to the connection
// currently eligible to receive their updates. It starts empty and is
// mutated only through the declared operations; all methods are safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	owners  map[string]Conn // conn id → owner connection
	byOrder map[string]Conn // order id → bound customer connection
}

func NewRegistry() *Registry {
	return &Registry{
		owners:  make(map[string]Conn),
		byOrder: make(map[string]Conn),
	}
}

// DeclareRole records the connection's declared role. Owner connections
// join the broadcast group; customers receive targeted delivery only and
// need no group membership.
func (r *Registry) DeclareRole(c Conn, role domain.Role) {
	if role != domain.RoleOwner {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[c.ID()] = c
}

// BindOrder routes future updates for orderID to c, superseding any
// previous binding. Last writer wins: a customer who reloads the page and
// reconnects simply re-binds the same order id from the new connection.
func (r *Registry) BindOrder(c Conn, orderID string) {
	if orderID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOrder[orderID] = c
}

// Unregister removes the connection from the owners group. Order bindings
// are left in place on purpose: delivery to a stale binding is a silent
// no-op, and the next reconnect overwrites it anyway.
func (r *Registry) Unregister(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, c.ID())
}

// Owners returns a snapshot of the owner broadcast group.
func (r *Registry) Owners() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.owners))
	for _, c := range r.owners {
		out = append(out, c)
	}
	return out
}

// OrderConn returns the connection currently bound to orderID, if any.
func (r *Registry) OrderConn(orderID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byOrder[orderID]
	return c, ok
}

// OwnerCount reports the current size of the owners group.
func (r *Registry) OwnerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.owners)
}
