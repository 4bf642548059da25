package realtime

import (
	"errors"
	"testing"

	"github.com/tabify/order-sync/internal/core/domain"
)

// fakeConn records delivered events and can simulate a closed peer.
type fakeConn struct {
	id     string
	events []domain.OrderEvent
	closed bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event domain.OrderEvent) error {
	if f.closed {
		return errors.New("closed")
	}
	f.events = append(f.events, event)
	return nil
}

func TestRegistry_DeclareRole_OnlyOwnersJoinGroup(t *testing.T) {
	r := NewRegistry()
	owner := &fakeConn{id: "o1"}
	customer := &fakeConn{id: "c1"}

	r.DeclareRole(owner, domain.RoleOwner)
	r.DeclareRole(customer, domain.RoleCustomer)

	if r.OwnerCount() != 1 {
		t.Fatalf("expected 1 owner, got %d", r.OwnerCount())
	}
	owners := r.Owners()
	if len(owners) != 1 || owners[0].ID() != "o1" {
		t.Fatalf("unexpected owners group: %v", owners)
	}
}

func TestRegistry_BindOrder_LastWriterWins(t *testing.T) {
	r := NewRegistry()
	connA := &fakeConn{id: "a"}
	connB := &fakeConn{id: "b"}

	r.BindOrder(connA, "X")
	r.BindOrder(connB, "X")

	bound, ok := r.OrderConn("X")
	if !ok {
		t.Fatal("expected a binding for X")
	}
	if bound.ID() != "b" {
		t.Fatalf("expected most recent connection to win, got %q", bound.ID())
	}
}

func TestRegistry_BindOrder_EmptyOrderIgnored(t *testing.T) {
	r := NewRegistry()
	r.BindOrder(&fakeConn{id: "a"}, "")

	if _, ok := r.OrderConn(""); ok {
		t.Fatal("empty order id must not create a binding")
	}
}

func TestRegistry_Unregister_LeavesBindings(t *testing.T) {
	r := NewRegistry()
	owner := &fakeConn{id: "o1"}
	customer := &fakeConn{id: "c1"}

	r.DeclareRole(owner, domain.RoleOwner)
	r.BindOrder(customer, "X")
	r.Unregister(owner)
	r.Unregister(customer)

	if r.OwnerCount() != 0 {
		t.Fatalf("expected empty owners group, got %d", r.OwnerCount())
	}
	// Stale bindings stay; delivery to them is the dispatcher's no-op.
	if _, ok := r.OrderConn("X"); !ok {
		t.Fatal("unregister must not remove order bindings")
	}
}
