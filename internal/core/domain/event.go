package domain

// EventType names a real-time event as it appears on the wire.
type EventType string

const (
	EventNewOrder       EventType = "newOrder"
	EventOrderUpdate    EventType = "orderUpdate"
	EventBalanceSettled EventType = "balancePaid"
)

// OrderEvent is a committed state change ready for fan-out.
//
// NewOrder and OrderUpdate carry the resulting order document.
// BalanceSettled carries the settled user and the number of orders changed.
type OrderEvent struct {
	Type         EventType
	Order        *Order
	UserID       string
	UpdatedCount int64
}
