package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusRequested OrderStatus = "requested"
	StatusAccepted  OrderStatus = "accepted"
	StatusCompleted OrderStatus = "completed"
)

// PaymentStatus represents the payment state of an order, independent of
// the lifecycle status.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// validTransitions defines the allowed state machine transitions.
// Both dimensions are monotonic: nothing ever moves a status backward.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusRequested: {StatusAccepted, StatusCompleted},
	StatusAccepted:  {StatusAccepted, StatusCompleted},
	StatusCompleted: {StatusCompleted},
}

var ErrOrderNotFound = errors.New("order not found")
var ErrInvalidTransition = errors.New("invalid status transition")
var ErrInvalidOrder = errors.New("order must have at least one valid item")
var ErrInvalidPaymentStatus = errors.New("payment status must be paid or unpaid")
var ErrInvalidUserID = errors.New("user id is required")

// CanTransitionTo reports whether a transition from the current status to next is valid.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidPaymentStatus reports whether the given value is a known payment status.
func ValidPaymentStatus(s string) bool {
	return PaymentStatus(s) == PaymentPaid || PaymentStatus(s) == PaymentUnpaid
}

// OrderItem is a single line item on an order.
type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
}

// Order is the core aggregate root. UserName and Phone are snapshots taken
// at creation time and never follow later profile edits. TotalAmount is
// trusted input from the creation request and is never recomputed.
type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	UserName      string        `json:"userName"`
	Phone         string        `json:"phone"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   float64       `json:"totalAmount"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
