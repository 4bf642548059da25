package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tabify/order-sync/internal/core/domain"
	"github.com/tabify/order-sync/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderService owns the order lifecycle state machine. Every committed
// state change is handed to the notifier before the call returns, so
// updates to a single order are emitted in commit order.
type OrderService struct {
	orders   ports.OrderRepository
	identity ports.IdentityService
	notifier ports.Notifier
	log      zerolog.Logger
}

func NewOrderService(orders ports.OrderRepository, identity ports.IdentityService, notifier ports.Notifier, log zerolog.Logger) *OrderService {
	return &OrderService{orders: orders, identity: identity, notifier: notifier, log: log}
}

// Create places a new order for the customer identified by the session
// credential. Status and payment status are forced to their initial values
// regardless of input; the customer's name and phone are snapshotted.
func (s *OrderService) Create(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	user, err := s.identity.ResolveSession(ctx, input.SessionKey)
	if err != nil {
		return nil, err
	}

	if len(input.Items) == 0 || input.TotalAmount < 0 {
		return nil, domain.ErrInvalidOrder
	}
	items := make([]domain.OrderItem, 0, len(input.Items))
	for _, it := range input.Items {
		if it.Name == "" || it.Quantity < 1 || it.Price < 0 {
			return nil, domain.ErrInvalidOrder
		}
		items = append(items, domain.OrderItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}

	now := time.Now().UTC()
	order := &domain.Order{
		UserID:        user.ID,
		UserName:      user.Name,
		Phone:         user.Phone,
		Items:         items,
		TotalAmount:   input.TotalAmount,
		Status:        domain.StatusRequested,
		PaymentStatus: domain.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.orders.Create(ctx, order)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to create order")
		return nil, err
	}

	s.log.Info().Str("order_id", created.ID).Str("user_id", user.ID).Float64("total", created.TotalAmount).Msg("order created")
	s.notifier.Notify(domain.OrderEvent{Type: domain.EventNewOrder, Order: created})

	return created, nil
}

// Accept moves an order to accepted. Accepting an already-accepted order is
// a harmless overwrite; a completed order is never regressed and the call
// is rejected instead.
func (s *OrderService) Accept(ctx context.Context, orderID string) (*domain.Order, error) {
	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(domain.StatusAccepted) {
		return nil, fmt.Errorf("accept order: %w (from %s)", domain.ErrInvalidTransition, current.Status)
	}

	updated, err := s.orders.SetStatus(ctx, orderID, domain.StatusAccepted, "")
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("order_id", updated.ID).Msg("order accepted")
	s.notifier.Notify(domain.OrderEvent{Type: domain.EventOrderUpdate, Order: updated})

	return updated, nil
}

// UpdatePayment sets the payment status of an order. Marking an order paid
// also advances its lifecycle status to completed: payment completion
// implies order completion. Marking unpaid never touches the lifecycle.
func (s *OrderService) UpdatePayment(ctx context.Context, orderID, paymentStatus string) (*domain.Order, error) {
	if !domain.ValidPaymentStatus(paymentStatus) {
		return nil, domain.ErrInvalidPaymentStatus
	}

	status := domain.OrderStatus("")
	if domain.PaymentStatus(paymentStatus) == domain.PaymentPaid {
		status = domain.StatusCompleted
	}

	updated, err := s.orders.SetStatus(ctx, orderID, status, domain.PaymentStatus(paymentStatus))
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("order_id", updated.ID).Str("payment_status", paymentStatus).Msg("payment updated")
	s.notifier.Notify(domain.OrderEvent{Type: domain.EventOrderUpdate, Order: updated})

	return updated, nil
}

// Get retrieves a single order by id.
func (s *OrderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

// ListMine returns the calling customer's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, sessionKey string, page, limit int) (*ports.OrderPage, error) {
	user, err := s.identity.ResolveSession(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, ports.ListOrdersFilter{UserID: user.ID, Page: page, Limit: limit})
}

// ListAll returns all orders, optionally filtered by payment status.
func (s *OrderService) ListAll(ctx context.Context, paymentFilter string, page, limit int) (*ports.OrderPage, error) {
	if paymentFilter != "" && !domain.ValidPaymentStatus(paymentFilter) {
		return nil, domain.ErrInvalidPaymentStatus
	}
	return s.list(ctx, ports.ListOrdersFilter{PaymentStatus: paymentFilter, Page: page, Limit: limit})
}

func (s *OrderService) list(ctx context.Context, filter ports.ListOrdersFilter) (*ports.OrderPage, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	return &ports.OrderPage{
		Orders:     orders,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// ListBalances returns per-customer outstanding amounts over unpaid orders.
func (s *OrderService) ListBalances(ctx context.Context, search string, page, limit int) (*ports.BalancePage, error) {
	page, limit = normalizePage(page, limit)

	rows, totalCustomers, err := s.orders.UnpaidBalances(ctx, ports.BalancesFilter{Search: search, Page: page, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list balances: %w", err)
	}

	return &ports.BalancePage{
		Rows:           rows,
		TotalCustomers: totalCustomers,
		Page:           page,
		Limit:          limit,
		TotalPages:     totalPages(totalCustomers, limit),
	}, nil
}

// SettleBalance marks every unpaid order of the user as paid in one bulk
// write. Lifecycle status is deliberately left alone: settlement is a
// payment-only sweep, distinct from the per-order paid transition.
func (s *OrderService) SettleBalance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		return 0, domain.ErrInvalidUserID
	}

	count, err := s.orders.MarkAllPaid(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("balance settlement failed")
		return 0, err
	}

	s.log.Info().Str("user_id", userID).Int64("updated", count).Msg("balance settled")
	if count > 0 {
		s.notifier.Notify(domain.OrderEvent{Type: domain.EventBalanceSettled, UserID: userID, UpdatedCount: count})
	}

	return count, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
