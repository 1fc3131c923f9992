package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.OrderNumberGenerator = (*OrderNumbers)(nil)

// OrderNumbers issues strictly increasing order numbers based on the
// wall clock in milliseconds.
type OrderNumbers struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewOrderNumbers(now func() time.Time) *OrderNumbers {
	if now == nil {
		now = time.Now
	}
	return &OrderNumbers{now: now}
}

func (g *OrderNumbers) NextOrderNumber() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := g.now().UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return "MCD-" + strconv.FormatInt(n, 10)
}

// Checkout charges the session cart and clears it once the payment is
// confirmed. On any failure the cart is left untouched.
func (s *Service) Checkout(
	ctx context.Context, sessionID string, req port.CheckoutRequest,
) (domain.Confirmation, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.carts.view(sessionID).ItemCount == 0 {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	if !req.PaymentMethod.Valid() {
		return domain.Confirmation{}, fmt.Errorf(
			"%s: %w: %q", op, ErrInvalidPaymentMethod, req.PaymentMethod,
		)
	}

	items, totals, err := s.carts.beginCheckout(sessionID)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	order := domain.Order{
		Number:        s.orderNumbers.NextOrderNumber(),
		SessionID:     sessionID,
		Customer:      req.Customer,
		Items:         items,
		Totals:        totals,
		Status:        domain.OrderPending,
		PaymentMethod: req.PaymentMethod,
	}

	if err := s.charge(ctx, order); err != nil {
		s.carts.endCheckout(sessionID, false)
		log.Warn("payment failed", "orderNumber", order.Number, "err", err)
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}
	s.carts.endCheckout(sessionID, true)

	order.Status = domain.OrderProcessing
	order.PlacedAt = s.now()
	confirmation := order.Confirmation()

	s.storeOrder(ctx, order)
	s.produceOrder(ctx, order)

	err = s.confirmations.StoreConfirmation(ctx, confirmation)
	if err != nil {
		log.Error("failed to store confirmation",
			"orderNumber", order.Number, "err", err,
		)
	}

	log.Info("order placed",
		"orderNumber", order.Number,
		"total", order.Totals.Total,
		"paymentMethod", order.PaymentMethod,
	)
	return confirmation, nil
}

func (s *Service) charge(ctx context.Context, o domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, s.paymentTimeout)
	defer cancel()

	err := s.gateway.Charge(ctx, domain.PaymentRequest{
		OrderNumber: o.Number,
		Amount:      o.Totals.Total,
		Method:      o.PaymentMethod,
		Customer:    o.Customer,
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrPaymentFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPaymentFailed, err)
}

func (s *Service) storeOrder(ctx context.Context, o domain.Order) {
	const op = "Service.storeOrder"
	if s.orders == nil {
		return
	}
	if err := s.orders.StoreOrder(ctx, o); err != nil {
		slog.Error("failed to store order",
			"op", op, "orderNumber", o.Number, "err", err,
		)
	}
}

func (s *Service) produceOrder(ctx context.Context, o domain.Order) {
	const op = "Service.produceOrder"
	if s.ordersProducer == nil {
		return
	}
	if err := s.ordersProducer.ProduceOrder(ctx, o); err != nil {
		slog.Error("failed to produce order",
			"op", op, "orderNumber", o.Number, "err", err,
		)
	}
}

// Confirmation returns the confirmation handed off to sessionID, or the
// placeholder when nothing was stored under orderNumber for that session.
func (s *Service) Confirmation(
	ctx context.Context, sessionID, orderNumber string,
) domain.Confirmation {
	const op = "Service.Confirmation"
	log := slog.With("op", op)

	c, err := s.confirmations.ReadConfirmation(ctx, orderNumber)
	if err != nil {
		if !errors.Is(err, port.ErrNotFound) {
			log.Error("failed to read confirmation", "err", err)
		}
		return domain.PlaceholderConfirmation()
	}
	if !c.VisibleTo(sessionID) {
		log.Warn("confirmation requested by another session",
			"orderNumber", orderNumber,
		)
		return domain.PlaceholderConfirmation()
	}
	return c
}
