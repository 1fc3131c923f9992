package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

type session struct {
	cart        *domain.Cart
	checkingOut bool
	lastSeen    time.Time
}

// A cartRegistry owns one cart per session. A session is logically
// single-threaded, the mutex only protects the map from concurrent
// requests of different sessions.
//
// Only sessions with a non-empty cart are kept, idle ones expire
// after ttl.
type cartRegistry struct {
	mu       sync.Mutex
	pricing  domain.PricingRules
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*session
}

func newCartRegistry(
	pricing domain.PricingRules, ttl time.Duration, now func() time.Time,
) *cartRegistry {
	return &cartRegistry{
		pricing:  pricing,
		ttl:      ttl,
		now:      now,
		sessions: make(map[string]*session),
	}
}

// lookup returns the live session without creating one.
func (r *cartRegistry) lookup(sessionID string) (*session, bool) {
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	s.lastSeen = r.now()
	return s, true
}

func (r *cartRegistry) view(sessionID string) port.CartView {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.lookup(sessionID)
	if !ok {
		return cartView(domain.NewCart(r.pricing))
	}
	return cartView(s.cart)
}

// mutate applies fn to the session cart unless a checkout is in flight.
// A session is stored once its cart holds something and dropped again
// when the cart becomes empty.
func (r *cartRegistry) mutate(
	sessionID string, fn func(*domain.Cart) error,
) (port.CartView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.lookup(sessionID)
	if !ok {
		s = &session{cart: domain.NewCart(r.pricing), lastSeen: r.now()}
	}
	if s.checkingOut {
		return port.CartView{}, ErrCheckoutInProgress
	}
	if err := fn(s.cart); err != nil {
		return port.CartView{}, err
	}

	switch {
	case s.cart.IsEmpty():
		delete(r.sessions, sessionID)
	case !ok:
		r.sessions[sessionID] = s
	}
	return cartView(s.cart), nil
}

// beginCheckout marks the session busy and returns the snapshot to be paid.
func (r *cartRegistry) beginCheckout(
	sessionID string,
) ([]domain.LineItem, domain.Totals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.lookup(sessionID)
	if !ok || s.cart.IsEmpty() {
		return nil, domain.Totals{}, ErrEmptyCart
	}
	if s.checkingOut {
		return nil, domain.Totals{}, ErrCheckoutInProgress
	}
	s.checkingOut = true
	return s.cart.Items(), s.cart.Totals(), nil
}

// endCheckout releases the session; a paid cart is dropped with it.
func (r *cartRegistry) endCheckout(sessionID string, paid bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.lookup(sessionID)
	if !ok {
		return
	}
	s.checkingOut = false
	if paid {
		delete(r.sessions, sessionID)
	}
}

// evictIdle drops sessions not seen for ttl and returns how many were
// removed. Sessions in checkout are kept.
func (r *cartRegistry) evictIdle() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(-r.ttl)
	var n int
	for id, s := range r.sessions {
		if !s.checkingOut && s.lastSeen.Before(deadline) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *cartRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func cartView(c *domain.Cart) port.CartView {
	items := c.Items()
	lineTotals := make([]float64, len(items))
	for i, li := range items {
		lineTotals[i] = c.LineTotal(li)
	}
	return port.CartView{
		Items:     items,
		LineTotal: lineTotals,
		ItemCount: c.ItemCount(),
		Totals:    c.Totals(),
	}
}

func (s *Service) Cart(
	ctx context.Context, sessionID string,
) (port.CartView, error) {
	const op = "Service.Cart"

	if err := ctx.Err(); err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.carts.view(sessionID), nil
}

func (s *Service) AddItem(
	ctx context.Context,
	sessionID, productID string,
	quantity int,
	opts domain.LineOptions,
) (port.CartView, error) {
	const op = "Service.AddItem"

	if err := ctx.Err(); err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.Product(ctx, productID)
	if err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	v, err := s.carts.mutate(sessionID, func(c *domain.Cart) error {
		return c.AddItem(p, quantity, opts)
	})
	if err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	slog.Debug("item added",
		"op", op, "productID", productID, "quantity", quantity,
		"itemCount", v.ItemCount,
	)
	return v, nil
}

func (s *Service) UpdateQuantity(
	ctx context.Context, sessionID, productID string, quantity int,
) (port.CartView, error) {
	const op = "Service.UpdateQuantity"

	if err := ctx.Err(); err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	v, err := s.carts.mutate(sessionID, func(c *domain.Cart) error {
		return c.UpdateQuantity(productID, quantity)
	})
	if err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

func (s *Service) RemoveItem(
	ctx context.Context, sessionID, productID string,
) (port.CartView, error) {
	const op = "Service.RemoveItem"

	if err := ctx.Err(); err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	v, err := s.carts.mutate(sessionID, func(c *domain.Cart) error {
		c.RemoveItem(productID)
		return nil
	})
	if err != nil {
		return port.CartView{}, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}
