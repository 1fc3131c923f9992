package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.OrdersStorage = (*MemoryStorage)(nil)
var _ port.LeadsStorage = (*MemoryStorage)(nil)
var _ port.ConfirmationStorage = (*MemoryStorage)(nil)

// A MemoryStorage keeps orders, leads and confirmations for the process
// lifetime. It is used when no SQL database is configured.
type MemoryStorage struct {
	mu            sync.RWMutex
	orders        map[string]domain.Order
	leads         map[string]domain.Lead
	conversions   []domain.Conversion
	confirmations map[string]domain.Confirmation
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		orders:        make(map[string]domain.Order),
		leads:         make(map[string]domain.Lead),
		confirmations: make(map[string]domain.Confirmation),
	}
}

func (s *MemoryStorage) StoreOrder(ctx context.Context, o domain.Order) error {
	const op = "MemoryStorage.StoreOrder"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o.Items = slices.Clone(o.Items)
	s.orders[o.Number] = o
	return nil
}

func (s *MemoryStorage) ReadOrder(
	ctx context.Context, number string,
) (domain.Order, error) {
	const op = "MemoryStorage.ReadOrder"

	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[number]
	if !ok {
		return domain.Order{}, fmt.Errorf("%s: %w", op, port.ErrNotFound)
	}
	return o, nil
}

// StoreLead replaces the lead stored under the same key.
func (s *MemoryStorage) StoreLead(ctx context.Context, l domain.Lead) error {
	const op = "MemoryStorage.StoreLead"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[l.Key] = l
	return nil
}

func (s *MemoryStorage) ReadLead(
	ctx context.Context, key string,
) (domain.Lead, error) {
	const op = "MemoryStorage.ReadLead"

	if err := ctx.Err(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.leads[key]
	if !ok {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, port.ErrNotFound)
	}
	return l, nil
}

func (s *MemoryStorage) StoreConversion(
	ctx context.Context, c domain.Conversion,
) error {
	const op = "MemoryStorage.StoreConversion"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversions = append(s.conversions, c)
	return nil
}

func (s *MemoryStorage) Conversions() []domain.Conversion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.conversions)
}

func (s *MemoryStorage) StoreConfirmation(
	ctx context.Context, c domain.Confirmation,
) error {
	const op = "MemoryStorage.StoreConfirmation"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmations[c.OrderNumber] = c
	return nil
}

func (s *MemoryStorage) ReadConfirmation(
	ctx context.Context, orderNumber string,
) (domain.Confirmation, error) {
	const op = "MemoryStorage.ReadConfirmation"

	if err := ctx.Err(); err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.confirmations[orderNumber]
	if !ok {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, port.ErrNotFound)
	}
	return c, nil
}
