package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const sid = "session-1"

var testNow = time.UnixMilli(1735689600123)

type MockGateway struct {
	mock.Mock
}

func (g *MockGateway) Charge(ctx context.Context, req domain.PaymentRequest) error {
	return g.Called(ctx, req).Error(0)
}

type MockOrdersProducer struct {
	mock.Mock
}

func (p *MockOrdersProducer) ProduceOrder(ctx context.Context, o domain.Order) error {
	return p.Called(ctx, o).Error(0)
}

type MockLeadsProducer struct {
	mock.Mock
}

func (p *MockLeadsProducer) ProduceLead(ctx context.Context, l domain.Lead) error {
	return p.Called(ctx, l).Error(0)
}

// blockingGateway holds every charge until release is closed.
type blockingGateway struct {
	started chan struct{}
	release chan struct{}
}

func (g blockingGateway) Charge(ctx context.Context, _ domain.PaymentRequest) error {
	g.started <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func testTheme() domain.Theme {
	return domain.Theme{
		Name:           "coffee",
		CurrencySymbol: "Q",
		Categories:     []domain.Category{"soluble", "grano"},
		Products: []domain.Product{
			{ID: "1", Name: "Soluble Premium", Price: 85, Discount: 15, Category: "soluble", Origin: "Huehuetenango", Intensity: "alta"},
			{ID: "2", Name: "antigua grano", Price: 120, Category: "grano", Origin: "Antigua", Intensity: "media"},
			{ID: "3", Name: "Bourbon", Price: 60, Category: "grano", Origin: "Antigua", Intensity: "alta"},
			{ID: "4", Name: "Cobán", Price: 120, Category: "grano", Origin: "Cobán", Intensity: "suave"},
		},
		QuoteLines: map[domain.Category][]domain.QuoteLine{
			"grano": {{Name: "Caja 10 kg", Quantity: "10", UnitPrice: 100, Total: 1000}},
		},
	}
}

type fixture struct {
	svc     *service.Service
	gateway *MockGateway
	orders  *MockOrdersProducer
	leads   *MockLeadsProducer
	mem     *storage.MemoryStorage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		gateway: new(MockGateway),
		orders:  new(MockOrdersProducer),
		leads:   new(MockLeadsProducer),
		mem:     storage.NewMemoryStorage(),
	}
	f.svc = service.New(service.Deps{
		Theme:          testTheme(),
		Pricing:        domain.DefaultPricingRules(),
		PaymentTimeout: time.Second,
		Gateway:        f.gateway,
		Confirmations:  f.mem,
		Orders:         f.mem,
		Leads:          f.mem,
		OrdersProducer: f.orders,
		LeadsProducer:  f.leads,
		Now:            func() time.Time { return testNow },
	})
	return f
}

func TestNewPanicsWithoutRequiredDeps(t *testing.T) {
	assert.Panics(t, func() { service.New(service.Deps{}) })
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	ids := func(ps []domain.Product) (res []string) {
		for _, p := range ps {
			res = append(res, p.ID)
		}
		return
	}

	tests := []struct {
		name   string
		filter domain.ProductFilter
		sort   domain.ProductSort
		want   []string
	}{
		{"Featured", domain.ProductFilter{}, domain.SortFeatured, []string{"1", "2", "3", "4"}},
		{"UnknownSortKeepsOrder", domain.ProductFilter{}, "", []string{"1", "2", "3", "4"}},
		{"PriceAscStable", domain.ProductFilter{}, domain.SortPriceAsc, []string{"3", "1", "2", "4"}},
		{"PriceDescStable", domain.ProductFilter{}, domain.SortPriceDesc, []string{"2", "4", "1", "3"}},
		{"NameCaseInsensitive", domain.ProductFilter{}, domain.SortName, []string{"2", "3", "4", "1"}},
		{"Category", domain.ProductFilter{Category: "grano"}, domain.SortFeatured, []string{"2", "3", "4"}},
		{"OriginAndIntensity", domain.ProductFilter{Origin: "Antigua", Intensity: "alta"}, "", []string{"3"}},
		{"NoMatch", domain.ProductFilter{Category: "web"}, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := f.svc.ListProducts(t.Context(), tt.filter, tt.sort)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(ps))
		})
	}

	t.Run("ProductNotFound", func(t *testing.T) {
		_, err := f.svc.Product(t.Context(), "404")
		assert.ErrorIs(t, err, service.ErrProductNotFound)
	})
}

func TestCart(t *testing.T) {
	t.Run("AddUnknownProduct", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddItem(t.Context(), sid, "404", 1, domain.LineOptions{})
		assert.ErrorIs(t, err, service.ErrProductNotFound)
	})

	t.Run("SessionsAreIsolated", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddItem(t.Context(), sid, "1", 2, domain.LineOptions{})
		require.NoError(t, err)

		other, err := f.svc.Cart(t.Context(), "session-2")
		require.NoError(t, err)
		assert.Zero(t, other.ItemCount)
		assert.InDelta(t, 35.0, other.Totals.Total, 1e-9)
	})

	t.Run("ScenarioTotals", func(t *testing.T) {
		f := newFixture(t)
		v, err := f.svc.AddItem(t.Context(), sid, "1", 2, domain.LineOptions{})
		require.NoError(t, err)

		require.Len(t, v.Items, 1)
		assert.InDelta(t, 144.50, v.LineTotal[0], 1e-9)
		assert.InDelta(t, 144.50, v.Totals.Subtotal, 1e-9)
		assert.InDelta(t, 17.34, v.Totals.Tax, 1e-9)
		assert.InDelta(t, 35.0, v.Totals.Shipping, 1e-9)
		assert.InDelta(t, 196.84, v.Totals.Total, 1e-9)
	})

	t.Run("ReadsDoNotCreateSessions", func(t *testing.T) {
		f := newFixture(t)
		for i := range 100 {
			id := fmt.Sprintf("anonymous-%d", i)
			_, err := f.svc.Cart(t.Context(), id)
			require.NoError(t, err)
			_, err = f.svc.Checkout(t.Context(), id, port.CheckoutRequest{
				PaymentMethod: domain.PaymentCard,
			})
			require.ErrorIs(t, err, service.ErrEmptyCart)
			_, err = f.svc.RemoveItem(t.Context(), id, "1")
			require.NoError(t, err)
			_, err = f.svc.AddItem(t.Context(), id, "1", 0, domain.LineOptions{})
			require.ErrorIs(t, err, domain.ErrInvalidQuantity)
		}
		assert.Zero(t, f.svc.SessionCount())
	})

	t.Run("EmptiedCartIsDropped", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddItem(t.Context(), sid, "1", 1, domain.LineOptions{})
		require.NoError(t, err)
		require.Equal(t, 1, f.svc.SessionCount())

		_, err = f.svc.UpdateQuantity(t.Context(), sid, "1", 0)
		require.NoError(t, err)
		assert.Zero(t, f.svc.SessionCount())
	})

	t.Run("UpdateAndRemove", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.AddItem(t.Context(), sid, "2", 1, domain.LineOptions{})
		require.NoError(t, err)

		v, err := f.svc.UpdateQuantity(t.Context(), sid, "2", 5)
		require.NoError(t, err)
		assert.Equal(t, 5, v.ItemCount)
		assert.Zero(t, v.Totals.Shipping)

		v, err = f.svc.RemoveItem(t.Context(), sid, "2")
		require.NoError(t, err)
		assert.Empty(t, v.Items)
	})
}

func TestCheckout(t *testing.T) {
	req := port.CheckoutRequest{
		PaymentMethod: domain.PaymentCard,
		Customer:      domain.Customer{Name: "Ana", Email: "ana@example.com"},
	}

	fill := func(t *testing.T, f fixture) {
		t.Helper()
		_, err := f.svc.AddItem(t.Context(), sid, "1", 2, domain.LineOptions{})
		require.NoError(t, err)
	}

	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		fill(t, f)

		f.gateway.On("Charge", mock.Anything, mock.MatchedBy(
			func(r domain.PaymentRequest) bool {
				return r.Method == domain.PaymentCard && r.Amount > 196.83 && r.Amount < 196.85
			},
		)).Return(nil).Once()
		f.orders.On("ProduceOrder", mock.Anything, mock.MatchedBy(
			func(o domain.Order) bool { return o.Status == domain.OrderProcessing },
		)).Return(nil).Once()

		c, err := f.svc.Checkout(t.Context(), sid, req)
		require.NoError(t, err)

		assert.Equal(t, "MCD-1735689600123", c.OrderNumber)
		assert.InDelta(t, 196.84, c.Total, 1e-9)
		require.Len(t, c.Items, 1)
		assert.Equal(t, domain.PaymentCard, c.PaymentMethod)
		assert.Equal(t, testNow, c.PaidAt)

		v, err := f.svc.Cart(t.Context(), sid)
		require.NoError(t, err)
		assert.Empty(t, v.Items)

		stored, err := f.mem.ReadOrder(t.Context(), c.OrderNumber)
		require.NoError(t, err)
		assert.Equal(t, req.Customer, stored.Customer)

		assert.Equal(t, sid, c.SessionID)
		assert.Equal(t, c, f.svc.Confirmation(t.Context(), sid, c.OrderNumber))
		f.gateway.AssertExpectations(t)
		f.orders.AssertExpectations(t)
	})

	t.Run("PaymentFailedKeepsCart", func(t *testing.T) {
		f := newFixture(t)
		fill(t, f)
		before, err := f.svc.Cart(t.Context(), sid)
		require.NoError(t, err)

		f.gateway.On("Charge", mock.Anything, mock.Anything).
			Return(errors.New("card declined")).Once()

		_, err = f.svc.Checkout(t.Context(), sid, req)
		require.ErrorIs(t, err, domain.ErrPaymentFailed)

		after, err := f.svc.Cart(t.Context(), sid)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		f.orders.AssertNotCalled(t, "ProduceOrder", mock.Anything, mock.Anything)

		// retry is allowed
		f.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil).Once()
		f.orders.On("ProduceOrder", mock.Anything, mock.Anything).Return(nil).Once()
		_, err = f.svc.Checkout(t.Context(), sid, req)
		require.NoError(t, err)
	})

	t.Run("PublishFailureIsNotFatal", func(t *testing.T) {
		f := newFixture(t)
		fill(t, f)
		f.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil).Once()
		f.orders.On("ProduceOrder", mock.Anything, mock.Anything).
			Return(errors.New("broker is down")).Once()

		_, err := f.svc.Checkout(t.Context(), sid, req)
		assert.NoError(t, err)
	})

	t.Run("EmptyCart", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(t.Context(), sid, req)
		assert.ErrorIs(t, err, service.ErrEmptyCart)
		f.gateway.AssertNotCalled(t, "Charge", mock.Anything, mock.Anything)
	})

	t.Run("EmptyCartBeforeMethod", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Checkout(t.Context(), sid, port.CheckoutRequest{PaymentMethod: "cash"})
		assert.ErrorIs(t, err, service.ErrEmptyCart)
	})

	t.Run("InvalidPaymentMethod", func(t *testing.T) {
		f := newFixture(t)
		fill(t, f)
		_, err := f.svc.Checkout(t.Context(), sid, port.CheckoutRequest{PaymentMethod: "cash"})
		assert.ErrorIs(t, err, service.ErrInvalidPaymentMethod)
	})

	t.Run("NoReentrancy", func(t *testing.T) {
		gw := blockingGateway{
			started: make(chan struct{}, 1),
			release: make(chan struct{}),
		}
		mem := storage.NewMemoryStorage()
		svc := service.New(service.Deps{
			Theme:         testTheme(),
			Pricing:       domain.DefaultPricingRules(),
			Gateway:       gw,
			Confirmations: mem,
			Leads:         mem,
		})
		_, err := svc.AddItem(t.Context(), sid, "1", 1, domain.LineOptions{})
		require.NoError(t, err)

		var (
			wg       sync.WaitGroup
			firstErr error
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, firstErr = svc.Checkout(context.Background(), sid, req)
		}()
		<-gw.started

		_, err = svc.Checkout(t.Context(), sid, req)
		assert.ErrorIs(t, err, service.ErrCheckoutInProgress)

		_, err = svc.AddItem(t.Context(), sid, "2", 1, domain.LineOptions{})
		assert.ErrorIs(t, err, service.ErrCheckoutInProgress)

		close(gw.release)
		wg.Wait()
		require.NoError(t, firstErr)

		v, err := svc.Cart(t.Context(), sid)
		require.NoError(t, err)
		assert.Empty(t, v.Items)
	})

	t.Run("PaymentTimeout", func(t *testing.T) {
		gw := blockingGateway{
			started: make(chan struct{}, 1),
			release: make(chan struct{}),
		}
		mem := storage.NewMemoryStorage()
		svc := service.New(service.Deps{
			Theme:          testTheme(),
			Pricing:        domain.DefaultPricingRules(),
			PaymentTimeout: 20 * time.Millisecond,
			Gateway:        gw,
			Confirmations:  mem,
			Leads:          mem,
		})
		_, err := svc.AddItem(t.Context(), sid, "1", 1, domain.LineOptions{})
		require.NoError(t, err)

		_, err = svc.Checkout(t.Context(), sid, req)
		assert.ErrorIs(t, err, domain.ErrPaymentFailed)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		v, err := svc.Cart(t.Context(), sid)
		require.NoError(t, err)
		assert.Len(t, v.Items, 1)
	})

	t.Run("Placeholder", func(t *testing.T) {
		f := newFixture(t)
		c := f.svc.Confirmation(t.Context(), sid, "MCD-404")
		assert.Equal(t, domain.PlaceholderConfirmation(), c)
	})

	t.Run("ConfirmationHiddenFromOtherSessions", func(t *testing.T) {
		f := newFixture(t)
		fill(t, f)
		f.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil).Once()
		f.orders.On("ProduceOrder", mock.Anything, mock.Anything).Return(nil).Once()

		c, err := f.svc.Checkout(t.Context(), sid, req)
		require.NoError(t, err)

		for _, other := range []string{"", "another-session"} {
			got := f.svc.Confirmation(t.Context(), other, c.OrderNumber)
			assert.Equal(t, domain.PlaceholderConfirmation(), got)
		}
		assert.False(t, f.svc.Confirmation(t.Context(), sid, c.OrderNumber).Placeholder)
	})
}

func TestOrderNumbers(t *testing.T) {
	g := service.NewOrderNumbers(func() time.Time { return testNow })

	seen := make(map[string]struct{})
	for range 100 {
		n := g.NextOrderNumber()
		_, dup := seen[n]
		require.False(t, dup, n)
		seen[n] = struct{}{}
	}
	assert.Contains(t, seen, "MCD-1735689600123")
	assert.Contains(t, seen, "MCD-1735689600222")
}

func TestLeads(t *testing.T) {
	lead := domain.Lead{Name: "Luis", Email: "luis@example.com", Category: "grano"}

	t.Run("CaptureAndRead", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("ProduceLead", mock.Anything, mock.MatchedBy(
			func(l domain.Lead) bool { return l.Key == sid },
		)).Return(nil).Once()

		got, err := f.svc.CaptureLead(t.Context(), sid, lead)
		require.NoError(t, err)
		assert.Equal(t, sid, got.Key)
		assert.Equal(t, testNow, got.CapturedAt)

		read, err := f.svc.Lead(t.Context(), sid)
		require.NoError(t, err)
		assert.Equal(t, got, read)
		f.leads.AssertExpectations(t)
	})

	t.Run("Invalid", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CaptureLead(t.Context(), sid, domain.Lead{Name: "Luis", Email: "nope"})
		assert.ErrorIs(t, err, domain.ErrInvalidLead)

		bad := lead
		bad.Category = "web"
		_, err = f.svc.CaptureLead(t.Context(), sid, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidLead)
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Lead(t.Context(), sid)
		assert.ErrorIs(t, err, service.ErrLeadNotFound)

		_, err = f.svc.Quotation(t.Context(), sid)
		assert.ErrorIs(t, err, service.ErrLeadNotFound)
	})

	t.Run("OfferAndQuotation", func(t *testing.T) {
		f := newFixture(t)
		f.leads.On("ProduceLead", mock.Anything, mock.Anything).Return(nil)
		_, err := f.svc.CaptureLead(t.Context(), sid, lead)
		require.NoError(t, err)

		_, err = f.svc.SelectOffer(t.Context(), sid, "gift")
		assert.ErrorIs(t, err, service.ErrInvalidOffer)

		c, err := f.svc.SelectOffer(t.Context(), sid, domain.OfferQuotation)
		require.NoError(t, err)
		assert.Equal(t, "/cotizacion", c.Offer.NextStep())
		assert.Len(t, f.mem.Conversions(), 1)

		q, err := f.svc.Quotation(t.Context(), sid)
		require.NoError(t, err)
		assert.Equal(t, "COT-600123", q.Number)
		assert.InDelta(t, 1000.0, q.Subtotal, 1e-9)
		assert.InDelta(t, 750.0, q.Total, 1e-9)
		assert.Equal(t, testNow.Add(30*24*time.Hour), q.ValidUntil)
	})
}

func TestIdleSessionsEvicted(t *testing.T) {
	now := testNow
	mem := storage.NewMemoryStorage()
	gateway := new(MockGateway)
	svc := service.New(service.Deps{
		Theme:         testTheme(),
		Pricing:       domain.DefaultPricingRules(),
		SessionTTL:    time.Hour,
		Gateway:       gateway,
		Confirmations: mem,
		Leads:         mem,
		Now:           func() time.Time { return now },
	})

	_, err := svc.AddItem(t.Context(), "idle", "1", 1, domain.LineOptions{})
	require.NoError(t, err)

	now = now.Add(50 * time.Minute)
	_, err = svc.AddItem(t.Context(), "active", "1", 1, domain.LineOptions{})
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, err = svc.Cart(t.Context(), "active")
	require.NoError(t, err)

	assert.Equal(t, 1, svc.EvictIdleSessions())
	assert.Equal(t, 1, svc.SessionCount())

	v, err := svc.Cart(t.Context(), "idle")
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	v, err = svc.Cart(t.Context(), "active")
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
}
