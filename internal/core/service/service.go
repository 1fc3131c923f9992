package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.CatalogReader = (*Service)(nil)
var _ port.CartManager = (*Service)(nil)
var _ port.CheckoutProcessor = (*Service)(nil)
var _ port.LeadCapturer = (*Service)(nil)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrCheckoutInProgress   = errors.New("checkout is in progress")
	ErrLeadNotFound         = errors.New("lead not found")
	ErrInvalidOffer         = errors.New("invalid offer")
)

const (
	defaultPaymentTimeout = 30 * time.Second
	defaultSessionTTL     = 24 * time.Hour
	minSweepInterval      = time.Second
)

// Deps are the collaborators of [Service]. Gateway, Confirmations and
// Leads are required, the rest is optional.
type Deps struct {
	Theme          domain.Theme
	Pricing        domain.PricingRules
	PaymentTimeout time.Duration

	// SessionTTL is how long an untouched cart is kept.
	SessionTTL time.Duration

	Gateway       port.PaymentGateway
	OrderNumbers  port.OrderNumberGenerator
	Confirmations port.ConfirmationStorage
	Orders        port.OrdersStorage
	Leads         port.LeadsStorage

	OrdersProducer        port.OrdersProducer
	LeadsProducer         port.LeadsProducer
	ConfirmationProcessor port.ConfirmationProcessor

	Now func() time.Time
}

type Service struct {
	theme          domain.Theme
	paymentTimeout time.Duration
	sessionTTL     time.Duration
	carts          *cartRegistry

	gateway       port.PaymentGateway
	orderNumbers  port.OrderNumberGenerator
	confirmations port.ConfirmationStorage
	orders        port.OrdersStorage
	leads         port.LeadsStorage

	ordersProducer    port.OrdersProducer
	leadsProducer     port.LeadsProducer
	confirmationsProc port.ConfirmationProcessor

	now func() time.Time
}

func New(d Deps) *Service {
	const op = "service.New"

	if d.Gateway == nil || d.Confirmations == nil || d.Leads == nil {
		panic(op + ": required dependency is nil") // develop mistake
	}

	if d.Now == nil {
		d.Now = time.Now
	}
	if d.OrderNumbers == nil {
		d.OrderNumbers = NewOrderNumbers(d.Now)
	}
	if d.PaymentTimeout <= 0 {
		d.PaymentTimeout = defaultPaymentTimeout
	}
	if d.SessionTTL <= 0 {
		d.SessionTTL = defaultSessionTTL
	}

	return &Service{
		theme:             d.Theme,
		paymentTimeout:    d.PaymentTimeout,
		sessionTTL:        d.SessionTTL,
		carts:             newCartRegistry(d.Pricing, d.SessionTTL, d.Now),
		gateway:           d.Gateway,
		orderNumbers:      d.OrderNumbers,
		confirmations:     d.Confirmations,
		orders:            d.Orders,
		leads:             d.Leads,
		ordersProducer:    d.OrdersProducer,
		leadsProducer:     d.LeadsProducer,
		confirmationsProc: d.ConfirmationProcessor,
		now:               d.Now,
	}
}

// Run runs the background components in separate goroutines.
//
// Blocks current goroutine while components is preparing to ready state.
func (s *Service) Run(ctx context.Context, stopFn context.CancelFunc) {
	go s.sweepSessions(ctx)

	if s.confirmationsProc == nil {
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go s.confirmationsProc.Run(ctx, stopFn, &wg)
	wg.Wait()
}

// sweepSessions evicts idle carts until ctx is done.
func (s *Service) sweepSessions(ctx context.Context) {
	const op = "Service.sweepSessions"
	log := slog.With("op", op)

	interval := max(s.sessionTTL/4, minSweepInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.carts.evictIdle(); n > 0 {
				log.Debug("idle sessions evicted", "n", n)
			}
		}
	}
}

func (s *Service) Close() {
	if s.confirmationsProc != nil {
		s.confirmationsProc.Close()
	}
}
