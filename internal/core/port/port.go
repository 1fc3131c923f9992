package port

import (
	"context"
	"errors"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

// ErrNotFound is returned by storages when the key is absent.
var ErrNotFound = errors.New("not found")

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound ports.

type CatalogReader interface {
	Theme() domain.Theme
	ListProducts(context.Context, domain.ProductFilter, domain.ProductSort) ([]domain.Product, error)
	Product(ctx context.Context, id string) (domain.Product, error)
}

type CartManager interface {
	Cart(ctx context.Context, sessionID string) (CartView, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int, opts domain.LineOptions) (CartView, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int) (CartView, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (CartView, error)
}

type CheckoutProcessor interface {
	Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (domain.Confirmation, error)
	Confirmation(ctx context.Context, sessionID, orderNumber string) domain.Confirmation
}

type LeadCapturer interface {
	CaptureLead(ctx context.Context, key string, l domain.Lead) (domain.Lead, error)
	Lead(ctx context.Context, key string) (domain.Lead, error)
	SelectOffer(ctx context.Context, key string, o domain.Offer) (domain.Conversion, error)
	Quotation(ctx context.Context, key string) (domain.Quotation, error)
}

type (
	CartView struct {
		Items     []domain.LineItem
		LineTotal []float64
		ItemCount int
		Totals    domain.Totals
	}

	CheckoutRequest struct {
		PaymentMethod domain.PaymentMethod
		Customer      domain.Customer
	}
)

// Outbound ports.

type CatalogSource interface {
	LoadTheme(context.Context) (domain.Theme, error)
}

type PaymentGateway interface {
	Charge(context.Context, domain.PaymentRequest) error
}

type OrderNumberGenerator interface {
	NextOrderNumber() string
}

type OrdersStorage interface {
	StoreOrder(context.Context, domain.Order) error
}

type LeadsStorage interface {
	StoreLead(context.Context, domain.Lead) error
	ReadLead(ctx context.Context, key string) (domain.Lead, error)
	StoreConversion(context.Context, domain.Conversion) error
}

type ConfirmationStorage interface {
	StoreConfirmation(context.Context, domain.Confirmation) error
	ReadConfirmation(ctx context.Context, orderNumber string) (domain.Confirmation, error)
}

type OrdersProducer interface {
	ProduceOrder(context.Context, domain.Order) error
}

type LeadsProducer interface {
	ProduceLead(context.Context, domain.Lead) error
}

type ConfirmationProcessor interface {
	runnerContextWg
	closer
}
