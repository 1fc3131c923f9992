package httphandler

import (
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/money"
)

type (
	Product struct {
		ID             string   `json:"id"`
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		Price          float64  `json:"price"`
		EffectivePrice float64  `json:"effective_price"`
		PriceFormatted string   `json:"price_formatted"`
		Category       string   `json:"category"`
		Origin         string   `json:"origin,omitempty"`
		Intensity      string   `json:"intensity,omitempty"`
		FlavorNotes    []string `json:"flavor_notes,omitempty"`
		Image          string   `json:"image,omitempty"`
		Stock          int      `json:"stock"`
		Discount       float64  `json:"discount"`
		IsNew          bool     `json:"is_new"`
		IsBestSeller   bool     `json:"is_best_seller"`
	}

	CartItem struct {
		Product            Product `json:"product"`
		Quantity           int     `json:"quantity"`
		Grind              string  `json:"grind,omitempty"`
		Size               string  `json:"size,omitempty"`
		LineTotal          float64 `json:"line_total"`
		LineTotalFormatted string  `json:"line_total_formatted"`
	}

	Totals struct {
		Subtotal  float64         `json:"subtotal"`
		Tax       float64         `json:"tax"`
		Shipping  float64         `json:"shipping"`
		Total     float64         `json:"total"`
		Formatted FormattedTotals `json:"formatted"`
	}

	FormattedTotals struct {
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Shipping string `json:"shipping"`
		Total    string `json:"total"`
	}

	Cart struct {
		Items     []CartItem `json:"items"`
		ItemCount int        `json:"item_count"`
		Totals    Totals     `json:"totals"`
	}

	AddItemRequest struct {
		ProductID string `json:"product_id"`
		Quantity  *int   `json:"quantity"`
		Grind     string `json:"grind"`
		Size      string `json:"size"`
	}

	UpdateQuantityRequest struct {
		Quantity int `json:"quantity"`
	}
)

// quantity defaults to one when the field is omitted.
func (r AddItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

func (r AddItemRequest) options() domain.LineOptions {
	return domain.LineOptions{
		Grind: domain.Grind(r.Grind),
		Size:  domain.Size(r.Size),
	}
}

type (
	Address struct {
		Street     string `json:"street"`
		City       string `json:"city"`
		Department string `json:"department"`
		ZipCode    string `json:"zip_code"`
		Country    string `json:"country"`
	}

	Customer struct {
		Name    string  `json:"name"`
		Email   string  `json:"email"`
		Phone   string  `json:"phone"`
		Address Address `json:"address"`
	}

	CheckoutRequest struct {
		PaymentMethod string   `json:"payment_method"`
		Customer      Customer `json:"customer"`
	}

	Confirmation struct {
		OrderNumber    string     `json:"order_number"`
		Total          float64    `json:"total"`
		TotalFormatted string     `json:"total_formatted"`
		Items          []CartItem `json:"items"`
		PaymentMethod  string     `json:"payment_method,omitempty"`
		PaidAt         *time.Time `json:"paid_at,omitempty"`
		Placeholder    bool       `json:"placeholder"`
	}
)

type (
	Lead struct {
		Name          string     `json:"name"`
		Email         string     `json:"email"`
		Address       string     `json:"address"`
		Category      string     `json:"category"`
		FlavorProfile []string   `json:"flavor_profile"`
		Grind         string     `json:"grind"`
		Quantity      string     `json:"quantity"`
		Frequency     string     `json:"frequency"`
		Notes         string     `json:"notes"`
		CapturedAt    *time.Time `json:"captured_at,omitempty"`
	}

	OfferRequest struct {
		Offer string `json:"offer"`
	}

	Conversion struct {
		Offer       string    `json:"offer"`
		NextStep    string    `json:"next_step"`
		ConvertedAt time.Time `json:"converted_at"`
	}

	QuoteLine struct {
		Name      string  `json:"name"`
		Quantity  string  `json:"quantity"`
		UnitPrice float64 `json:"unit_price"`
		Total     float64 `json:"total"`
	}

	Quotation struct {
		Number     string      `json:"number"`
		Lead       Lead        `json:"lead"`
		Lines      []QuoteLine `json:"lines"`
		Subtotal   float64     `json:"subtotal"`
		Discount   float64     `json:"discount"`
		Total      float64     `json:"total"`
		IssuedAt   time.Time   `json:"issued_at"`
		ValidUntil time.Time   `json:"valid_until"`
	}
)

func productFromDomain(p domain.Product, symbol string) Product {
	return Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		EffectivePrice: p.EffectivePrice(),
		PriceFormatted: money.Format(p.EffectivePrice(), symbol),
		Category:       string(p.Category),
		Origin:         p.Origin,
		Intensity:      string(p.Intensity),
		FlavorNotes:    p.FlavorNotes,
		Image:          p.Image,
		Stock:          p.Stock,
		Discount:       p.Discount,
		IsNew:          p.IsNew,
		IsBestSeller:   p.IsBestSeller,
	}
}

func cartItemFromDomain(li domain.LineItem, symbol string) CartItem {
	lineTotal := li.Product.EffectivePrice() * float64(li.Quantity)
	return CartItem{
		Product:            productFromDomain(li.Product, symbol),
		Quantity:           li.Quantity,
		Grind:              string(li.Options.Grind),
		Size:               string(li.Options.Size),
		LineTotal:          lineTotal,
		LineTotalFormatted: money.Format(lineTotal, symbol),
	}
}

func totalsFromDomain(t domain.Totals, symbol string) Totals {
	return Totals{
		Subtotal: t.Subtotal,
		Tax:      t.Tax,
		Shipping: t.Shipping,
		Total:    t.Total,
		Formatted: FormattedTotals{
			Subtotal: money.Format(t.Subtotal, symbol),
			Tax:      money.Format(t.Tax, symbol),
			Shipping: money.Format(t.Shipping, symbol),
			Total:    money.Format(t.Total, symbol),
		},
	}
}

func cartFromView(v port.CartView, symbol string) Cart {
	c := Cart{
		Items:     make([]CartItem, len(v.Items)),
		ItemCount: v.ItemCount,
		Totals:    totalsFromDomain(v.Totals, symbol),
	}
	for i, li := range v.Items {
		item := cartItemFromDomain(li, symbol)
		if i < len(v.LineTotal) {
			item.LineTotal = v.LineTotal[i]
			item.LineTotalFormatted = money.Format(item.LineTotal, symbol)
		}
		c.Items[i] = item
	}
	return c
}

func (r CheckoutRequest) toDomain() port.CheckoutRequest {
	return port.CheckoutRequest{
		PaymentMethod: domain.PaymentMethod(r.PaymentMethod),
		Customer: domain.Customer{
			Name:  r.Customer.Name,
			Email: r.Customer.Email,
			Phone: r.Customer.Phone,
			Address: domain.Address{
				Street:     r.Customer.Address.Street,
				City:       r.Customer.Address.City,
				Department: r.Customer.Address.Department,
				ZipCode:    r.Customer.Address.ZipCode,
				Country:    r.Customer.Address.Country,
			},
		},
	}
}

func confirmationFromDomain(c domain.Confirmation, symbol string) Confirmation {
	res := Confirmation{
		OrderNumber:    c.OrderNumber,
		Total:          c.Total,
		TotalFormatted: money.Format(c.Total, symbol),
		Items:          make([]CartItem, len(c.Items)),
		PaymentMethod:  string(c.PaymentMethod),
		Placeholder:    c.Placeholder,
	}
	for i, li := range c.Items {
		res.Items[i] = cartItemFromDomain(li, symbol)
	}
	if !c.PaidAt.IsZero() {
		paidAt := c.PaidAt
		res.PaidAt = &paidAt
	}
	return res
}

func (l Lead) toDomain() domain.Lead {
	return domain.Lead{
		Name:          l.Name,
		Email:         l.Email,
		Address:       l.Address,
		Category:      domain.Category(l.Category),
		FlavorProfile: l.FlavorProfile,
		Grind:         domain.Grind(l.Grind),
		Quantity:      l.Quantity,
		Frequency:     l.Frequency,
		Notes:         l.Notes,
	}
}

func leadFromDomain(l domain.Lead) Lead {
	res := Lead{
		Name:          l.Name,
		Email:         l.Email,
		Address:       l.Address,
		Category:      string(l.Category),
		FlavorProfile: l.FlavorProfile,
		Grind:         string(l.Grind),
		Quantity:      l.Quantity,
		Frequency:     l.Frequency,
		Notes:         l.Notes,
	}
	if !l.CapturedAt.IsZero() {
		capturedAt := l.CapturedAt
		res.CapturedAt = &capturedAt
	}
	return res
}

func quotationFromDomain(q domain.Quotation) Quotation {
	res := Quotation{
		Number:     q.Number,
		Lead:       leadFromDomain(q.Lead),
		Lines:      make([]QuoteLine, len(q.Lines)),
		Subtotal:   q.Subtotal,
		Discount:   q.Discount,
		Total:      q.Total,
		IssuedAt:   q.IssuedAt,
		ValidUntil: q.ValidUntil,
	}
	for i, l := range q.Lines {
		res.Lines[i] = QuoteLine(l)
	}
	return res
}
