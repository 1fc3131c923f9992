package domain

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidLead = errors.New("invalid lead")

type Offer string

const (
	OfferQuotation Offer = "quotation"
	OfferPurchase  Offer = "purchase"
)

func (o Offer) Valid() bool {
	return o == OfferQuotation || o == OfferPurchase
}

// NextStep is the page a visitor is sent to after choosing an offer.
func (o Offer) NextStep() string {
	if o == OfferQuotation {
		return "/cotizacion"
	}
	return "/checkout"
}

type (
	// A Lead is contact and preference data captured by a marketing form.
	Lead struct {
		Key           string
		Name          string
		Email         string
		Address       string
		Category      Category
		FlavorProfile []string
		Grind         Grind
		Quantity      string
		Frequency     string
		Notes         string
		CapturedAt    time.Time
	}

	Conversion struct {
		Lead        Lead
		Offer       Offer
		ConvertedAt time.Time
	}

	QuoteLine struct {
		Name      string
		Quantity  string
		UnitPrice float64
		Total     float64
	}

	Quotation struct {
		Number     string
		Lead       Lead
		Lines      []QuoteLine
		Subtotal   float64
		Discount   float64
		Total      float64
		IssuedAt   time.Time
		ValidUntil time.Time
	}
)

func (l Lead) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.Join(ErrInvalidLead, errors.New("name is required"))
	}
	if _, err := mail.ParseAddress(l.Email); err != nil {
		return errors.Join(ErrInvalidLead, errors.New("email is malformed"))
	}
	return nil
}

const (
	quotationDiscountRate = 0.25
	quotationValidity     = 30 * 24 * time.Hour
)

// NewQuotation prices a wholesale quote with the volume discount applied
// to the whole subtotal.
func NewQuotation(lead Lead, lines []QuoteLine, now time.Time) Quotation {
	var subtotal float64
	for _, l := range lines {
		subtotal += l.Total
	}
	discount := subtotal * quotationDiscountRate

	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}

	return Quotation{
		Number:     "COT-" + ms,
		Lead:       lead,
		Lines:      lines,
		Subtotal:   subtotal,
		Discount:   discount,
		Total:      subtotal - discount,
		IssuedAt:   now,
		ValidUntil: now.Add(quotationValidity),
	}
}
