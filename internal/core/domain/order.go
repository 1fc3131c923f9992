package domain

import (
	"errors"
	"time"
)

var ErrPaymentFailed = errors.New("payment failed")

type PaymentMethod string

const (
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentDeposit  PaymentMethod = "deposit"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentTransfer, PaymentDeposit:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
)

type (
	Address struct {
		Street     string
		City       string
		Department string
		ZipCode    string
		Country    string
	}

	Customer struct {
		Name    string
		Email   string
		Phone   string
		Address Address
	}

	Order struct {
		Number        string
		SessionID     string
		Customer      Customer
		Items         []LineItem
		Totals        Totals
		Status        OrderStatus
		PaymentMethod PaymentMethod
		PlacedAt      time.Time
	}

	// A Confirmation is handed to the order confirmation view
	// after a successful checkout. Only the paying session may see it.
	Confirmation struct {
		OrderNumber   string
		SessionID     string
		Total         float64
		Items         []LineItem
		PaymentMethod PaymentMethod
		PaidAt        time.Time
		Placeholder   bool
	}

	PaymentRequest struct {
		OrderNumber string
		Amount      float64
		Method      PaymentMethod
		Customer    Customer
	}
)

// PlaceholderConfirmation is shown when no confirmation was handed off.
func PlaceholderConfirmation() Confirmation {
	return Confirmation{
		OrderNumber: "MCD-1234567890",
		Total:       1299.99,
		Items:       []LineItem{},
		Placeholder: true,
	}
}

func (o Order) Confirmation() Confirmation {
	return Confirmation{
		OrderNumber:   o.Number,
		SessionID:     o.SessionID,
		Total:         o.Totals.Total,
		Items:         o.Items,
		PaymentMethod: o.PaymentMethod,
		PaidAt:        o.PlacedAt,
	}
}

// VisibleTo reports whether the confirmation belongs to sessionID.
func (c Confirmation) VisibleTo(sessionID string) bool {
	return sessionID != "" && c.SessionID == sessionID
}
