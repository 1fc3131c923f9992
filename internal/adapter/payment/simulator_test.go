package payment_test

import (
	"context"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/adapter/payment"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestSimulatorCharge(t *testing.T) {
	req := domain.PaymentRequest{
		OrderNumber: "MCD-1",
		Amount:      196.84,
		Method:      domain.PaymentCard,
	}

	t.Run("Confirmed", func(t *testing.T) {
		s := payment.NewSimulator(time.Millisecond, 0)
		assert.NoError(t, s.Charge(t.Context(), req))
	})

	t.Run("DeclinedOverLimit", func(t *testing.T) {
		s := payment.NewSimulator(0, 100)
		err := s.Charge(t.Context(), req)
		assert.ErrorIs(t, err, domain.ErrPaymentFailed)
	})

	t.Run("Timeout", func(t *testing.T) {
		s := payment.NewSimulator(time.Second, 0)
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
		defer cancel()
		err := s.Charge(ctx, req)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}
