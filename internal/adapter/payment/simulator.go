package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.PaymentGateway = (*Simulator)(nil)

// A Simulator stands in for a payment provider. Every charge is
// confirmed after a fixed delay unless its amount exceeds maxCharge.
type Simulator struct {
	delay     time.Duration
	maxCharge float64
}

// NewSimulator returns a gateway; maxCharge <= 0 means no limit.
func NewSimulator(delay time.Duration, maxCharge float64) Simulator {
	return Simulator{delay: delay, maxCharge: maxCharge}
}

func (s Simulator) Charge(ctx context.Context, req domain.PaymentRequest) error {
	const op = "Simulator.Charge"
	log := slog.With("op", op, "orderNumber", req.OrderNumber)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-timer.C:
		}
	}

	if s.maxCharge > 0 && req.Amount > s.maxCharge {
		log.Warn("charge declined", "amount", req.Amount)
		return fmt.Errorf(
			"%s: %w: amount %.2f exceeds limit %.2f",
			op, domain.ErrPaymentFailed, req.Amount, s.maxCharge,
		)
	}

	log.Info("charge confirmed", "amount", req.Amount, "method", req.Method)
	return nil
}
