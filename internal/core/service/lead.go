package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// CaptureLead stores the lead under key, replacing any previous one.
func (s *Service) CaptureLead(
	ctx context.Context, key string, l domain.Lead,
) (domain.Lead, error) {
	const op = "Service.CaptureLead"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := l.Validate(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}
	if l.Category != "" && !s.theme.HasCategory(l.Category) {
		return domain.Lead{}, fmt.Errorf(
			"%s: %w: unknown category %q", op, domain.ErrInvalidLead, l.Category,
		)
	}

	l.Key = key
	l.CapturedAt = s.now()

	if err := s.leads.StoreLead(ctx, l); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	if s.leadsProducer != nil {
		if err := s.leadsProducer.ProduceLead(ctx, l); err != nil {
			log.Error("failed to produce lead", "err", err)
		}
	}

	log.Info("lead captured", "category", l.Category)
	return l, nil
}

func (s *Service) Lead(ctx context.Context, key string) (domain.Lead, error) {
	const op = "Service.Lead"

	if err := ctx.Err(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	l, err := s.leads.ReadLead(ctx, key)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return domain.Lead{}, fmt.Errorf("%s: %w", op, ErrLeadNotFound)
		}
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func (s *Service) SelectOffer(
	ctx context.Context, key string, o domain.Offer,
) (domain.Conversion, error) {
	const op = "Service.SelectOffer"

	if !o.Valid() {
		return domain.Conversion{}, fmt.Errorf("%s: %w: %q", op, ErrInvalidOffer, o)
	}

	l, err := s.Lead(ctx, key)
	if err != nil {
		return domain.Conversion{}, fmt.Errorf("%s: %w", op, err)
	}

	c := domain.Conversion{Lead: l, Offer: o, ConvertedAt: s.now()}
	if err := s.leads.StoreConversion(ctx, c); err != nil {
		return domain.Conversion{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Quotation prices the wholesale quote lines configured for the lead
// category.
func (s *Service) Quotation(
	ctx context.Context, key string,
) (domain.Quotation, error) {
	const op = "Service.Quotation"

	l, err := s.Lead(ctx, key)
	if err != nil {
		return domain.Quotation{}, fmt.Errorf("%s: %w", op, err)
	}

	lines := s.theme.QuoteLines[l.Category]
	return domain.NewQuotation(l, lines, s.now()), nil
}
