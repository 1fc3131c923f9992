package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/niksmo/storefront/internal/core/domain"
)

func (s *Service) Theme() domain.Theme {
	return s.theme
}

// ListProducts filters the theme products and orders them by sort.
// The featured order is the catalog source order.
func (s *Service) ListProducts(
	ctx context.Context, f domain.ProductFilter, sort domain.ProductSort,
) ([]domain.Product, error) {
	const op = "Service.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps := make([]domain.Product, 0, len(s.theme.Products))
	for _, p := range s.theme.Products {
		if f.Match(p) {
			ps = append(ps, p)
		}
	}

	switch sort {
	case domain.SortPriceAsc:
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case domain.SortName:
		slices.SortStableFunc(ps, func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		})
	}
	return ps, nil
}

func (s *Service) Product(
	ctx context.Context, id string,
) (domain.Product, error) {
	const op = "Service.Product"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	for _, p := range s.theme.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%s: %w", op, ErrProductNotFound)
}
