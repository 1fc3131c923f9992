package catalog

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"gopkg.in/yaml.v3"
)

var _ port.CatalogSource = (*Source)(nil)

var (
	ErrUnknownTheme = errors.New("unknown theme")
	ErrInvalidTheme = errors.New("invalid theme")
)

//go:embed themes/*.yaml
var themesFS embed.FS

type (
	themeFile struct {
		Name           string                     `yaml:"name"`
		CurrencySymbol string                     `yaml:"currency_symbol"`
		Categories     []string                   `yaml:"categories"`
		Products       []productRecord            `yaml:"products"`
		QuoteLines     map[string][]quoteLineItem `yaml:"quote_lines"`
	}

	productRecord struct {
		ID           string   `yaml:"id"`
		Name         string   `yaml:"name"`
		Description  string   `yaml:"description"`
		Price        float64  `yaml:"price"`
		Category     string   `yaml:"category"`
		Origin       string   `yaml:"origin"`
		Intensity    string   `yaml:"intensity"`
		FlavorNotes  []string `yaml:"flavor_notes"`
		Image        string   `yaml:"image"`
		Stock        int      `yaml:"stock"`
		Discount     float64  `yaml:"discount"`
		IsNew        bool     `yaml:"is_new"`
		IsBestSeller bool     `yaml:"is_best_seller"`
	}

	quoteLineItem struct {
		Name      string  `yaml:"name"`
		Quantity  string  `yaml:"quantity"`
		UnitPrice float64 `yaml:"unit_price"`
		Total     float64 `yaml:"total"`
	}
)

// A Source loads the catalog theme either from an external file or
// from the themes built into the binary.
type Source struct {
	theme string
	file  string
}

// NewSource returns a source for the built-in theme, or for file when
// it is not empty.
func NewSource(theme, file string) Source {
	return Source{theme: theme, file: file}
}

func (s Source) LoadTheme(ctx context.Context) (domain.Theme, error) {
	const op = "Source.LoadTheme"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return domain.Theme{}, fmt.Errorf("%s: %w", op, err)
	}

	r, err := s.open()
	if err != nil {
		return domain.Theme{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("failed to close theme file", "err", err)
		}
	}()

	t, err := Decode(r)
	if err != nil {
		return domain.Theme{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("catalog theme is loaded",
		"theme", t.Name, "nProducts", len(t.Products),
	)
	return t, nil
}

func (s Source) open() (io.ReadCloser, error) {
	if s.file != "" {
		return os.Open(s.file)
	}
	f, err := themesFS.Open("themes/" + s.theme + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, s.theme)
	}
	return f, nil
}

// Decode parses and validates a YAML theme document.
func Decode(r io.Reader) (domain.Theme, error) {
	var f themeFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return domain.Theme{}, fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}

	t := f.toDomain()
	if err := validate(t); err != nil {
		return domain.Theme{}, fmt.Errorf("%w: %w", ErrInvalidTheme, err)
	}
	return t, nil
}

func validate(t domain.Theme) error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if len(t.Categories) == 0 {
		return errors.New("categories are required")
	}

	var errs []error
	seen := make(map[string]struct{}, len(t.Products))
	for _, p := range t.Products {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("product %q: id is required", p.Name))
			continue
		}
		if _, ok := seen[p.ID]; ok {
			errs = append(errs, fmt.Errorf("product %q: duplicate id", p.ID))
		}
		seen[p.ID] = struct{}{}

		if p.Price < 0 {
			errs = append(errs, fmt.Errorf("product %q: negative price", p.ID))
		}
		if p.Discount < 0 || p.Discount > 100 {
			errs = append(errs, fmt.Errorf("product %q: discount out of range", p.ID))
		}
		if !t.HasCategory(p.Category) {
			errs = append(errs, fmt.Errorf(
				"product %q: unknown category %q", p.ID, p.Category,
			))
		}
	}
	return errors.Join(errs...)
}

func (f themeFile) toDomain() (t domain.Theme) {
	t.Name = f.Name
	t.CurrencySymbol = f.CurrencySymbol

	t.Categories = make([]domain.Category, len(f.Categories))
	for i, c := range f.Categories {
		t.Categories[i] = domain.Category(c)
	}

	t.Products = make([]domain.Product, len(f.Products))
	for i, p := range f.Products {
		t.Products[i] = domain.Product{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			Category:     domain.Category(p.Category),
			Origin:       p.Origin,
			Intensity:    domain.Intensity(p.Intensity),
			FlavorNotes:  p.FlavorNotes,
			Image:        p.Image,
			Stock:        p.Stock,
			Discount:     p.Discount,
			IsNew:        p.IsNew,
			IsBestSeller: p.IsBestSeller,
		}
	}

	t.QuoteLines = make(map[domain.Category][]domain.QuoteLine, len(f.QuoteLines))
	for c, lines := range f.QuoteLines {
		ql := make([]domain.QuoteLine, len(lines))
		for i, l := range lines {
			ql[i] = domain.QuoteLine{
				Name:      l.Name,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
				Total:     l.Total,
			}
		}
		t.QuoteLines[domain.Category(c)] = ql
	}
	return t
}
