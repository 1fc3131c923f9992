package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.LeadsStorage = (*LeadsRepository)(nil)

type (
	flavorProfile []string

	leadRecord struct {
		Key           string        `json:"key"`
		Name          string        `json:"name"`
		Email         string        `json:"email"`
		Address       string        `json:"address"`
		Category      string        `json:"category"`
		FlavorProfile flavorProfile `json:"flavor_profile"`
		Grind         string        `json:"grind"`
		Quantity      string        `json:"quantity"`
		Frequency     string        `json:"frequency"`
		Notes         string        `json:"notes"`
	}
)

// A LeadsRepository keeps one lead per key, the last write wins.
type LeadsRepository struct {
	sqldb sqldb
}

func NewLeadsRepository(sqldb sqldb) LeadsRepository {
	return LeadsRepository{sqldb}
}

func (r LeadsRepository) StoreLead(ctx context.Context, l domain.Lead) error {
	const op = "LeadsRepository.StoreLead"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	flavorB, err := json.Marshal(flavorProfile(l.FlavorProfile))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO leads (
			key, name, email, address, category, flavor_profile,
			grind, quantity, frequency, notes, captured_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			address = EXCLUDED.address,
			category = EXCLUDED.category,
			flavor_profile = EXCLUDED.flavor_profile,
			grind = EXCLUDED.grind,
			quantity = EXCLUDED.quantity,
			frequency = EXCLUDED.frequency,
			notes = EXCLUDED.notes,
			captured_at = EXCLUDED.captured_at;
	`

	err = retry.Do(ctx, txRetryConfig(), func() error {
		_, err := r.sqldb.ExecContext(ctx, query,
			l.Key, l.Name, l.Email, l.Address, string(l.Category),
			string(flavorB), string(l.Grind), l.Quantity, l.Frequency,
			l.Notes, l.CapturedAt,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r LeadsRepository) ReadLead(
	ctx context.Context, key string,
) (domain.Lead, error) {
	const op = "LeadsRepository.ReadLead"

	if err := ctx.Err(); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT
			key, name, email, address, category, flavor_profile,
			grind, quantity, frequency, notes, captured_at
		FROM leads
		WHERE key = $1;`

	var l domain.Lead
	var category, grind, flavorS string
	err := r.sqldb.QueryRowContext(ctx, query, key).Scan(
		&l.Key, &l.Name, &l.Email, &l.Address, &category, &flavorS,
		&grind, &l.Quantity, &l.Frequency, &l.Notes, &l.CapturedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Lead{}, fmt.Errorf("%s: %w", op, port.ErrNotFound)
		}
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}
	l.Category = domain.Category(category)
	l.Grind = domain.Grind(grind)

	if err := json.Unmarshal([]byte(flavorS), &l.FlavorProfile); err != nil {
		return domain.Lead{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// StoreConversion appends the conversion with a snapshot of the lead.
func (r LeadsRepository) StoreConversion(
	ctx context.Context, c domain.Conversion,
) error {
	const op = "LeadsRepository.StoreConversion"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	leadB, err := json.Marshal(toLeadRecord(c.Lead))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO lead_conversions (lead_key, offer, lead, converted_at)
		VALUES ($1, $2, $3, $4);`

	_, err = r.sqldb.ExecContext(ctx, query,
		c.Lead.Key, string(c.Offer), string(leadB), c.ConvertedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func toLeadRecord(l domain.Lead) (v leadRecord) {
	v.Key = l.Key
	v.Name = l.Name
	v.Email = l.Email
	v.Address = l.Address
	v.Category = string(l.Category)
	v.FlavorProfile = l.FlavorProfile
	v.Grind = string(l.Grind)
	v.Quantity = l.Quantity
	v.Frequency = l.Frequency
	v.Notes = l.Notes
	return
}

// MarshalJSON keeps an empty profile as [] instead of null.
func (f flavorProfile) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(f))
}
