package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
)

var _ port.OrdersStorage = (*OrdersRepository)(nil)
var _ port.ConfirmationStorage = (*OrdersRepository)(nil)

// An OrdersRepository stores paid orders in PostgreSQL and serves
// confirmations back from them.
type OrdersRepository struct {
	sqldb sqldb
}

func NewOrdersRepository(sqldb sqldb) OrdersRepository {
	return OrdersRepository{sqldb}
}

func (r OrdersRepository) StoreOrder(
	ctx context.Context, o domain.Order,
) error {
	const op = "OrdersRepository.StoreOrder"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := retry.Do(ctx, txRetryConfig(), func() error {
		return inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
			return r.insertOrder(ctx, tx, o)
		})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r OrdersRepository) insertOrder(
	ctx context.Context, tx *sql.Tx, o domain.Order,
) error {
	log := slog.With("op", "OrdersRepository.insertOrder")

	addrB, err := json.Marshal(o.Customer.Address)
	if err != nil {
		return err
	}

	orderQuery := `
		INSERT INTO orders (
			number, customer_name, customer_email, customer_phone,
			customer_address, subtotal, tax, shipping, total,
			status, payment_method, placed_at, session_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.ExecContext(ctx, orderQuery,
		o.Number, o.Customer.Name, o.Customer.Email, o.Customer.Phone,
		string(addrB), o.Totals.Subtotal, o.Totals.Tax, o.Totals.Shipping,
		o.Totals.Total, string(o.Status), string(o.PaymentMethod), o.PlacedAt,
		o.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (
			order_number, position, product_id, name, unit_price,
			discount, quantity, grind, size, line_total
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	stmt, err := tx.PrepareContext(ctx, itemQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare stmt: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Error("failed to close prepared stmt", "err", err)
		}
	}()

	for i, li := range o.Items {
		lineTotal := li.Product.EffectivePrice() * float64(li.Quantity)
		_, err := stmt.ExecContext(ctx,
			o.Number, i, li.Product.ID, li.Product.Name, li.Product.Price,
			li.Product.Discount, li.Quantity, string(li.Options.Grind),
			string(li.Options.Size), lineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
	}
	return nil
}

// StoreConfirmation is a no-op: confirmations are derived from the
// stored order.
func (r OrdersRepository) StoreConfirmation(
	ctx context.Context, _ domain.Confirmation,
) error {
	return ctx.Err()
}

func (r OrdersRepository) ReadConfirmation(
	ctx context.Context, orderNumber string,
) (domain.Confirmation, error) {
	const op = "OrdersRepository.ReadConfirmation"

	if err := ctx.Err(); err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT number, session_id, total, payment_method, placed_at
		FROM orders
		WHERE number = $1;`

	var c domain.Confirmation
	var method string
	err := r.sqldb.QueryRowContext(ctx, query, orderNumber).Scan(
		&c.OrderNumber, &c.SessionID, &c.Total, &method, &c.PaidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Confirmation{}, fmt.Errorf("%s: %w", op, port.ErrNotFound)
		}
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}
	c.PaymentMethod = domain.PaymentMethod(method)

	c.Items, err = r.readItems(ctx, orderNumber)
	if err != nil {
		return domain.Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (r OrdersRepository) readItems(
	ctx context.Context, orderNumber string,
) (items []domain.LineItem, err error) {
	query := `
		SELECT product_id, name, unit_price, discount, quantity, grind, size
		FROM order_items
		WHERE order_number = $1
		ORDER BY position ASC;`

	rows, err := r.sqldb.QueryContext(ctx, query, orderNumber)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		var li domain.LineItem
		var grind, size string
		err := rows.Scan(
			&li.Product.ID, &li.Product.Name, &li.Product.Price,
			&li.Product.Discount, &li.Quantity, &grind, &size,
		)
		if err != nil {
			return nil, err
		}
		li.Options.Grind = domain.Grind(grind)
		li.Options.Size = domain.Size(size)
		items = append(items, li)
	}
	return items, rows.Err()
}
