package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ConfirmationStorage = (*ConfirmationView)(nil)

// A tableGetter is the read side of [goka.View].
type tableGetter interface {
	Get(key string) (any, error)
}

// A ConfirmationView reads confirmations from the group table of
// [ConfirmationProcessor].
//
// Confirmations stored by this process are served from the local
// storage first, the table only catches up after the order event is
// processed.
type ConfirmationView struct {
	gv    *goka.View
	table tableGetter
	local port.ConfirmationStorage
}

func NewConfirmationView(
	seedBrokers []string, group string, local port.ConfirmationStorage,
) (*ConfirmationView, error) {
	const op = "NewConfirmationView"

	if local == nil {
		panic(op + ": local storage is nil") // develop mistake
	}

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		newConfirmationCodec(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &ConfirmationView{gv: gv, table: gv, local: local}, nil
}

// Run blocks until ctx is done.
func (v *ConfirmationView) Run(ctx context.Context) {
	const op = "ConfirmationView.Run"
	log := slog.With("op", op)

	err := v.gv.Run(ctx)
	if err != nil {
		log.Error("unexpected fail on run", "err", err)
		return
	}
	log.Info("stopped")
}

func (v *ConfirmationView) StoreConfirmation(
	ctx context.Context, c domain.Confirmation,
) error {
	const op = "ConfirmationView.StoreConfirmation"

	if err := v.local.StoreConfirmation(ctx, c); err != nil {
		return opErr(err, op)
	}
	return nil
}

func (v *ConfirmationView) ReadConfirmation(
	ctx context.Context, orderNumber string,
) (domain.Confirmation, error) {
	const op = "ConfirmationView.ReadConfirmation"

	c, err := v.local.ReadConfirmation(ctx, orderNumber)
	if err == nil {
		return c, nil
	}

	value, err := v.table.Get(orderNumber)
	if err != nil {
		return domain.Confirmation{}, opErr(err, op)
	}
	if value == nil {
		return domain.Confirmation{}, opErr(port.ErrNotFound, op)
	}

	s, ok := value.(schema.ConfirmationV1)
	if !ok {
		return domain.Confirmation{}, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}
	return confirmationFromSchemaV1(s), nil
}
