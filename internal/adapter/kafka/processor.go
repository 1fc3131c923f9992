package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
)

var _ port.ConfirmationProcessor = (*ConfirmationProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An orderEventCodec used for serde [schema.OrderPlacedV1]
type orderEventCodec struct {
	serde Serde
}

func newOrderEventCodec(s Serde) orderEventCodec {
	return orderEventCodec{s}
}

func (c orderEventCodec) Encode(v any) ([]byte, error) {
	const op = "orderEventCodec.Encode"
	if _, ok := v.(schema.OrderPlacedV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c orderEventCodec) Decode(data []byte) (any, error) {
	const op = "orderEventCodec.Decode"
	var s schema.OrderPlacedV1
	if err := c.serde.Decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A confirmationCodec used for serde [schema.ConfirmationV1] values
// of the confirmations group table.
type confirmationCodec struct {
	encode func(any) ([]byte, error)
	decode func([]byte, any) error
}

func newConfirmationCodec() confirmationCodec {
	s := schema.ConfirmationV1Avro()
	return confirmationCodec{
		encode: schema.AvroEncodeFn(s),
		decode: schema.AvroDecodeFn(s),
	}
}

func (c confirmationCodec) Encode(v any) ([]byte, error) {
	const op = "confirmationCodec.Encode"
	if _, ok := v.(schema.ConfirmationV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.encode(v)
}

func (c confirmationCodec) Decode(data []byte) (any, error) {
	const op = "confirmationCodec.Decode"
	var s schema.ConfirmationV1
	if err := c.decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A ConfirmationProcessor consumes placed orders from the orders stream
// and keeps a confirmation per order number in its group table.
type ConfirmationProcessor struct {
	opPrefix string
	proc     processor
}

func NewConfirmationProcessor(
	seedBrokers []string,
	ordersStream string,
	group string,
	orderSerde Serde,
	opts ...goka.ProcessorOption,
) (*ConfirmationProcessor, error) {
	const op = "NewConfirmationProcessor"

	p := ConfirmationProcessor{opPrefix: "ConfirmationProcessor"}

	gg := goka.DefineGroup(goka.Group(group),
		goka.Input(
			goka.Stream(ordersStream),
			newOrderEventCodec(orderSerde),
			p.processFn,
		),
		goka.Persist(newConfirmationCodec()),
	)

	opts = append([]goka.ProcessorOption{withNonlogProcOpt()}, opts...)
	gp, err := goka.NewProcessor(seedBrokers, gg, opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{opPrefix: p.opPrefix, gp: gp}
	return &p, nil
}

func (p *ConfirmationProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ConfirmationProcessor) Close() {
	p.proc.close()
}

func (p *ConfirmationProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"

	event, ok := msg.(schema.OrderPlacedV1)
	log := slog.With(
		"op", makeOp(p.opPrefix, op), "orderNumber", event.OrderNumber,
	)
	if !ok {
		log.Error("unexpected message type")
		return
	}

	ctx.SetValue(confirmationFromOrderV1(event))
	log.Info("confirmation is stored")
}
