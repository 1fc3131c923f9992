package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/retry"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	_ port.OrdersProducer = (*OrdersProducer)(nil)
	_ port.LeadsProducer  = (*LeadsProducer)(nil)
)

const (
	produceAttempts = 3
	produceDelay    = 50 * time.Millisecond
)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
	encoder  Encoder
}

func newProducer(opPrefix string, opts []ProducerOpt) (producer, error) {
	const op = "newProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, opPrefix, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return producer{}, err
		}
	}

	return producer{
		opPrefix: opPrefix,
		cl:       options.cl,
		encoder:  options.encoder,
	}, nil
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

// produce sends the record, retrying while the broker answers
// with a retriable error.
func (p producer) produce(ctx context.Context, key string, v any) error {
	const op = "produce"

	b, err := p.encoder.Encode(v)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	cfg := retry.RetryConfig{
		MaxAttempts: produceAttempts,
		Backoff:     retry.ExponentialBackoff(produceDelay),
		ShouldRetry: kerr.IsRetriable,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			slog.Warn("retrying produce",
				"op", p.opPrefix+"."+op, "key", key,
				"attempt", attempt, "wait", wait, "err", err,
			)
		},
	}
	err = retry.Do(ctx, cfg, func() error {
		r := &kgo.Record{Key: []byte(key), Value: b}
		return p.cl.ProduceSync(ctx, r).FirstErr()
	})
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// An OrdersProducer publishes placed orders keyed by order number.
type OrdersProducer struct {
	producer producer
	opPrefix string
}

func NewOrdersProducer(opts ...ProducerOpt) (OrdersProducer, error) {
	const op = "NewOrdersProducer"

	opPrefix := "OrdersProducer"
	p, err := newProducer(opPrefix, opts)
	if err != nil {
		return OrdersProducer{}, opErr(err, op)
	}
	return OrdersProducer{producer: p, opPrefix: opPrefix}, nil
}

func (p OrdersProducer) Close() {
	p.producer.close()
}

func (p OrdersProducer) ProduceOrder(ctx context.Context, o domain.Order) error {
	const op = "ProduceOrder"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := orderToSchemaV1(o)
	if err := p.producer.produce(ctx, s.OrderNumber, s); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// A LeadsProducer publishes captured leads keyed by session.
type LeadsProducer struct {
	producer producer
	opPrefix string
}

func NewLeadsProducer(opts ...ProducerOpt) (LeadsProducer, error) {
	const op = "NewLeadsProducer"

	opPrefix := "LeadsProducer"
	p, err := newProducer(opPrefix, opts)
	if err != nil {
		return LeadsProducer{}, opErr(err, op)
	}
	return LeadsProducer{producer: p, opPrefix: opPrefix}, nil
}

func (p LeadsProducer) Close() {
	p.producer.close()
}

func (p LeadsProducer) ProduceLead(ctx context.Context, l domain.Lead) error {
	const op = "ProduceLead"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	s := leadToSchemaV1(l)
	if err := p.producer.produce(ctx, s.Key, s); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}
