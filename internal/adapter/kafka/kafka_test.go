package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/tester"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

type MockProducerClient struct {
	mock.Mock
}

func (c *MockProducerClient) ProduceSync(
	ctx context.Context, rs ...*kgo.Record,
) kgo.ProduceResults {
	args := c.Called(ctx, rs)
	return args.Get(0).(kgo.ProduceResults)
}

func (c *MockProducerClient) Close() {
	c.Called()
}

type MockEncoder struct {
	mock.Mock
}

func (e *MockEncoder) Encode(v any) ([]byte, error) {
	args := e.Called(v)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

// avroSerde encodes without the registry header.
type avroSerde struct {
	encode func(any) ([]byte, error)
	decode func([]byte, any) error
}

func newAvroSerde() avroSerde {
	s := schema.OrderPlacedV1Avro()
	return avroSerde{schema.AvroEncodeFn(s), schema.AvroDecodeFn(s)}
}

func (s avroSerde) Encode(v any) ([]byte, error)    { return s.encode(v) }
func (s avroSerde) Decode(data []byte, v any) error { return s.decode(data, v) }

func producerClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		opts.cl = cl
		return nil
	}
}

func results(err error) kgo.ProduceResults {
	return kgo.ProduceResults{{Record: &kgo.Record{}, Err: err}}
}

func testOrder() domain.Order {
	return domain.Order{
		Number:    "MCD-1735689600123",
		SessionID: "6f1c2a3e-9b1d-4c61-8f3a-2f5d7e9a1b20",
		Customer: domain.Customer{
			Name:  "Ana",
			Email: "ana@example.com",
		},
		Items: []domain.LineItem{{
			Product:  domain.Product{ID: "1", Name: "Soluble", Price: 85, Discount: 15},
			Quantity: 2,
			Options:  domain.LineOptions{Grind: domain.GrindWhole},
		}},
		Totals:        domain.Totals{Subtotal: 144.5, Tax: 17.34, Shipping: 35, Total: 196.84},
		Status:        domain.OrderProcessing,
		PaymentMethod: domain.PaymentCard,
		PlacedAt:      time.UnixMilli(1735689600123).UTC(),
	}
}

func TestNewOrdersProducer(t *testing.T) {
	t.Run("TooFewOpts", func(t *testing.T) {
		assert.Panics(t, func() {
			_, _ = NewOrdersProducer(ProducerEncoderOpt(new(MockEncoder)))
		})
	})

	t.Run("NilEncoder", func(t *testing.T) {
		_, err := NewOrdersProducer(
			producerClientOpt(new(MockProducerClient)),
			ProducerEncoderOpt(nil),
		)
		assert.Error(t, err)
	})
}

func TestOrdersProducerProduceOrder(t *testing.T) {
	order := testOrder()
	payload := []byte("payload")

	newProducer := func(t *testing.T) (OrdersProducer, *MockProducerClient) {
		cl := new(MockProducerClient)
		enc := new(MockEncoder)
		enc.On("Encode", orderToSchemaV1(order)).Return(payload, nil)

		p, err := NewOrdersProducer(
			producerClientOpt(cl), ProducerEncoderOpt(enc),
		)
		require.NoError(t, err)
		return p, cl
	}

	t.Run("KeyedByOrderNumber", func(t *testing.T) {
		p, cl := newProducer(t)
		cl.On("ProduceSync", mock.Anything, mock.MatchedBy(
			func(rs []*kgo.Record) bool {
				return len(rs) == 1 &&
					string(rs[0].Key) == order.Number &&
					string(rs[0].Value) == string(payload)
			},
		)).Return(results(nil)).Once()

		require.NoError(t, p.ProduceOrder(t.Context(), order))
		cl.AssertExpectations(t)
	})

	t.Run("RetriesRetriableError", func(t *testing.T) {
		p, cl := newProducer(t)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(results(kerr.NotLeaderForPartition)).Once()
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(results(nil)).Once()

		require.NoError(t, p.ProduceOrder(t.Context(), order))
		cl.AssertNumberOfCalls(t, "ProduceSync", 2)
	})

	t.Run("PermanentError", func(t *testing.T) {
		p, cl := newProducer(t)
		cl.On("ProduceSync", mock.Anything, mock.Anything).
			Return(results(kerr.MessageTooLarge)).Once()

		err := p.ProduceOrder(t.Context(), order)
		assert.ErrorIs(t, err, kerr.MessageTooLarge)
		cl.AssertNumberOfCalls(t, "ProduceSync", 1)
	})

	t.Run("CanceledContext", func(t *testing.T) {
		p, cl := newProducer(t)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err := p.ProduceOrder(ctx, order)
		assert.ErrorIs(t, err, context.Canceled)
		cl.AssertNotCalled(t, "ProduceSync", mock.Anything, mock.Anything)
	})

	t.Run("Close", func(t *testing.T) {
		p, cl := newProducer(t)
		cl.On("Close").Return().Once()
		p.Close()
		cl.AssertExpectations(t)
	})
}

func TestLeadsProducerProduceLead(t *testing.T) {
	lead := domain.Lead{
		Key:      "sid-1",
		Name:     "Luis",
		Email:    "luis@example.com",
		Category: "grano",
	}

	cl := new(MockProducerClient)
	enc := new(MockEncoder)
	enc.On("Encode", leadToSchemaV1(lead)).Return([]byte("lead"), nil)
	cl.On("ProduceSync", mock.Anything, mock.MatchedBy(
		func(rs []*kgo.Record) bool {
			return string(rs[0].Key) == lead.Key
		},
	)).Return(results(nil)).Once()

	p, err := NewLeadsProducer(producerClientOpt(cl), ProducerEncoderOpt(enc))
	require.NoError(t, err)

	require.NoError(t, p.ProduceLead(t.Context(), lead))

	encodeErr := errors.New("encode failed")
	enc2 := new(MockEncoder)
	enc2.On("Encode", mock.Anything).Return(nil, encodeErr)
	p2, err := NewLeadsProducer(producerClientOpt(cl), ProducerEncoderOpt(enc2))
	require.NoError(t, err)

	assert.ErrorIs(t, p2.ProduceLead(t.Context(), lead), encodeErr)
	cl.AssertNumberOfCalls(t, "ProduceSync", 1)
}

func TestConfirmationProcessor(t *testing.T) {
	const (
		ordersStream = "orders"
		group        = "confirmations"
	)

	tt := tester.New(t)
	p, err := NewConfirmationProcessor(
		nil, ordersStream, group, newAvroSerde(), goka.WithTester(tt),
	)
	require.NoError(t, err)

	go func() { _ = p.proc.gp.Run(t.Context()) }()

	order := testOrder()
	tt.Consume(ordersStream, order.Number, orderToSchemaV1(order))

	value := tt.TableValue(goka.GroupTable(goka.Group(group)), order.Number)
	c, ok := value.(schema.ConfirmationV1)
	require.True(t, ok)

	got := confirmationFromSchemaV1(c)
	assert.Equal(t, order.Number, got.OrderNumber)
	assert.Equal(t, order.SessionID, got.SessionID)
	assert.InDelta(t, 196.84, got.Total, 1e-9)
	assert.Equal(t, domain.PaymentCard, got.PaymentMethod)
	require.Len(t, got.Items, 1)
	assert.Equal(t, order.Items[0], got.Items[0])
	assert.True(t, order.PlacedAt.Equal(got.PaidAt))
}

type fakeTable map[string]any

func (t fakeTable) Get(key string) (any, error) {
	return t[key], nil
}

func TestConfirmationViewReadConfirmation(t *testing.T) {
	local := storage.NewMemoryStorage()
	order := testOrder()

	table := fakeTable{
		order.Number: confirmationFromOrderV1(orderToSchemaV1(order)),
		"MCD-bad":    "not a confirmation",
	}
	v := &ConfirmationView{table: table, local: local}

	t.Run("FromTable", func(t *testing.T) {
		got, err := v.ReadConfirmation(t.Context(), order.Number)
		require.NoError(t, err)
		assert.Equal(t, order.Number, got.OrderNumber)
		assert.Equal(t, order.SessionID, got.SessionID)
		assert.False(t, got.Placeholder)
	})

	t.Run("LocalFirst", func(t *testing.T) {
		c := domain.Confirmation{OrderNumber: "MCD-2", Total: 10}
		require.NoError(t, v.StoreConfirmation(t.Context(), c))

		got, err := v.ReadConfirmation(t.Context(), "MCD-2")
		require.NoError(t, err)
		assert.Equal(t, c, got)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := v.ReadConfirmation(t.Context(), "MCD-404")
		assert.ErrorIs(t, err, port.ErrNotFound)
	})

	t.Run("InvalidValue", func(t *testing.T) {
		_, err := v.ReadConfirmation(t.Context(), "MCD-bad")
		assert.ErrorIs(t, err, ErrInvalidValueType)
	})
}
