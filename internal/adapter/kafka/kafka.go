package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects to the brokers and pings them.
// A nil tlsConfig means plaintext.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// ApplyTLS makes every goka processor and view created afterwards
// dial the brokers over TLS.
func ApplyTLS(tlsConfig *tls.Config) {
	if tlsConfig == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func lineItemsToSchemaV1(items []domain.LineItem) []schema.OrderItemV1 {
	s := make([]schema.OrderItemV1, len(items))
	for i, li := range items {
		s[i] = schema.OrderItemV1{
			ProductID: li.Product.ID,
			Name:      li.Product.Name,
			Price:     li.Product.Price,
			Discount:  li.Product.Discount,
			Quantity:  li.Quantity,
			Grind:     string(li.Options.Grind),
			Size:      string(li.Options.Size),
		}
	}
	return s
}

func lineItemsFromSchemaV1(s []schema.OrderItemV1) []domain.LineItem {
	items := make([]domain.LineItem, len(s))
	for i, v := range s {
		items[i] = domain.LineItem{
			Product: domain.Product{
				ID:       v.ProductID,
				Name:     v.Name,
				Price:    v.Price,
				Discount: v.Discount,
			},
			Quantity: v.Quantity,
			Options: domain.LineOptions{
				Grind: domain.Grind(v.Grind),
				Size:  domain.Size(v.Size),
			},
		}
	}
	return items
}

func orderToSchemaV1(v domain.Order) (s schema.OrderPlacedV1) {
	s.OrderNumber = v.Number
	s.SessionID = v.SessionID
	s.Customer = schema.CustomerV1{
		Name:  v.Customer.Name,
		Email: v.Customer.Email,
		Phone: v.Customer.Phone,
		Address: schema.AddressV1{
			Street:     v.Customer.Address.Street,
			City:       v.Customer.Address.City,
			Department: v.Customer.Address.Department,
			ZipCode:    v.Customer.Address.ZipCode,
			Country:    v.Customer.Address.Country,
		},
	}
	s.Items = lineItemsToSchemaV1(v.Items)
	s.Subtotal = v.Totals.Subtotal
	s.Tax = v.Totals.Tax
	s.Shipping = v.Totals.Shipping
	s.Total = v.Totals.Total
	s.Status = string(v.Status)
	s.PaymentMethod = string(v.PaymentMethod)
	s.PlacedAt = v.PlacedAt
	return
}

func leadToSchemaV1(v domain.Lead) (s schema.LeadCapturedV1) {
	s.Key = v.Key
	s.Name = v.Name
	s.Email = v.Email
	s.Address = v.Address
	s.Category = string(v.Category)
	s.FlavorProfile = v.FlavorProfile
	s.Grind = string(v.Grind)
	s.Quantity = v.Quantity
	s.Frequency = v.Frequency
	s.Notes = v.Notes
	s.CapturedAt = v.CapturedAt
	return
}

func confirmationFromOrderV1(v schema.OrderPlacedV1) schema.ConfirmationV1 {
	return schema.ConfirmationV1{
		OrderNumber:   v.OrderNumber,
		SessionID:     v.SessionID,
		Total:         v.Total,
		Items:         v.Items,
		PaymentMethod: v.PaymentMethod,
		PaidAt:        v.PlacedAt,
	}
}

func confirmationFromSchemaV1(s schema.ConfirmationV1) domain.Confirmation {
	return domain.Confirmation{
		OrderNumber:   s.OrderNumber,
		SessionID:     s.SessionID,
		Total:         s.Total,
		Items:         lineItemsFromSchemaV1(s.Items),
		PaymentMethod: domain.PaymentMethod(s.PaymentMethod),
		PaidAt:        s.PaidAt,
	}
}
