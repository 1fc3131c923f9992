package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var ErrTooFewOpts = errors.New("too few options")

// Serde frames avro payloads with the schema registry wire header.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// An event is a registered record: its schema text and the Go value
// encoded with it.
type event struct {
	name    string
	text    string
	example any
}

var events = struct {
	orderPlacedV1  event
	leadCapturedV1 event
}{
	orderPlacedV1: event{
		name:    "OrderPlacedV1",
		text:    OrderPlacedSchemaTextV1,
		example: OrderPlacedV1{},
	},
	leadCapturedV1: event{
		name:    "LeadCapturedV1",
		text:    LeadCapturedSchemaTextV1,
		example: LeadCapturedV1{},
	},
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(si SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if si == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = si
		return nil
	}
}

func NewSerdeOrderPlacedV1(ctx context.Context, opts ...Opt) (Serde, error) {
	return newSerde(ctx, events.orderPlacedV1, opts)
}

func NewSerdeLeadCapturedV1(ctx context.Context, opts ...Opt) (Serde, error) {
	return newSerde(ctx, events.leadCapturedV1, opts)
}

// newSerde registers e under the subject given by opts and binds the
// returned ID to e's avro codec. Both options are required.
func newSerde(ctx context.Context, e event, opts []Opt) (Serde, error) {
	op := "NewSerde" + e.name

	if len(opts) != 2 {
		return nil, fmt.Errorf("%s: %w", op, ErrTooFewOpts)
	}

	var so serdeOpts
	for _, o := range opts {
		if err := o(&so); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	avroSchema, err := avro.Parse(e.text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := so.si.DetermineID(ctx, so.subject, e.text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var s sr.Serde
	s.Register(
		id,
		e.example,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)
	return &s, nil
}
