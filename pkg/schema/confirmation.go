package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

// ConfirmationSchemaTextV1 describes the values of the confirmations
// group table. It is never registered, the table is private to the
// confirmation processor and its views.
const ConfirmationSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.confirmations",
	"name": "Confirmation",
	"fields": [
		{"name": "order_number", "type": "string"},
		{"name": "session_id", "type": "string", "default": ""},
		{"name": "total", "type": "double"},
		{"name": "items", "type": {"type": "array", "items": {
			"type": "record",
			"name": "ConfirmationItem",
			"fields": [
				{"name": "product_id", "type": "string"},
				{"name": "name", "type": "string"},
				{"name": "price", "type": "double"},
				{"name": "discount", "type": "double"},
				{"name": "quantity", "type": "int"},
				{"name": "grind", "type": "string"},
				{"name": "size", "type": "string"}
			]
		}}},
		{"name": "payment_method", "type": "string"},
		{"name": "paid_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type ConfirmationV1 struct {
	OrderNumber   string        `avro:"order_number"`
	SessionID     string        `avro:"session_id"`
	Total         float64       `avro:"total"`
	Items         []OrderItemV1 `avro:"items"`
	PaymentMethod string        `avro:"payment_method"`
	PaidAt        time.Time     `avro:"paid_at"`
}

func ConfirmationV1Avro() avro.Schema {
	return avro.MustParse(ConfirmationSchemaTextV1)
}
