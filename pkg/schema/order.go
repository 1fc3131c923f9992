package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const OrderPlacedSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.orders",
	"name": "OrderPlaced",
	"fields": [
		{"name": "order_number", "type": "string"},
		{"name": "session_id", "type": "string", "default": ""},
		{"name": "customer", "type": {
			"type": "record",
			"name": "Customer",
			"fields": [
				{"name": "name", "type": "string"},
				{"name": "email", "type": "string"},
				{"name": "phone", "type": "string"},
				{"name": "address", "type": {
					"type": "record",
					"name": "Address",
					"fields": [
						{"name": "street", "type": "string"},
						{"name": "city", "type": "string"},
						{"name": "department", "type": "string"},
						{"name": "zip_code", "type": "string"},
						{"name": "country", "type": "string"}
					]
				}}
			]
		}},
		{"name": "items", "type": {"type": "array", "items": {
			"type": "record",
			"name": "OrderItem",
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
		{"name": "subtotal", "type": "double"},
		{"name": "tax", "type": "double"},
		{"name": "shipping", "type": "double"},
		{"name": "total", "type": "double"},
		{"name": "status", "type": "string"},
		{"name": "payment_method", "type": "string"},
		{"name": "placed_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	OrderPlacedV1 struct {
		OrderNumber   string        `avro:"order_number"`
		SessionID     string        `avro:"session_id"`
		Customer      CustomerV1    `avro:"customer"`
		Items         []OrderItemV1 `avro:"items"`
		Subtotal      float64       `avro:"subtotal"`
		Tax           float64       `avro:"tax"`
		Shipping      float64       `avro:"shipping"`
		Total         float64       `avro:"total"`
		Status        string        `avro:"status"`
		PaymentMethod string        `avro:"payment_method"`
		PlacedAt      time.Time     `avro:"placed_at"`
	}

	CustomerV1 struct {
		Name    string    `avro:"name"`
		Email   string    `avro:"email"`
		Phone   string    `avro:"phone"`
		Address AddressV1 `avro:"address"`
	}

	AddressV1 struct {
		Street     string `avro:"street"`
		City       string `avro:"city"`
		Department string `avro:"department"`
		ZipCode    string `avro:"zip_code"`
		Country    string `avro:"country"`
	}

	OrderItemV1 struct {
		ProductID string  `avro:"product_id"`
		Name      string  `avro:"name"`
		Price     float64 `avro:"price"`
		Discount  float64 `avro:"discount"`
		Quantity  int     `avro:"quantity"`
		Grind     string  `avro:"grind"`
		Size      string  `avro:"size"`
	}
)

func OrderPlacedV1Avro() avro.Schema {
	return avro.MustParse(OrderPlacedSchemaTextV1)
}
