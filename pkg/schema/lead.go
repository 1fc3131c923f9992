package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

const LeadCapturedSchemaTextV1 = `{
	"type": "record",
	"namespace": "storefront.leads",
	"name": "LeadCaptured",
	"fields": [
		{"name": "key", "type": "string"},
		{"name": "name", "type": "string"},
		{"name": "email", "type": "string"},
		{"name": "address", "type": "string"},
		{"name": "category", "type": "string"},
		{"name": "flavor_profile", "type": {"type": "array", "items": "string"}},
		{"name": "grind", "type": "string"},
		{"name": "quantity", "type": "string"},
		{"name": "frequency", "type": "string"},
		{"name": "notes", "type": "string"},
		{"name": "captured_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type LeadCapturedV1 struct {
	Key           string    `avro:"key"`
	Name          string    `avro:"name"`
	Email         string    `avro:"email"`
	Address       string    `avro:"address"`
	Category      string    `avro:"category"`
	FlavorProfile []string  `avro:"flavor_profile"`
	Grind         string    `avro:"grind"`
	Quantity      string    `avro:"quantity"`
	Frequency     string    `avro:"frequency"`
	Notes         string    `avro:"notes"`
	CapturedAt    time.Time `avro:"captured_at"`
}

func LeadCapturedV1Avro() avro.Schema {
	return avro.MustParse(LeadCapturedSchemaTextV1)
}
