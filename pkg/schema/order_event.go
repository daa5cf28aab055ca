package schema

import "time"

const OrderEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "artshop.orders",
	"name": "order_event",
	"fields": [
		{"name": "event_type", "type": "string"},
		{"name": "order_id", "type": "string"},
		{"name": "user_id", "type": "string"},
		{"name": "status", "type": "string"},
		{"name": "total", "type": "string"},
		{"name": "products", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "order_line",
				"fields": [
					{"name": "product_id", "type": "string"},
					{"name": "name", "type": "string"},
					{"name": "price", "type": "string"},
					{"name": "qty", "type": "int"}
				]
			}
		}},
		{"name": "occurred_at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type (
	// Money fields carry the decimal string so consumers never see a
	// rounded float.
	OrderEventV1 struct {
		EventType  string        `avro:"event_type"`
		OrderID    string        `avro:"order_id"`
		UserID     string        `avro:"user_id"`
		Status     string        `avro:"status"`
		Total      string        `avro:"total"`
		Products   []OrderLineV1 `avro:"products"`
		OccurredAt time.Time     `avro:"occurred_at"`
	}

	OrderLineV1 struct {
		ProductID string `avro:"product_id"`
		Name      string `avro:"name"`
		Price     string `avro:"price"`
		Qty       int    `avro:"qty"`
	}
)
