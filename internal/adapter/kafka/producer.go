package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.OrderEventsProducer = OrderEventsProducer{}

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

// An OrderEventsProducer publishes [domain.OrderEvent] keyed by order id,
// so the events of one order stay in one partition.
type OrderEventsProducer struct {
	producer producer
	encoder  Encoder
	opPrefix string
}

func NewOrderEventsProducer(
	opts ...ProducerOpt,
) (OrderEventsProducer, error) {
	const op = "NewOrderEventsProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return OrderEventsProducer{}, opErr(err, op)
		}
	}

	opPrefix := "OrderEventsProducer"
	p := producer{
		opPrefix: opPrefix,
		cl:       options.cl,
	}

	return OrderEventsProducer{
		encoder:  options.encoder,
		producer: p,
		opPrefix: opPrefix,
	}, nil
}

func (p OrderEventsProducer) Close() {
	p.producer.close()
}

func (p OrderEventsProducer) ProduceOrderEvents(
	ctx context.Context, vs []domain.OrderEvent,
) error {
	const op = "ProduceOrderEvents"

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if len(vs) == 0 {
		return nil
	}

	rs, err := p.createRecords(vs)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	if err := p.producer.produce(ctx, rs...); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	return nil
}

// EventTypeHeader lets consumers skip events without decoding them.
const EventTypeHeader = "event-type"

func (p OrderEventsProducer) createRecords(
	vs []domain.OrderEvent,
) (rs []*kgo.Record, err error) {
	const op = "createRecords"

	rs = make([]*kgo.Record, 0, len(vs))
	for _, v := range vs {
		s := orderEventToSchemaV1(v)
		b, err := p.encoder.Encode(s)
		if err != nil {
			return nil, opErr(fmt.Errorf("order %s: %w", v.OrderID, err), p.opPrefix, op)
		}
		rs = append(rs, &kgo.Record{
			Key:       []byte(s.OrderID),
			Value:     b,
			Timestamp: s.OccurredAt,
			Headers: []kgo.RecordHeader{
				{Key: EventTypeHeader, Value: []byte(s.EventType)},
			},
		})
	}

	return rs, nil
}
