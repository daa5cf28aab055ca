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
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/pkg/schema"
	"github.com/shopspring/decimal"
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

// ProducerClientOpt dials the brokers and pings them. tlsCfg is optional.
func ProducerClientOpt(
	ctx context.Context, seedBrokers []string, topic string, tlsCfg *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
			kgo.AllowAutoTopicCreation(),
		}
		if tlsCfg != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsCfg))
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

// producerClientOpt sets a ready client. Used by tests.
func producerClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("producer client is nil")
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

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
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

// ApplyTLS makes goka processors and views created afterwards dial the
// brokers over TLS.
func ApplyTLS(tlsCfg *tls.Config) {
	if tlsCfg == nil {
		return
	}
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsCfg
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func withNonlogViewOpt() goka.ViewOption {
	return goka.WithViewLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func orderEventToSchemaV1(v domain.OrderEvent) (s schema.OrderEventV1) {
	s.EventType = v.EventType
	s.OrderID = v.OrderID
	s.UserID = v.UserID
	s.Status = v.Status.String()
	s.Total = v.Total.StringFixed(2)
	s.OccurredAt = v.OccurredAt.UTC()

	s.Products = make([]schema.OrderLineV1, len(v.Products))
	for i, l := range v.Products {
		s.Products[i] = schema.OrderLineV1{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.StringFixed(2),
			Qty:       l.Qty,
		}
	}
	return
}

func schemaV1ToOrderEvent(s schema.OrderEventV1) (domain.OrderEvent, error) {
	status, err := domain.ParseOrderStatus(s.Status)
	if err != nil {
		return domain.OrderEvent{}, err
	}
	total, err := decimal.NewFromString(s.Total)
	if err != nil {
		return domain.OrderEvent{}, err
	}

	v := domain.OrderEvent{
		EventType:  s.EventType,
		OrderID:    s.OrderID,
		UserID:     s.UserID,
		Status:     status,
		Total:      total,
		OccurredAt: s.OccurredAt,
		Products:   make([]domain.OrderLine, len(s.Products)),
	}
	for i, l := range s.Products {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return domain.OrderEvent{}, err
		}
		v.Products[i] = domain.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     price,
			Qty:       l.Qty,
		}
	}
	return v, nil
}

// isSale reports whether the event records an order becoming paid.
func isSale(s schema.OrderEventV1) bool {
	return s.EventType == domain.EventOrderStatusChanged &&
		s.Status == domain.OrderPaid.String()
}
