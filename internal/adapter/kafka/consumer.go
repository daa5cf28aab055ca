package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/niksmo/artshop/pkg/retry"
	"github.com/niksmo/artshop/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerOpt func(*consumerOpts) error

// ConsumerClientOpt joins the consumer group. tlsCfg is optional.
func ConsumerClientOpt(
	seedBrokers []string, topic, group string, tlsCfg *tls.Config,
) ConsumerOpt {
	return func(co *consumerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.ConsumeTopics(topic),
			kgo.ConsumerGroup(group),
			kgo.DisableAutoCommit(),
		}
		if tlsCfg != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsCfg))
		}
		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}
		co.cl = cl
		return nil
	}
}

// consumerClientOpt sets a ready client. Used by tests.
func consumerClientOpt(cl ConsumerClient) ConsumerOpt {
	return func(co *consumerOpts) error {
		if cl == nil {
			return errors.New("consumer client is nil")
		}
		co.cl = cl
		return nil
	}
}

func ConsumerDecoderOpt(decoder Decoder) ConsumerOpt {
	return func(co *consumerOpts) error {
		if decoder == nil {
			return errors.New("decoder is nil")
		}
		co.decoder = decoder
		return nil
	}
}

func ConsumerOrderEventsHandlerOpt(h port.OrderEventsHandler) ConsumerOpt {
	return func(co *consumerOpts) error {
		if h == nil {
			return errors.New("order events handler is nil")
		}
		co.handler = h
		return nil
	}
}

type consumerOpts struct {
	cl      ConsumerClient
	decoder Decoder
	handler port.OrderEventsHandler
}

func (co *consumerOpts) apply(opts ...ConsumerOpt) error {
	for _, opt := range opts {
		if err := opt(co); err != nil {
			return err
		}
	}
	if co.cl == nil || co.decoder == nil || co.handler == nil {
		return ErrTooFewOpts
	}
	return nil
}

const maxBackoffShift = 5

type consumerParent interface {
	processFetches(context.Context, kgo.Fetches) error
}

// A consumer is used for composition.
//
// Fetching records from kafka broker, committing them once the parent
// processed them and closing underlying [kgo.Client].
type consumer struct {
	opPrefix  string
	parent    consumerParent
	cl        ConsumerClient
	slowDown  time.Duration
	slowTimer *time.Timer
}

func (c consumer) run(ctx context.Context) {
	const op = "run"
	log := slog.With("op", makeOp(c.opPrefix, op))

	log.Info("running")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				log.Error("failed to consume", "err", err)
				c.wait(ctx)
			}
		}
	}
}

func (c consumer) consume(ctx context.Context) error {
	const op = "consume"

	fetches, err := c.pollFetches(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	if fetches.Empty() {
		return nil
	}

	err = c.process(ctx, fetches)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.commit(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

// process hands the batch to the parent until it succeeds. The client has
// already moved past these records, so giving up early would lose them
// once a later batch is committed.
func (c consumer) process(ctx context.Context, fetches kgo.Fetches) error {
	const op = "process"
	log := slog.With("op", makeOp(c.opPrefix, op))

	cfg := retry.RetryConfig{
		MaxAttempts: math.MaxInt,
		Backoff:     c.backoff,
		ShouldRetry: func(error) bool { return ctx.Err() == nil },
	}
	attempt := 0
	return retry.Do(ctx, cfg, func() error {
		attempt++
		err := c.parent.processFetches(ctx, fetches)
		if err != nil {
			log.Warn("failed to process batch, retrying", "attempt", attempt, "err", err)
		}
		return err
	})
}

func (c consumer) backoff(attempt int) time.Duration {
	return c.slowDown << min(attempt-1, maxBackoffShift)
}

func (c consumer) pollFetches(ctx context.Context) (kgo.Fetches, error) {
	const op = "pollFetches"

	fetches := c.cl.PollFetches(ctx)
	if err := fetches.Err0(); err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	err := c.handleFetchesErrs(fetches)
	if err != nil {
		return nil, opErr(err, c.opPrefix, op)
	}

	return fetches, nil
}

func (c consumer) handleFetchesErrs(fetches kgo.Fetches) error {
	var errsMessages []string
	fetches.EachError(func(t string, p int32, err error) {
		if err != nil {
			errMsg := fmt.Sprintf(
				"topic %q partition %d: %q", t, p, err,
			)
			errsMessages = append(errsMessages, errMsg)
		}
	})

	if len(errsMessages) != 0 {
		return errors.New(strings.Join(errsMessages, "; "))
	}
	return nil
}

func (c consumer) wait(ctx context.Context) {
	c.slowTimer.Reset(c.slowDown)
	select {
	case <-ctx.Done():
		c.slowTimer.Stop()
	case <-c.slowTimer.C:
	}
}

func (c consumer) commit(ctx context.Context) error {
	const op = "commit"

	err := ctx.Err()
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}

	err = c.cl.CommitUncommittedOffsets(ctx)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c consumer) close() {
	const op = "close"
	log := slog.With("op", makeOp(c.opPrefix, op))

	c.slowTimer.Stop()

	log.Info("closing consumer...")
	c.cl.Close()
	log.Info("consumer is closed")
}

// An OrderNotificationsConsumer reads order events and hands them to the
// core service, which tells customers about status changes.
//
// A failed batch is handed to the handler again until it succeeds, and
// offsets are committed only after that. A batch left unhandled at
// shutdown is fetched again by the next session.
type OrderNotificationsConsumer struct {
	opPrefix string
	consumer consumer
	handler  port.OrderEventsHandler
	decoder  Decoder
}

func NewOrderNotificationsConsumer(
	opts ...ConsumerOpt,
) (c OrderNotificationsConsumer, err error) {
	const op = "NewOrderNotificationsConsumer"

	var options consumerOpts
	if err := options.apply(opts...); err != nil {
		return c, opErr(err, op)
	}

	opPrefix := "OrderNotificationsConsumer"

	c.opPrefix = opPrefix
	c.handler = options.handler
	c.decoder = options.decoder

	timer := time.NewTimer(time.Second)
	timer.Stop()

	c.consumer = consumer{
		opPrefix:  opPrefix,
		parent:    c,
		cl:        options.cl,
		slowDown:  time.Second,
		slowTimer: timer,
	}

	return c, nil
}

func (c OrderNotificationsConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c OrderNotificationsConsumer) Close() {
	c.consumer.close()
}

func (c OrderNotificationsConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	values := c.toDomain(fetches)
	if len(values) == 0 {
		return nil
	}

	err := c.handler.HandleOrderEvents(ctx, values)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

func (c OrderNotificationsConsumer) toDomain(
	fetches kgo.Fetches,
) (vs []domain.OrderEvent) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"failed to decode value",
				"err", opErr(err, c.opPrefix, op),
				"offset", r.Offset,
			)
			return
		}
		vs = append(vs, v)
	})
	return vs
}

func (c OrderNotificationsConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.OrderEvent, error) {
	var s schema.OrderEventV1
	err := c.decoder.Decode(r.Value, &s)
	if err != nil {
		return domain.OrderEvent{}, err
	}
	return schemaV1ToOrderEvent(s)
}
