package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
)

const (
	defaultRelayInterval = time.Second
	defaultRelayBatch    = 100
)

// An OutboxRelay publishes committed order events to the broker in
// commit order. A batch is marked published only after the broker
// acknowledged it, so delivery is at least once.
type OutboxRelay struct {
	outbox   port.OutboxStorage
	producer port.OrderEventsProducer
	interval time.Duration
	batch    int
}

func NewOutboxRelay(
	outbox port.OutboxStorage, producer port.OrderEventsProducer,
	interval time.Duration, batch int,
) *OutboxRelay {
	if interval <= 0 {
		interval = defaultRelayInterval
	}
	if batch <= 0 {
		batch = defaultRelayBatch
	}
	return &OutboxRelay{
		outbox:   outbox,
		producer: producer,
		interval: interval,
		batch:    batch,
	}
}

func (r *OutboxRelay) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	runEvery(ctx, wg, "OutboxRelay.Run", r.interval, func(ctx context.Context) error {
		_, err := r.RelayOnce(ctx)
		return err
	})
}

// RelayOnce publishes one batch and reports how many events went out.
func (r *OutboxRelay) RelayOnce(ctx context.Context) (int, error) {
	const op = "OutboxRelay.RelayOnce"
	log := slog.With("op", op)

	events, err := r.outbox.ReadUnpublished(ctx, r.batch)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	orderEvents := make([]domain.OrderEvent, 0, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
		oe, err := decodeOrderEvent(e)
		if err != nil {
			// A malformed row would block the outbox forever.
			log.Error("skip malformed event", "eventID", e.ID, "err", err)
			continue
		}
		orderEvents = append(orderEvents, oe)
	}

	if len(orderEvents) != 0 {
		if err := r.producer.ProduceOrderEvents(ctx, orderEvents); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("events relayed", "count", len(orderEvents))
	return len(orderEvents), nil
}
