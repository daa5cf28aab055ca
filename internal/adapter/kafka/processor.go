package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/niksmo/artshop/pkg/schema"
)

var _ port.ProductSalesProcessor = (*ProductSalesProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// An orderEventCodec used for serde [schema.OrderEventV1]
type orderEventCodec struct {
	serde Serde
}

func newOrderEventCodec(s Serde) orderEventCodec {
	return orderEventCodec{s}
}

func (c orderEventCodec) Encode(v any) ([]byte, error) {
	const op = "orderEventCodec.Encode"
	if _, ok := v.(schema.OrderEventV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c orderEventCodec) Decode(data []byte) (any, error) {
	const op = "orderEventCodec.Decode"
	var s schema.OrderEventV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A ProductSalesProcessor counts paid units per product.
//
// Paid order events from the input stream are split into per product
// sales and looped back keyed by product id, then summed into the group
// table read by [ProductSalesView].
type ProductSalesProcessor struct {
	opPrefix string
	proc     processor
}

func NewProductSalesProc(
	seedBrokers []string,
	orderEventsTopic string,
	group string,
	orderEventSerde Serde,
) (*ProductSalesProcessor, error) {
	const op = "NewProductSalesProc"

	p := ProductSalesProcessor{opPrefix: "ProductSalesProcessor"}

	gg := p.groupGraph(orderEventsTopic, group, orderEventSerde)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}

	return &p, nil
}

func (p *ProductSalesProcessor) groupGraph(
	orderEventsTopic, group string, orderEventSerde Serde,
) *goka.GroupGraph {
	return goka.DefineGroup(goka.Group(group),
		goka.Input(
			goka.Stream(orderEventsTopic),
			newOrderEventCodec(orderEventSerde),
			p.onOrderEvent,
		),
		goka.Loop(new(codec.Int64), p.onSale),
		goka.Persist(new(codec.Int64)),
	)
}

func (p *ProductSalesProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ProductSalesProcessor) Close() {
	p.proc.close()
}

func (p *ProductSalesProcessor) onOrderEvent(ctx goka.Context, msg any) {
	const op = "onOrderEvent"

	event, _ := msg.(schema.OrderEventV1)
	sales := salesFromEvent(event)
	if len(sales) == 0 {
		return
	}

	for _, s := range sales {
		ctx.Loopback(s.ProductID, int64(s.Qty))
	}
	slog.Debug(
		"order sales looped back",
		"op", makeOp(p.opPrefix, op),
		"orderID", event.OrderID,
		"products", len(sales),
	)
}

func (p *ProductSalesProcessor) onSale(ctx goka.Context, msg any) {
	qty, _ := msg.(int64)
	ctx.SetValue(addSold(ctx.Value(), qty))
}

// salesFromEvent returns the sold lines of a paid order event and nil
// for every other event.
func salesFromEvent(s schema.OrderEventV1) []domain.ProductSale {
	if !isSale(s) {
		return nil
	}
	sales := make([]domain.ProductSale, 0, len(s.Products))
	for _, l := range s.Products {
		if l.ProductID == "" || l.Qty <= 0 {
			continue
		}
		sales = append(sales, domain.ProductSale{
			ProductID: l.ProductID, Qty: l.Qty,
		})
	}
	return sales
}

func addSold(current any, qty int64) int64 {
	total, _ := current.(int64)
	return total + qty
}
