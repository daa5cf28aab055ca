package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/lovoo/goka/codec"
	"github.com/niksmo/artshop/internal/core/port"
)

var ErrViewNotReady = errors.New("view is not recovered yet")

var _ port.ProductSalesReader = (*ProductSalesView)(nil)

// tableGetter is the read side of [goka.View].
type tableGetter interface {
	Get(key string) (any, error)
	Recovered() bool
}

// A ProductSalesView serves sold counts from the table of the
// [ProductSalesProcessor] group.
type ProductSalesView struct {
	gv    *goka.View
	table tableGetter
}

func NewProductSalesView(
	seedBrokers []string, group string,
) (*ProductSalesView, error) {
	const op = "NewProductSalesView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(group)),
		new(codec.Int64),
		withNonlogViewOpt(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &ProductSalesView{gv: gv, table: gv}, nil
}

// Run starts the view in the background and stops the app when the view
// fails.
func (v *ProductSalesView) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "ProductSalesView.Run"
	log := slog.With("op", op)

	defer wg.Done()

	go func() {
		defer stopFn()
		err := v.gv.Run(ctx)
		if err != nil {
			log.Error("unexpected fail on run", "err", err)
			return
		}
		log.Info("stopped")
	}()
	log.Info("running")
}

func (v *ProductSalesView) SoldCount(productID string) (int64, error) {
	const op = "ProductSalesView.SoldCount"

	if !v.table.Recovered() {
		return 0, opErr(ErrViewNotReady, op)
	}

	value, err := v.table.Get(productID)
	if err != nil {
		return 0, opErr(err, op)
	}

	if value == nil {
		return 0, nil
	}

	n, ok := value.(int64)
	if !ok {
		return 0, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value), op,
		)
	}
	return n, nil
}
