package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// runEvery calls fn on every tick until ctx is done. wg is released once
// the loop is started.
func runEvery(
	ctx context.Context, wg *sync.WaitGroup, op string,
	interval time.Duration, fn func(context.Context) error,
) {
	log := slog.With("op", op)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	wg.Done()
	log.Info("running", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			log.Info("stopped")
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				log.Error("tick failed", "err", err)
			}
		}
	}
}
