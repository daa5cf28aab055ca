// Package sigctx ties process lifetime to termination signals.
package sigctx

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// NotifyContext is canceled on SIGINT, SIGTERM or SIGQUIT.
func NotifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
}

// ShutdownContext bounds the cleanup that runs after the signal context
// is done. It does not derive from that context, which is already canceled.
func ShutdownContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
