package main

import (
	"time"

	"github.com/niksmo/artshop/config"
	"github.com/niksmo/artshop/internal/app"
	"github.com/niksmo/artshop/pkg/sigctx"
)

const closeTimeout = 10 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	shop := app.New(sigCtx, cfg)

	shop.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := sigctx.ShutdownContext(closeTimeout)
	defer cancel()

	shop.Close(ctx)
}
