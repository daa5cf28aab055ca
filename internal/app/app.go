package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/niksmo/artshop/config"
	"github.com/niksmo/artshop/internal/adapter"
	"github.com/niksmo/artshop/internal/adapter/cache"
	"github.com/niksmo/artshop/internal/adapter/httphandler"
	"github.com/niksmo/artshop/internal/adapter/kafka"
	"github.com/niksmo/artshop/internal/adapter/notify"
	"github.com/niksmo/artshop/internal/adapter/payment"
	"github.com/niksmo/artshop/internal/adapter/storage"
	"github.com/niksmo/artshop/internal/core/port"
	"github.com/niksmo/artshop/internal/core/service"
	"github.com/niksmo/artshop/pkg/schema"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

const mockProcessorPath = "/mock-processor"

type repositories struct {
	products storage.ProductsRepository
	carts    storage.CartsRepository
	orders   storage.OrdersRepository
	users    storage.UsersRepository
	reviews  storage.ReviewsRepository
}

// broker holds the kafka side. It is empty when the broker is disabled.
type broker struct {
	tlsCfg        *tls.Config
	serde         schema.Serde
	producer      *kafka.OrderEventsProducer
	salesProc     *kafka.ProductSalesProcessor
	salesView     *kafka.ProductSalesView
	notifications *kafka.OrderNotificationsConsumer
}

type workers struct {
	relay      *service.OutboxRelay
	reconciler *service.Reconciler
}

type App struct {
	ctx context.Context
	cfg config.Config

	pool      storage.Pool
	repos     repositories
	redis     *redis.Client
	publisher *notify.Publisher
	mockProc  *payment.Mock
	processor port.PaymentProcessor
	broker    broker
	service   *service.Service
	workers   workers

	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initCache()
	app.initNotifier()
	app.initPayment()
	if cfg.Broker.Enabled {
		app.initBroker()
	}
	app.initCoreService()
	app.initWorkers()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	pool, err := storage.NewPool(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.pool = pool
	app.repos = repositories{
		products: storage.NewProductsRepository(pool),
		carts:    storage.NewCartsRepository(pool),
		orders:   storage.NewOrdersRepository(pool),
		users:    storage.NewUsersRepository(pool),
		reviews:  storage.NewReviewsRepository(pool),
	}
}

func (app *App) initCache() {
	const op = "App.initCache"

	client, err := cache.NewClient(app.ctx, app.cfg.Redis.Addr, app.cfg.Redis.DB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.redis = client
}

func (app *App) initNotifier() {
	const op = "App.initNotifier"

	if app.cfg.RabbitMQ.URL == "" {
		slog.Warn("rabbitmq is not configured, notifications are off", "op", op)
		return
	}
	publisher, err := notify.Dial(app.cfg.RabbitMQ.URL)
	if err != nil {
		app.fallDown(op, err)
	}
	app.publisher = publisher
}

func (app *App) initPayment() {
	const op = "App.initPayment"
	pc := app.cfg.Payment

	if pc.Mock {
		slog.Warn("using the in-process mock payment processor", "op", op)
		app.mockProc = payment.NewMock(pc.SecretKey)
		app.processor = app.mockProc
		return
	}

	client, err := payment.NewClient(pc.BaseURL, pc.SecretKey, nil)
	if err != nil {
		app.fallDown(op, err)
	}
	app.processor = client
}

func (app *App) initBroker() {
	const op = "App.initBroker"
	bc := app.cfg.Broker

	if bc.TLS.Enabled() {
		tlsCfg, err := adapter.MakeTLSConfig(bc.TLS.CA, bc.TLS.Cert, bc.TLS.Key)
		if err != nil {
			app.fallDown(op, err)
		}
		app.broker.tlsCfg = tlsCfg
		kafka.ApplyTLS(tlsCfg)
	}

	app.initSerdes()

	producer, err := kafka.NewOrderEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, bc.SeedBrokers, bc.Topics.OrderEvents, app.broker.tlsCfg,
		),
		kafka.ProducerEncoderOpt(app.broker.serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.producer = &producer

	salesProc, err := kafka.NewProductSalesProc(
		bc.SeedBrokers,
		bc.Topics.OrderEvents,
		bc.Consumers.ProductSalesGroup,
		app.broker.serde,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.salesProc = salesProc

	salesView, err := kafka.NewProductSalesView(
		bc.SeedBrokers, bc.Consumers.ProductSalesGroup,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.salesView = salesView
}

func (app *App) initSerdes() {
	const op = "App.initSerdes"
	bc := app.cfg.Broker

	srOpts := []sr.ClientOpt{sr.URLs(bc.SchemaRegistryURLs...)}
	if app.broker.tlsCfg != nil {
		srOpts = append(srOpts, sr.DialTLSConfig(app.broker.tlsCfg))
	}
	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	schemaCreater := schema.NewSchemaCreater(srClient)

	orderEventSS := bc.Topics.OrderEvents + "-value"
	orderEventSerde, err := schema.NewSerdeOrderEventV1(
		app.ctx,
		schema.SubjectOpt(orderEventSS),
		schema.SchemaIdentifierOpt(schemaCreater),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	slog.Info("order event schema is registered",
		"op", op, "subject", orderEventSerde.Subject(), "id", orderEventSerde.ID())
	app.broker.serde = orderEventSerde
}

func (app *App) initCoreService() {
	deps := service.Deps{
		Products:  app.repos.products,
		Carts:     app.repos.carts,
		CartCache: cache.NewCartCache(app.redis, 0),
		Orders:    app.repos.orders,
		Users:     app.repos.users,
		Sessions:  app.repos.users,
		Reviews:   app.repos.reviews,
		Wishlist:  app.repos.reviews,
		OTP:       cache.NewOTPStore(app.redis),
		Processor: app.processor,
	}
	if app.publisher != nil {
		deps.Notifier = app.publisher
	}
	if app.broker.salesView != nil {
		deps.Sales = app.broker.salesView
	}

	app.service = service.New(deps, service.Config{
		Currency:   app.cfg.Payment.Currency,
		SessionTTL: app.cfg.Auth.SessionTTL,
		OTPTTL:     app.cfg.Auth.OTPTTL,
	})

	if app.mockProc != nil {
		app.mockProc.OnSettle(app.service.HandlePaymentWebhook)
	}
}

func (app *App) initWorkers() {
	const op = "App.initWorkers"
	bc := app.cfg.Broker

	app.workers.reconciler = service.NewReconciler(app.service, service.ReconcilerConfig{
		Interval:    app.cfg.Reconcile.Interval,
		StaleAfter:  app.cfg.Reconcile.StaleAfter,
		ExpireAfter: app.cfg.Reconcile.ExpireAfter,
	})

	if !bc.Enabled {
		return
	}

	app.workers.relay = service.NewOutboxRelay(
		app.repos.orders, app.broker.producer,
		app.cfg.Outbox.Interval, app.cfg.Outbox.Batch,
	)

	if app.publisher == nil {
		return
	}
	consumer, err := kafka.NewOrderNotificationsConsumer(
		kafka.ConsumerClientOpt(
			bc.SeedBrokers,
			bc.Topics.OrderEvents,
			bc.Consumers.OrderNotificationsGroup,
			app.broker.tlsCfg,
		),
		kafka.ConsumerDecoderOpt(app.broker.serde),
		kafka.ConsumerOrderEventsHandlerOpt(app.service),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.broker.notifications = &consumer
}

func (app *App) initInboundAdapters() {
	svc := app.service
	router := httphandler.NewRouter(httphandler.Services{
		Catalog:  svc,
		Carts:    svc,
		Orders:   svc,
		Payments: svc,
		Accounts: svc,
		Reviews:  svc,
		Wishlist: svc,
	}, app.cfg.Payment.WebhookSecret)

	if app.mockProc != nil {
		router.Mount(mockProcessorPath, app.mockProc.Handler())
	}

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, router, app.cfg.RequestTimeout,
	)
}

// Run starts the background workers, waits until the stream processors
// are ready and then serves HTTP.
func (app *App) Run(stopFn context.CancelFunc) {
	ctx := app.ctx
	var wg sync.WaitGroup

	if p := app.broker.salesProc; p != nil {
		wg.Add(1)
		go p.Run(ctx, stopFn, &wg)
	}
	if v := app.broker.salesView; v != nil {
		wg.Add(1)
		go v.Run(ctx, stopFn, &wg)
	}
	if r := app.workers.relay; r != nil {
		wg.Add(1)
		go r.Run(ctx, stopFn, &wg)
	}
	wg.Add(1)
	go app.workers.reconciler.Run(ctx, stopFn, &wg)

	wg.Wait()

	if c := app.broker.notifications; c != nil {
		go c.Run(ctx)
	}

	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)

	if c := app.broker.notifications; c != nil {
		c.Close()
	}
	if p := app.broker.salesProc; p != nil {
		p.Close()
	}
	if p := app.broker.producer; p != nil {
		p.Close()
	}
	if app.publisher != nil {
		app.publisher.Close()
	}
	if err := app.redis.Close(); err != nil {
		slog.Error("failed to close redis client", "err", err)
	}
	app.pool.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
