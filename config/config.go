package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "ARTSHOP_CONFIG_FILE"

type consumers struct {
	ProductSalesGroup       string `mapstructure:"product_sales_group"`
	OrderNotificationsGroup string `mapstructure:"order_notifications_group"`
}

type topics struct {
	OrderEvents string `mapstructure:"order_events"`
	// ProductSalesTable is derived from the product sales group.
	ProductSalesTable string `mapstructure:"product_sales_table"`
}

type tlsFiles struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

func (t tlsFiles) Enabled() bool {
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

type Broker struct {
	Enabled            bool      `mapstructure:"enabled"`
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                tlsFiles  `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type redisConfig struct {
	Addr string `mapstructure:"addr"`
	DB   int    `mapstructure:"db"`
}

type rabbitMQ struct {
	URL string `mapstructure:"url"`
}

type payment struct {
	Mock          bool   `mapstructure:"mock"`
	BaseURL       string `mapstructure:"base_url"`
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type auth struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	OTPTTL     time.Duration `mapstructure:"otp_ttl"`
}

type outbox struct {
	Interval time.Duration `mapstructure:"interval"`
	Batch    int           `mapstructure:"batch"`
}

type reconcile struct {
	Interval    time.Duration `mapstructure:"interval"`
	StaleAfter  time.Duration `mapstructure:"stale_after"`
	ExpireAfter time.Duration `mapstructure:"expire_after"`
}

type Config struct {
	LogLevel       slog.Level    `mapstructure:"log_level"`
	HTTPServerAddr string        `mapstructure:"http_server_addr"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	SQLDB          string        `mapstructure:"sql_db"`
	Redis          redisConfig   `mapstructure:"redis"`
	RabbitMQ       rabbitMQ      `mapstructure:"rabbitmq"`
	Broker         Broker        `mapstructure:"broker"`
	Payment        payment       `mapstructure:"payment"`
	Auth           auth          `mapstructure:"auth"`
	Outbox         outbox        `mapstructure:"outbox"`
	Reconcile      reconcile     `mapstructure:"reconcile"`
}

// decodeHook also accepts level names like "debug" for log_level.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.TextUnmarshallerHookFunc(),
	mapstructure.StringToTimeDurationHookFunc(),
	mapstructure.StringToSliceHookFunc(","),
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8000")
	v.SetDefault("request_timeout", 5*time.Second)
	v.SetDefault("broker.topics.order_events", "order-events")
	v.SetDefault("broker.consumers.product_sales_group", "product-sales")
	v.SetDefault("broker.consumers.order_notifications_group", "order-notifications")
	v.SetDefault("payment.currency", "lkr")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.otp_ttl", 10*time.Minute)
	v.SetDefault("outbox.interval", time.Second)
	v.SetDefault("outbox.batch", 100)
	v.SetDefault("reconcile.interval", time.Minute)
	v.SetDefault("reconcile.stale_after", 5*time.Minute)
	v.SetDefault("reconcile.expire_after", 24*time.Hour)
}

func Load() Config {
	cfg, err := LoadFile(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// LoadFile reads a YAML config file and fills in the defaults.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg, viper.DecodeHook(decodeHook)); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	cfg.Broker.Topics.ProductSalesTable = cfg.Broker.Consumers.ProductSalesGroup + "-table"
	return cfg, nil
}

func (c Config) validate() error {
	if c.SQLDB == "" {
		return fmt.Errorf("sql_db is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if !c.Payment.Mock && c.Payment.BaseURL == "" {
		return fmt.Errorf("payment.base_url is required unless payment.mock is set")
	}
	if c.Broker.Enabled && len(c.Broker.SeedBrokers) == 0 {
		return fmt.Errorf("broker.seed_brokers is required when broker.enabled is set")
	}
	return nil
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	// commands define their own flags next to --config
	cmdLine.ParseErrorsWhitelist.UnknownFlags = true
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}

// maskURL hides the password of a DSN or broker URL.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	RequestTimeout=%q
	SQLDB=%q
	Redis=%q (db %d)
	RabbitMQ=%q

	Payment:
	Mock=%t
	BaseURL=%q
	SecretKey=%q
	WebhookSecret=%q
	Currency=%q

	Auth:
	SessionTTL=%q
	OTPTTL=%q

	Workers:
	OutboxInterval=%q
	OutboxBatch=%d
	ReconcileInterval=%q
	ReconcileStaleAfter=%q
	ReconcileExpireAfter=%q

	BrokerConfig:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		OrderEvents=%q
		ProductSalesTable=%q
	Consumers:
		ProductSalesGroup=%q
		OrderNotificationsGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		c.RequestTimeout,
		maskURL(c.SQLDB),
		c.Redis.Addr, c.Redis.DB,
		maskURL(c.RabbitMQ.URL),
		c.Payment.Mock,
		c.Payment.BaseURL,
		mask(c.Payment.SecretKey),
		mask(c.Payment.WebhookSecret),
		c.Payment.Currency,
		c.Auth.SessionTTL,
		c.Auth.OTPTTL,
		c.Outbox.Interval,
		c.Outbox.Batch,
		c.Reconcile.Interval,
		c.Reconcile.StaleAfter,
		c.Reconcile.ExpireAfter,
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled(),
		c.Broker.Topics.OrderEvents,
		c.Broker.Topics.ProductSalesTable,
		c.Broker.Consumers.ProductSalesGroup,
		c.Broker.Consumers.OrderNotificationsGroup,
	)
}
