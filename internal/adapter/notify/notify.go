package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/niksmo/artshop/internal/core/port"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	OTPQueue         = "notifications.otp"
	OrderStatusQueue = "notifications.order_status"

	publishTimeout = 3 * time.Second
)

var _ port.Notifier = (*Publisher)(nil)

type channel interface {
	PublishWithContext(
		ctx context.Context, exchange, key string,
		mandatory, immediate bool, msg amqp.Publishing,
	) error
	Close() error
}

type (
	otpMessage struct {
		Email  string    `json:"email"`
		Code   string    `json:"code"`
		SentAt time.Time `json:"sentAt"`
	}

	orderStatusMessage struct {
		Email      string    `json:"email"`
		OrderID    string    `json:"orderId"`
		Status     string    `json:"status"`
		Total      string    `json:"total"`
		OccurredAt time.Time `json:"occurredAt"`
	}
)

// A Publisher hands notifications to a mail worker through durable
// RabbitMQ queues.
type Publisher struct {
	conn *amqp.Connection
	ch   channel
	now  func() time.Time
}

func Dial(url string) (*Publisher, error) {
	const op = "notify.Dial"

	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: amqp.DefaultDial(10 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := NewPublisher(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.conn = conn
	return p, nil
}

// NewPublisher opens a channel and declares the notification queues.
func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	const op = "notify.NewPublisher"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: open channel: %w", op, err)
	}

	for _, q := range []string{OTPQueue, OrderStatusQueue} {
		_, err = ch.QueueDeclare(q, true, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("%s: declare %s: %w", op, q, err)
		}
	}

	return &Publisher{ch: ch, now: time.Now}, nil
}

func (p *Publisher) Close() {
	const op = "Publisher.Close"
	log := slog.With("op", op)

	log.Info("closing publisher...")
	if err := p.ch.Close(); err != nil {
		log.Warn("failed to close channel", "err", err)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			log.Warn("failed to close connection", "err", err)
		}
	}
	log.Info("publisher is closed")
}

func (p *Publisher) SendOTP(ctx context.Context, email, code string) error {
	const op = "Publisher.SendOTP"

	err := p.publishJSON(ctx, OTPQueue, otpMessage{
		Email:  email,
		Code:   code,
		SentAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Publisher) SendOrderStatus(
	ctx context.Context, email string, e domain.OrderEvent,
) error {
	const op = "Publisher.SendOrderStatus"

	err := p.publishJSON(ctx, OrderStatusQueue, orderStatusMessage{
		Email:      email,
		OrderID:    e.OrderID,
		Status:     e.Status.String(),
		Total:      e.Total.StringFixed(2),
		OccurredAt: e.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (p *Publisher) publishJSON(ctx context.Context, queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", queue, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",    // default exchange
		queue, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}
