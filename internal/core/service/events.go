package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/artshop/internal/core/domain"
	"github.com/shopspring/decimal"
)

type orderLineJSON struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	LabelledPrice decimal.Decimal `json:"labelledPrice"`
	Qty           int             `json:"qty"`
}

type orderEventJSON struct {
	EventType  string          `json:"eventType"`
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	Status     string          `json:"status"`
	Total      decimal.Decimal `json:"total"`
	Products   []orderLineJSON `json:"products"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func newOrderOutboxEvent(
	eventType string, o domain.Order, at time.Time,
) (domain.OutboxEvent, error) {
	lines := make([]orderLineJSON, len(o.Products))
	for i, l := range o.Products {
		lines[i] = orderLineJSON{
			ProductID:     l.ProductID,
			Name:          l.Name,
			Price:         l.Price,
			LabelledPrice: l.LabelledPrice,
			Qty:           l.Qty,
		}
	}

	payload, err := json.Marshal(orderEventJSON{
		EventType:  eventType,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status.String(),
		Total:      o.Total,
		Products:   lines,
		OccurredAt: at,
	})
	if err != nil {
		return domain.OutboxEvent{}, err
	}

	return domain.OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: o.ID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   at,
	}, nil
}

func decodeOrderEvent(e domain.OutboxEvent) (domain.OrderEvent, error) {
	var v orderEventJSON
	if err := json.Unmarshal(e.Payload, &v); err != nil {
		return domain.OrderEvent{}, err
	}

	status, err := domain.ParseOrderStatus(v.Status)
	if err != nil {
		return domain.OrderEvent{}, err
	}

	lines := make([]domain.OrderLine, len(v.Products))
	for i, l := range v.Products {
		lines[i] = domain.OrderLine{
			ProductID:     l.ProductID,
			Name:          l.Name,
			Price:         l.Price,
			LabelledPrice: l.LabelledPrice,
			Qty:           l.Qty,
		}
	}

	return domain.OrderEvent{
		EventType:  v.EventType,
		OrderID:    v.OrderID,
		UserID:     v.UserID,
		Status:     status,
		Total:      v.Total,
		Products:   lines,
		OccurredAt: v.OccurredAt,
	}, nil
}
