// Package events publishes order lifecycle events for downstream consumers
// (fulfilment, analytics). Publishing is best-effort and never blocks or
// fails an intake that has already been committed.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orderflow/internal/entity"
	"orderflow/pkg/logger"
	"orderflow/pkg/metric"

	"github.com/segmentio/kafka-go"
)

const EventOrderCreated = "order.created"

type OrderCreated struct {
	Event       string    `json:"event"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	OrderTotal  float64   `json:"order_total"`
	ItemCount   int       `json:"item_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Publisher struct {
	writer  *kafka.Writer
	log     logger.Logger
	metrics metric.Events
}

func NewPublisher(writer *kafka.Writer, log logger.Logger, metrics metric.Events) *Publisher {
	return &Publisher{
		writer:  writer,
		log:     log,
		metrics: metrics,
	}
}

func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("events.Close: %w", err)
	}
	return nil
}

// PublishOrderCreated emits an order.created event keyed by order number so
// per-order consumers see events in order.
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *entity.Order) {
	const op = "events.PublishOrderCreated"

	event := OrderCreated{
		Event:       EventOrderCreated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID.String(),
		OrderTotal:  order.OrderTotal,
		ItemCount:   len(order.Items),
		CreatedAt:   order.CreatedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.metrics.PublishFailed(p.writer.Topic, "marshal")
		p.log.LogAttrs(ctx, logger.ErrorLevel, "event marshal failed",
			logger.String("op", op),
			logger.String("order_number", order.OrderNumber),
			logger.Any("error", err),
		)
		return
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.OrderNumber),
		Value: payload,
	})
	p.metrics.ObservePublishDuration(p.writer.Topic, time.Since(start))

	if err != nil {
		p.metrics.PublishFailed(p.writer.Topic, "write")
		p.log.LogAttrs(ctx, logger.WarnLevel, "event publish failed",
			logger.String("op", op),
			logger.String("order_number", order.OrderNumber),
			logger.Any("error", err),
		)
		return
	}

	p.metrics.Published(p.writer.Topic)
}
