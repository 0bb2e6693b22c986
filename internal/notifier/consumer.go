package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/zsimmons25/see-more/internal/orders/domain"
	"github.com/zsimmons25/see-more/internal/outbox"
)

// OrderPlacedEvent mirrors the outbox payload written by the order engine.
type OrderPlacedEvent struct {
	OrderID  string            `json:"order_id"`
	UserID   string            `json:"user_id"`
	Items    []domain.LineItem `json:"items"`
	Total    decimal.Decimal   `json:"total"`
	PlacedAt time.Time         `json:"placed_at"`
}

// Notification is what gets handed to the delivery channel (email, push,
// for now just the log sink in cmd/notifier).
type Notification struct {
	OrderID   uuid.UUID
	UserID    uuid.UUID
	ItemCount int
	Total     decimal.Decimal
	PlacedAt  time.Time
}

type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

type Consumer struct {
	sink   Sink
	reader *kafka.Reader
}

func NewConsumer(sink Sink, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    outbox.Topic,
		GroupID:  "notifier",
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{sink, reader}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	err := c.reader.Close()
	if err != nil {
		fmt.Printf("error closing kafka reader: %v\n", err)
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Printf("error reading message: %v\n", err)
		return
	}

	var event OrderPlacedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		fmt.Printf("error parsing message: %v\n", err)
		return
	}

	orderID, err := uuid.Parse(event.OrderID)
	if err != nil {
		fmt.Printf("invalid order_id %q: %v\n", event.OrderID, err)
		return
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		fmt.Printf("invalid user_id %q: %v\n", event.UserID, err)
		return
	}

	count := 0
	for _, item := range event.Items {
		count += item.Quantity
	}

	n := Notification{
		OrderID:   orderID,
		UserID:    userID,
		ItemCount: count,
		Total:     event.Total,
		PlacedAt:  event.PlacedAt,
	}
	if err := c.sink.Notify(ctx, n); err != nil {
		fmt.Printf("failed to deliver notification for order %s: %v\n", orderID, err)
	}
}
