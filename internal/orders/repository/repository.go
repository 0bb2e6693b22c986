package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zsimmons25/see-more/internal/orders/domain"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrDuplicateRequest  = errors.New("order for this request already exists")
	ErrSerialization     = errors.New("transaction aborted by concurrent write")
)

type OutboxEvent struct {
	ID          int64
	AggregateId string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type OrderRepository interface {
	// CreateOrder runs the whole check-debit-insert sequence in one
	// transaction: either the account debit, the order row and the outbox
	// row all commit, or none of them do.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
