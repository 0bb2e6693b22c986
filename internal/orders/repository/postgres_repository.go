package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/zsimmons25/see-more/internal/orders/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateOrder debits the purchaser's balance and inserts the order plus its
// outbox event inside a single transaction. The debit is a conditional
// update, so two concurrent placements on the same account can never both
// pass the funds check on a stale balance.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = NOW()
		 WHERE id = $2 AND balance >= $1`,
		order.Total, order.UserID)
	if err != nil {
		return classifyPQError(err, "debit account balance")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		if e2 := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`,
			order.UserID).Scan(&exists); e2 != nil {
			return fmt.Errorf("probe account existence: %w", e2)
		}
		if !exists {
			return ErrAccountNotFound
		}
		return ErrInsufficientFunds
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (id, request_id, user_id, items, total, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		order.ID, order.RequestID, order.UserID, itemsJSON, order.Total, order.Status).
		Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return classifyPQError(err, "insert order")
	}

	payload, err := json.Marshal(map[string]interface{}{
		"order_id":  order.ID,
		"user_id":   order.UserID,
		"items":     order.Items,
		"total":     order.Total,
		"placed_at": time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO order_outbox (aggregate_id, event_type, payload)
		 VALUES ($1, $2, $3)`,
		order.ID, "order.placed", payload)
	if err != nil {
		return classifyPQError(err, "insert outbox event")
	}

	if e2 := tx.Commit(); e2 != nil {
		return classifyPQError(e2, "commit order transaction")
	}
	return nil
}

const orderColumns = `id, request_id, user_id, items, total, status, created_at, updated_at`

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (r *Repository) GetOrderByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE request_id = $1`, requestID)
	return scanOrder(row)
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, e2 := scanOrder(rows)
		if e2 != nil {
			return nil, e2
		}
		orders = append(orders, order)
	}

	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}

	return orders, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
		 RETURNING `+orderColumns, status, id)
	return scanOrder(row)
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM order_outbox WHERE NOT processed ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if e2 := rows.Scan(&ev.ID, &ev.AggregateId, &ev.EventType, &ev.Payload, &ev.CreatedAt); e2 != nil {
			return nil, fmt.Errorf("scan outbox event: %w", e2)
		}
		events = append(events, &ev)
	}

	if e2 := rows.Err(); e2 != nil {
		return nil, fmt.Errorf("row iteration error: %w", e2)
	}

	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_outbox SET processed = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event as processed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var itemsJSON []byte
	err := row.Scan(
		&order.ID,
		&order.RequestID,
		&order.UserID,
		&itemsJSON,
		&order.Total,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}

	if e2 := json.Unmarshal(itemsJSON, &order.Items); e2 != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", e2)
	}

	return &order, nil
}

// classifyPQError maps driver errors onto the repository sentinels. A
// serialization failure or deadlock means the whole transaction must be
// retried from the top; the caller owns that loop.
func classifyPQError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return ErrSerialization
		case "23505":
			if pqErr.Constraint == "orders_request_id_key" {
				return ErrDuplicateRequest
			}
		case "23514":
			// The balance CHECK backstops the conditional update.
			return ErrInsufficientFunds
		case "23503":
			return ErrAccountNotFound
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
