package cache

import (
	"context"
	"errors"

	"github.com/zsimmons25/see-more/internal/orders/domain"
)

type OrderCache interface {
	Get(ctx context.Context, userID string) ([]*domain.Order, error)
	Set(ctx context.Context, userID string, orders []*domain.Order) error
	Delete(ctx context.Context, userID string) error
}

var ErrCacheMiss = errors.New("cache miss")
