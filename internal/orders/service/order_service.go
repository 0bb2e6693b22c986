package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zsimmons25/see-more/internal/orders/cache"
	"github.com/zsimmons25/see-more/internal/orders/domain"
	"github.com/zsimmons25/see-more/internal/orders/repository"
	"golang.org/x/sync/singleflight"
)

// maxPlaceAttempts bounds retries on serialization failures. AccountNotFound
// and InsufficientFunds are terminal and never retried.
const maxPlaceAttempts = 3

type OrderService struct {
	repo  repository.OrderRepository
	cache cache.OrderCache
	sfg   singleflight.Group // Prevents cache stampede on order-history reads
}

func NewOrderService(repo repository.OrderRepository, cache cache.OrderCache) *OrderService {
	return &OrderService{
		repo:  repo,
		cache: cache,
	}
}

type PlaceOrderRequest struct {
	UserID    uuid.UUID
	RequestID uuid.UUID // client-generated, deduplicates retries after timeouts
	Items     []domain.LineItem

	// ClientTotal is the total the client believes it owes. It is only ever
	// cross-checked against the recomputed total, never stored.
	ClientTotal *decimal.Decimal
}

func (s *OrderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	total := domain.ItemsTotal(req.Items)
	// Client totals arrive as float64 JSON numbers and carry sub-cent noise
	// from float arithmetic, so compare at currency precision.
	if req.ClientTotal != nil && !req.ClientTotal.Round(2).Equal(total.Round(2)) {
		return nil, invalid("submitted total %s does not match item total %s",
			req.ClientTotal.String(), total.String())
	}

	requestID := req.RequestID
	if requestID == uuid.Nil {
		// No idempotency key means no dedup window for this attempt.
		requestID = uuid.New()
	}

	items := make([]domain.LineItem, len(req.Items))
	copy(items, req.Items)

	order := &domain.Order{
		ID:        uuid.New(),
		RequestID: requestID,
		UserID:    req.UserID,
		Items:     items,
		Total:     total,
		Status:    domain.OrderStatusComplete,
	}

	var err error
	for attempt := 1; attempt <= maxPlaceAttempts; attempt++ {
		err = s.repo.CreateOrder(ctx, order)
		if !errors.Is(err, repository.ErrSerialization) {
			break
		}
		log.Printf("order placement conflict for user %s, attempt %d/%d", req.UserID, attempt, maxPlaceAttempts)
	}

	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicateRequest):
		// Retried checkout attempt: the debit already happened once, return
		// the order it produced instead of charging again.
		existing, e2 := s.repo.GetOrderByRequestID(ctx, requestID)
		if e2 != nil {
			return nil, e2
		}
		return existing, nil
	case errors.Is(err, repository.ErrSerialization):
		return nil, ErrTransactionConflict
	default:
		return nil, err
	}

	s.invalidateCache(order.UserID.String())
	return order, nil
}

func validateItems(items []domain.LineItem) error {
	if len(items) == 0 {
		return invalid("order has no items")
	}
	for _, item := range items {
		if item.ProductID <= 0 {
			return invalid("product_id must be positive")
		}
		if item.Quantity < domain.MinItemQuantity || item.Quantity > domain.MaxItemQuantity {
			return invalid("quantity %d for product %d is outside [%d,%d]",
				item.Quantity, item.ProductID, domain.MinItemQuantity, domain.MaxItemQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return invalid("unit price for product %d is negative", item.ProductID)
		}
	}
	return nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *OrderService) ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same user
	v, err, _ := s.sfg.Do(userID.String(), func() (interface{}, error) {

		orders, err := s.cache.Get(ctx, userID.String())
		if err == nil {
			return orders, nil // history is in cache
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v \n", err) // log cache error but continue
		}

		orders, errList := s.repo.ListOrdersByUserID(ctx, userID)
		if errList != nil {
			return nil, errList
		}

		// set cache
		go func() {
			errSet := s.cache.Set(context.Background(), userID.String(), orders)
			if errSet != nil {
				log.Printf("cache set error: %v \n", errSet)
			}
		}()

		return orders, nil
	})

	if err != nil {
		return nil, err
	}

	return v.([]*domain.Order), nil
}

func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	if !status.IsValid() {
		return nil, invalid("unknown order status %q", status)
	}

	order, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	s.invalidateCache(order.UserID.String())
	return order, nil
}

func (s *OrderService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v \n", err)
	}
}
