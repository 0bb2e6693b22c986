package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zsimmons25/see-more/internal/orders/cache"
	"github.com/zsimmons25/see-more/internal/orders/domain"
	"github.com/zsimmons25/see-more/internal/orders/repository"
)

type mockRepository struct {
	m       sync.Mutex
	balance decimal.Decimal
	orders  []*domain.Order
	err     error

	createCalls  int
	failuresLeft int // consume ErrSerialization this many times before succeeding
}

func (m *mockRepository) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.createCalls++
	if m.failuresLeft > 0 {
		m.failuresLeft--
		return repository.ErrSerialization
	}
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.orders {
		if existing.RequestID == order.RequestID {
			return repository.ErrDuplicateRequest
		}
	}
	if m.balance.LessThan(order.Total) {
		return repository.ErrInsufficientFunds
	}
	m.balance = m.balance.Sub(order.Total)
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockRepository) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, order := range m.orders {
		if order.ID == id {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockRepository) GetOrderByRequestID(_ context.Context, requestID uuid.UUID) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, order := range m.orders {
		if order.RequestID == requestID {
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockRepository) ListOrdersByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Order
	for _, order := range m.orders {
		if order.UserID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, order := range m.orders {
		if order.ID == id {
			order.Status = status
			return order, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockRepository) GetUnprocessedEvents(context.Context, int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (m *mockRepository) MarkEventAsProcessed(context.Context, int64) error {
	return nil
}

func (m *mockRepository) getBalance() decimal.Decimal {
	m.m.Lock()
	defer m.m.Unlock()
	return m.balance
}

type mockCache struct {
	m      sync.RWMutex
	orders []*domain.Order
	err    error
}

func (m *mockCache) Get(context.Context, string) ([]*domain.Order, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.orders == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.orders, nil
}

func (m *mockCache) Set(_ context.Context, _ string, orders []*domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.orders = orders
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.orders = nil
	return m.err
}

func (m *mockCache) getOrders() []*domain.Order {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.orders
}

func testItems() []domain.LineItem {
	return []domain.LineItem{
		{ProductID: 1, ProductName: "Laptop", Quantity: 2, UnitPrice: decimal.NewFromFloat(100)},
		{ProductID: 2, ProductName: "Mouse", Quantity: 1, UnitPrice: decimal.NewFromFloat(25.50)},
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	userID := uuid.New()
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	mockC := &mockCache{orders: []*domain.Order{}}

	sut := NewOrderService(mockRepo, mockC)
	order, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:    userID,
		RequestID: uuid.New(),
		Items:     testItems(),
	})
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, domain.OrderStatusComplete, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromFloat(225.50)), "got total %s", order.Total)
	assert.True(t, mockRepo.getBalance().Equal(decimal.NewFromFloat(274.50)),
		"balance after debit: %s", mockRepo.getBalance())
	assert.Len(t, order.Items, 2)

	// Verify cache was invalidated
	require.Eventually(t, func() bool {
		return mockC.getOrders() == nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: uuid.New(),
		Items:  nil,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 0, mockRepo.createCalls, "repository must not be touched on validation failure")
}

func TestPlaceOrder_QuantityOutOfRange(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	for _, qty := range []int{0, -1, 6} {
		items := testItems()
		items[0].Quantity = qty
		_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
			UserID: uuid.New(),
			Items:  items,
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, "quantity %d must be rejected", qty)
	}
	assert.Equal(t, 0, mockRepo.createCalls)
}

func TestPlaceOrder_ClientTotalMismatch(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	bogus := decimal.NewFromFloat(1.00) // real total is 225.50
	_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:      uuid.New(),
		Items:       testItems(),
		ClientTotal: &bogus,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, err.Error(), "does not match")
	assert.True(t, mockRepo.getBalance().Equal(decimal.NewFromInt(500)), "balance must be untouched")
}

func TestPlaceOrder_ClientTotalMatch(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	total := decimal.NewFromFloat(225.50)
	order, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:      uuid.New(),
		Items:       testItems(),
		ClientTotal: &total,
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(total))
}

func TestPlaceOrder_ClientTotalSurvivesFloatNoise(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	// A float64 client sums 3 * 0.10 to 0.30000000000000004 and that is
	// what crosses the wire. It must still be accepted for the exact 0.30.
	var clientTotal float64
	for i := 0; i < 3; i++ {
		clientTotal += 0.10
	}
	payload, err := json.Marshal(map[string]float64{"total": clientTotal})
	require.NoError(t, err)
	var wire struct {
		Total *decimal.Decimal `json:"total"`
	}
	require.NoError(t, json.Unmarshal(payload, &wire))
	require.NotNil(t, wire.Total)

	order, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:    uuid.New(),
		RequestID: uuid.New(),
		Items: []domain.LineItem{
			{ProductID: 3, ProductName: "Sticker", Quantity: 3, UnitPrice: decimal.NewFromFloat(0.10)},
		},
		ClientTotal: wire.Total,
	})
	require.NoError(t, err)
	assert.True(t, order.Total.Equal(decimal.NewFromFloat(0.30)), "got total %s", order.Total)
}

func TestPlaceOrder_MismatchMessageShowsExactTotals(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	bogus := decimal.NewFromFloat(225.55)
	_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID:      uuid.New(),
		Items:       testItems(), // totals 225.50
		ClientTotal: &bogus,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submitted total 225.55")
	assert.Contains(t, err.Error(), "item total 225.5")
}

func TestPlaceOrder_InsufficientFunds(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(100)}
	sut := NewOrderService(mockRepo, &mockCache{})

	_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: uuid.New(),
		Items:  testItems(), // totals 225.50
	})
	require.ErrorIs(t, err, repository.ErrInsufficientFunds)
	assert.True(t, mockRepo.getBalance().Equal(decimal.NewFromInt(100)), "failed placement must not debit")
	assert.Equal(t, 1, mockRepo.createCalls, "terminal failure must not be retried")
}

func TestPlaceOrder_AccountNotFound(t *testing.T) {
	mockRepo := &mockRepository{err: repository.ErrAccountNotFound}
	sut := NewOrderService(mockRepo, &mockCache{})

	_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: uuid.New(),
		Items:  testItems(),
	})
	require.ErrorIs(t, err, repository.ErrAccountNotFound)
	assert.Equal(t, 1, mockRepo.createCalls)
}

func TestPlaceOrder_RetriesSerializationFailure(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500), failuresLeft: 2}
	sut := NewOrderService(mockRepo, &mockCache{})

	order, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: uuid.New(),
		Items:  testItems(),
	})
	require.NoError(t, err)
	assert.NotNil(t, order)
	assert.Equal(t, 3, mockRepo.createCalls)
}

func TestPlaceOrder_ConflictAfterBoundedRetries(t *testing.T) {
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500), failuresLeft: 10}
	sut := NewOrderService(mockRepo, &mockCache{})

	_, err := sut.PlaceOrder(context.Background(), PlaceOrderRequest{
		UserID: uuid.New(),
		Items:  testItems(),
	})
	require.ErrorIs(t, err, ErrTransactionConflict)
	assert.Equal(t, 3, mockRepo.createCalls)
	assert.True(t, mockRepo.getBalance().Equal(decimal.NewFromInt(500)))
}

func TestPlaceOrder_DuplicateRequestReturnsExistingOrder(t *testing.T) {
	userID := uuid.New()
	requestID := uuid.New()
	mockRepo := &mockRepository{balance: decimal.NewFromInt(500)}
	sut := NewOrderService(mockRepo, &mockCache{})

	req := PlaceOrderRequest{UserID: userID, RequestID: requestID, Items: testItems()}

	first, err := sut.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	second, err := sut.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "retry must return the original order")
	assert.True(t, mockRepo.getBalance().Equal(decimal.NewFromFloat(274.50)),
		"retry must not debit twice")
}

func TestListOrdersForUser_CacheMissFillsCache(t *testing.T) {
	userID := uuid.New()
	stored := &domain.Order{ID: uuid.New(), UserID: userID, Status: domain.OrderStatusComplete}
	mockRepo := &mockRepository{orders: []*domain.Order{stored}}
	mockC := &mockCache{}

	sut := NewOrderService(mockRepo, mockC)
	orders, err := sut.ListOrdersForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stored.ID, orders[0].ID)

	require.Eventually(t, func() bool {
		return mockC.getOrders() != nil
	}, 100*time.Millisecond, 10*time.Millisecond, "orders were not set in cache")
}

func TestListOrdersForUser_CacheHit(t *testing.T) {
	userID := uuid.New()
	cached := &domain.Order{ID: uuid.New(), UserID: userID}
	mockRepo := &mockRepository{err: fmt.Errorf("repo should not be called")}
	mockC := &mockCache{orders: []*domain.Order{cached}}

	sut := NewOrderService(mockRepo, mockC)
	orders, err := sut.ListOrdersForUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, cached.ID, orders[0].ID)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	sut := NewOrderService(&mockRepository{}, &mockCache{})

	_, err := sut.UpdateStatus(context.Background(), uuid.New(), "paused")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestUpdateStatus_Success(t *testing.T) {
	userID := uuid.New()
	stored := &domain.Order{ID: uuid.New(), UserID: userID, Status: domain.OrderStatusComplete}
	mockRepo := &mockRepository{orders: []*domain.Order{stored}}
	mockC := &mockCache{orders: []*domain.Order{stored}}

	sut := NewOrderService(mockRepo, mockC)
	order, err := sut.UpdateStatus(context.Background(), stored.ID, domain.OrderStatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusRefunded, order.Status)

	require.Eventually(t, func() bool {
		return mockC.getOrders() == nil
	}, 100*time.Millisecond, 10*time.Millisecond, "cache was not invalidated")
}

func TestUpdateStatus_NotFound(t *testing.T) {
	sut := NewOrderService(&mockRepository{}, &mockCache{})

	_, err := sut.UpdateStatus(context.Background(), uuid.New(), domain.OrderStatusShipped)
	require.ErrorIs(t, err, repository.ErrOrderNotFound)
}
