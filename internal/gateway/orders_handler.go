package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zsimmons25/see-more/internal/orders/domain"
	"github.com/zsimmons25/see-more/internal/orders/service"
)

// OrdersService is the part of the order engine the HTTP layer needs.
type OrdersService interface {
	PlaceOrder(ctx context.Context, req service.PlaceOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrdersService
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type CreateOrderRequestDTO struct {
	UserID    string            `json:"userId"`
	RequestID string            `json:"requestId,omitempty"`
	Items     []domain.LineItem `json:"items"`
	Total     *decimal.Decimal  `json:"total,omitempty"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

// POST /orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "credential_error", "missing user authentication")
		return
	}

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	// The body names a user, the token names a user. They must agree.
	bodyUserID, err := uuid.Parse(req.UserID)
	if err != nil || bodyUserID != userID {
		respondError(w, http.StatusForbidden, "credential_error", "userId does not match the authenticated user")
		return
	}

	placeReq := service.PlaceOrderRequest{
		UserID:      userID,
		Items:       req.Items,
		ClientTotal: req.Total,
	}
	if req.RequestID != "" {
		requestID, e2 := uuid.Parse(req.RequestID)
		if e2 != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "requestId must be a UUID")
			return
		}
		placeReq.RequestID = requestID
	}

	order, err := h.orders.PlaceOrder(ctx, placeReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GET /orders/user/{userId}
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "credential_error", "missing user authentication")
		return
	}

	pathUserID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "userId must be a UUID")
		return
	}
	if pathUserID != userID {
		respondError(w, http.StatusForbidden, "credential_error", "cannot list another user's orders")
		return
	}

	orders, err := h.orders.ListOrdersForUser(ctx, pathUserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if orders == nil {
		orders = []*domain.Order{}
	}

	respondJSON(w, http.StatusOK, orders)
}

// GET /orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "credential_error", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "order id must be a UUID")
		return
	}

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if order.UserID != userID {
		respondError(w, http.StatusForbidden, "credential_error", "cannot read another user's order")
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// PATCH /orders/{id}
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "credential_error", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "order id must be a UUID")
		return
	}

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	existing, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if existing.UserID != userID {
		respondError(w, http.StatusForbidden, "credential_error", "cannot modify another user's order")
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, domain.OrderStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}
