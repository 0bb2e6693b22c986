package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zsimmons25/see-more/internal/users/domain"
	"github.com/zsimmons25/see-more/internal/users/service"
)

// UsersService is the part of the account service the HTTP layer needs.
type UsersService interface {
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	AddFunds(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) error
}

type UsersHandler struct {
	users   UsersService
	timeout time.Duration
}

func NewUsersHandler(users UsersService, timeout time.Duration) *UsersHandler {
	return &UsersHandler{
		users:   users,
		timeout: timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type AddFundsRequestDTO struct {
	Amount decimal.Decimal `json:"amount"`
}

type ChangePasswordRequestDTO struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// POST /auth/login
func (h *UsersHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	result, err := h.users.Login(ctx, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// POST /auth/register
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	result, err := h.users.Register(ctx, service.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

// GET /users/{id}
func (h *UsersHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// POST /users/{id}/add-funds
func (h *UsersHandler) AddFunds(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	var req AddFundsRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	user, err := h.users.AddFunds(ctx, id, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// POST /users/{id}/change-password
func (h *UsersHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := h.authorizedUserID(w, r)
	if !ok {
		return
	}

	var req ChangePasswordRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	if err := h.users.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// authorizedUserID parses the {id} path param and requires it to match the
// authenticated user. Account endpoints are strictly self-service.
func (h *UsersHandler) authorizedUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID := getUserIDFromContext(r.Context())
	if userID == uuid.Nil {
		respondError(w, http.StatusUnauthorized, "credential_error", "missing user authentication")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "user id must be a UUID")
		return uuid.Nil, false
	}
	if id != userID {
		respondError(w, http.StatusForbidden, "credential_error", "cannot act on another user's account")
		return uuid.Nil, false
	}
	return id, true
}
