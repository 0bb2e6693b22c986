package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	ordersrepo "github.com/zsimmons25/see-more/internal/orders/repository"
	orderssvc "github.com/zsimmons25/see-more/internal/orders/service"
	usersrepo "github.com/zsimmons25/see-more/internal/users/repository"
	userssvc "github.com/zsimmons25/see-more/internal/users/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleServiceError converts domain errors to HTTP status codes
func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *orderssvc.ValidationError
	var uErr *userssvc.ValidationError

	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, "validation_error", vErr.Reason)
	case errors.As(err, &uErr):
		respondError(w, http.StatusBadRequest, "validation_error", uErr.Reason)
	case errors.Is(err, ordersrepo.ErrAccountNotFound):
		respondError(w, http.StatusNotFound, "account_not_found", "account does not exist")
	case errors.Is(err, ordersrepo.ErrInsufficientFunds):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_funds", "balance is too low for this order")
	case errors.Is(err, orderssvc.ErrTransactionConflict):
		respondError(w, http.StatusConflict, "transaction_conflict", "order could not be committed, retry with the same request id")
	case errors.Is(err, ordersrepo.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, usersrepo.ErrUserNotFound):
		respondError(w, http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, usersrepo.ErrEmailTaken):
		respondError(w, http.StatusConflict, "validation_error", "email is already registered")
	case errors.Is(err, userssvc.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "credential_error", "invalid email or password")
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
