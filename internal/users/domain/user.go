package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is the server-authoritative account row. Balance here is the only
// balance that matters; client-side mirrors of it are display-only.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	FirstName    string          `json:"firstName"`
	LastName     string          `json:"lastName"`
	Balance      decimal.Decimal `json:"balance"`
	MemberSince  time.Time       `json:"memberSince"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
