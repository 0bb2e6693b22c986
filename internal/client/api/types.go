package api

import "time"

// Wire types for the storefront API. Money travels as plain JSON numbers, so
// float64 is fine here; the server keeps the authoritative decimal values.

type LineItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Balance     float64   `json:"balance"`
	MemberSince time.Time `json:"memberSince"`
}

type Order struct {
	ID        string     `json:"id"`
	RequestID string     `json:"requestId"`
	UserID    string     `json:"userId"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type Product struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Brand        string  `json:"brand"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
}

type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type PlaceOrderRequest struct {
	UserID    string     `json:"userId"`
	RequestID string     `json:"requestId,omitempty"`
	Items     []LineItem `json:"items"`
	Total     float64    `json:"total"`
}
