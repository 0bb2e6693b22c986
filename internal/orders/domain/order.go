package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// The storefront client and the original API speak plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type OrderStatus string

const (
	OrderStatusComplete   OrderStatus = "complete"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid reports whether the status is one of the known labels. There is no
// enforced transition graph: any known status may overwrite any other.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusComplete, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

const (
	MinItemQuantity = 1
	MaxItemQuantity = 5
)

type LineItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Subtotal is quantity x unit price for this line.
func (i LineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is an immutable snapshot of a completed purchase. Items and Total
// never change after creation; only Status may be overwritten.
type Order struct {
	ID        uuid.UUID       `json:"id"`
	RequestID uuid.UUID       `json:"requestId"`
	UserID    uuid.UUID       `json:"userId"`
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Status    OrderStatus     `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ItemsTotal recomputes the order total from its line items. The engine
// stores this value, never a client-supplied one.
func ItemsTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
