// Package checkout drives order placement from the client side: it guards
// against double submission, pre-checks the mirrored balance, attaches an
// idempotency key, and reconciles local state after the server answers.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/zsimmons25/see-more/internal/client/api"
)

var (
	ErrBusy        = errors.New("an order submission is already in flight")
	ErrNotLoggedIn = errors.New("not logged in")
	ErrEmptyCart   = errors.New("cart is empty")
	ErrLowBalance  = errors.New("balance is too low for this order")
	// ErrUnknownOutcome wraps a timeout: the order may or may not have been
	// placed. Retrying with the same request id is safe, blind retry is not.
	ErrUnknownOutcome = errors.New("order outcome unknown, verify before retrying")
)

// OrderPlacer is the slice of the API client the checkout needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req api.PlaceOrderRequest) (*api.Order, error)
}

// CartView is what the checkout reads from and does to the cart.
type CartView interface {
	Items() []api.LineItem
	Total() float64
	Clear() error
}

// SessionView is what the checkout reads from and does to the session.
type SessionView interface {
	IsAuthenticated() bool
	Profile() *api.User
	UpdateBalanceMirror(newBalance float64) error
}

type Checkout struct {
	placer  OrderPlacer
	cart    CartView
	session SessionView
	busy    atomic.Bool

	// requestID carries over between attempts of the same logical order
	// so a retry after a timeout cannot double-charge. orderKey records
	// which cart the id was minted for; editing the cart rotates the id.
	requestID string
	orderKey  string
}

func New(placer OrderPlacer, cart CartView, session SessionView) *Checkout {
	return &Checkout{placer: placer, cart: cart, session: session}
}

// Busy reports whether a submission is currently in flight.
func (c *Checkout) Busy() bool {
	return c.busy.Load()
}

// PlaceOrder submits the current cart. On success the cart is cleared and
// the session's balance mirror is optimistically debited; the server remains
// the source of truth.
func (c *Checkout) PlaceOrder(ctx context.Context) (*api.Order, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer c.busy.Store(false)

	if !c.session.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	profile := c.session.Profile()

	items := c.cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	// Float sums drift below a cent, the server bills in cents.
	total := math.Round(c.cart.Total()*100) / 100

	// Cheap local pre-check against the mirrored balance. The server
	// re-checks atomically, this only saves a round trip.
	if profile.Balance < total {
		return nil, ErrLowBalance
	}

	// A retained request id only stays valid for the cart it was minted
	// for. If the cart changed since the last attempt this is a new
	// logical order and must not replay the old one.
	key := orderKey(items, total)
	if c.requestID == "" || c.orderKey != key {
		c.requestID = uuid.NewString()
		c.orderKey = key
	}

	order, err := c.placer.PlaceOrder(ctx, api.PlaceOrderRequest{
		UserID:    profile.ID,
		RequestID: c.requestID,
		Items:     items,
		Total:     total,
	})
	if err != nil {
		if api.IsTimeout(err) {
			// Keep the request id: a later retry with it either replays
			// the committed order or places it exactly once.
			return nil, fmt.Errorf("%w: %v", ErrUnknownOutcome, err)
		}
		c.requestID = ""
		return nil, err
	}
	c.requestID = ""

	if err := c.cart.Clear(); err != nil {
		return order, fmt.Errorf("order placed but cart not cleared: %w", err)
	}
	if err := c.session.UpdateBalanceMirror(profile.Balance - order.Total); err != nil {
		return order, fmt.Errorf("order placed but balance mirror stale: %w", err)
	}
	return order, nil
}

func orderKey(items []api.LineItem, total float64) string {
	payload, _ := json.Marshal(items)
	return fmt.Sprintf("%s|%.2f", payload, total)
}
