package services

import (
	"context"
	"log"

	"order-bot/models"
	"order-bot/store"
)

// Cart is one participant's in-progress selection for an order.
type Cart struct {
	OrderID int64
	Lines   []models.CartLineView
	Total   int64
}

func (c Cart) Empty() bool { return len(c.Lines) == 0 }

// Quantity returns the current quantity for menuID, 0 when absent.
func (c Cart) Quantity(menuID int64) int64 {
	for _, l := range c.Lines {
		if l.MenuID == menuID {
			return l.Quantity
		}
	}
	return 0
}

func newCart(orderID int64, lines []models.CartLineView) Cart {
	c := Cart{OrderID: orderID, Lines: lines}
	for _, l := range lines {
		c.Total += l.LineTotal()
	}
	return c
}

// Submission is the result of a successful submit.
type Submission struct {
	Order models.Order
	User  models.User
	Items []models.OrderItem
	Lines []models.CartLineView
	Total int64
}

// SubmissionNotifier is told about every successful submit. Failures are
// logged and never undo the submit.
type SubmissionNotifier interface {
	CartSubmitted(ctx context.Context, s Submission) error
}

type nopNotifier struct{}

func (nopNotifier) CartSubmitted(context.Context, Submission) error { return nil }

// CartEngine owns participant carts.
type CartEngine struct {
	store    store.Store
	notifier SubmissionNotifier
}

// NewCartEngine; n may be nil.
func NewCartEngine(s store.Store, n SubmissionNotifier) *CartEngine {
	if n == nil {
		n = nopNotifier{}
	}
	return &CartEngine{store: s, notifier: n}
}

// AdjustQuantity applies delta to the (user, order, menu item) line and
// returns the resulting quantity, never below zero. The read-modify-write is
// a single store transaction so concurrent taps on one key do not lose updates.
func (e *CartEngine) AdjustQuantity(ctx context.Context, userID, orderID, menuID, delta int64) (int64, error) {
	if delta == 0 {
		return 0, invalid("delta must be non-zero")
	}
	if err := e.checkMember(ctx, userID, orderID); err != nil {
		return 0, err
	}
	item, err := e.store.GetMenuItem(ctx, menuID)
	if err != nil {
		return 0, storeErr("adjust quantity", err)
	}
	if item.OrderID != orderID {
		return 0, notFound("menu item", menuID)
	}
	qty, err := e.store.AdjustCartLine(ctx, models.CartKey{UserID: userID, OrderID: orderID, MenuID: menuID}, delta)
	if err != nil {
		return 0, storeErr("adjust quantity", err)
	}
	return qty, nil
}

// GetCart returns the lines ordered by menu id. An empty cart is a valid
// result; an unknown order is ErrNotFound.
func (e *CartEngine) GetCart(ctx context.Context, userID, orderID int64) (Cart, error) {
	if _, err := e.order(ctx, orderID); err != nil {
		return Cart{}, err
	}
	lines, err := e.store.CartLines(ctx, userID, orderID)
	if err != nil {
		return Cart{}, storeErr("get cart", err)
	}
	return newCart(orderID, lines), nil
}

func (e *CartEngine) ClearCart(ctx context.Context, userID, orderID int64) error {
	if _, err := e.order(ctx, orderID); err != nil {
		return err
	}
	if err := e.store.ClearCart(ctx, userID, orderID); err != nil {
		return storeErr("clear cart", err)
	}
	return nil
}

// Submit snapshots the cart into pending order items and clears it in one
// transaction. A repeated submit finds the cart empty and fails with ErrEmptyCart.
func (e *CartEngine) Submit(ctx context.Context, userID, orderID int64) (Submission, error) {
	o, err := e.order(ctx, orderID)
	if err != nil {
		return Submission{}, err
	}
	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return Submission{}, storeErr("submit", err)
	}
	items, lines, err := e.store.SubmitCart(ctx, userID, orderID)
	if err != nil {
		return Submission{}, storeErr("submit", err)
	}
	sub := Submission{Order: o, User: u, Items: items, Lines: lines, Total: newCart(orderID, lines).Total}
	if err := e.notifier.CartSubmitted(ctx, sub); err != nil {
		log.Printf("submit notify order=%d user=%d: %v", orderID, userID, err)
	}
	return sub, nil
}

func (e *CartEngine) order(ctx context.Context, orderID int64) (models.Order, error) {
	if orderID <= 0 {
		return models.Order{}, invalid("malformed order id %d", orderID)
	}
	o, err := e.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, storeErr("get order", err)
	}
	return o, nil
}

// checkMember requires an existing order and a registered participant.
func (e *CartEngine) checkMember(ctx context.Context, userID, orderID int64) error {
	if _, err := e.order(ctx, orderID); err != nil {
		return err
	}
	if _, err := e.store.GetUser(ctx, userID); err != nil {
		return storeErr("get user", err)
	}
	return nil
}
