package store

import (
	"context"
	"errors"

	"order-bot/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrConstraint = errors.New("constraint violation")
	ErrEmptyCart  = errors.New("cart is empty")
)

// Store is the single source of truth shared by both front-ends.
// Every write is atomic; every read is one consistent snapshot.
type Store interface {
	CreateOrder(ctx context.Context, title string, createdBy int64) (models.Order, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByCreator(ctx context.Context, createdBy int64) ([]models.Order, error)

	AddMenuItem(ctx context.Context, orderID int64, name string, price int64) (models.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error)
	ListMenu(ctx context.Context, orderID int64) ([]models.MenuItem, error)

	UpsertUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)

	// AdjustCartLine applies delta to the line and clamps at zero; a line reaching
	// zero is removed. Returns the resulting quantity.
	AdjustCartLine(ctx context.Context, key models.CartKey, delta int64) (int64, error)
	CartLines(ctx context.Context, userID, orderID int64) ([]models.CartLineView, error)
	ClearCart(ctx context.Context, userID, orderID int64) error
	// SubmitCart moves the cart into order_items and clears it in one transaction.
	// Returns ErrEmptyCart when there is nothing to submit.
	SubmitCart(ctx context.Context, userID, orderID int64) ([]models.OrderItem, []models.CartLineView, error)

	OrderCartLines(ctx context.Context, orderID int64) ([]models.PricedLine, error)
	OrderItemLines(ctx context.Context, orderID int64) ([]models.PricedLine, error)

	OrganizerStore
}

// OrganizerStore holds organizer grants and login throttling.
type OrganizerStore interface {
	IsOrganizer(ctx context.Context, tgUserID int64) (bool, error)
	AddOrganizer(ctx context.Context, tgUserID int64) error
	LoginWaitSeconds(ctx context.Context, tgUserID int64, role string) (int, error)
	RecordLoginFailed(ctx context.Context, tgUserID int64, role string) error
	RecordLoginSuccess(ctx context.Context, tgUserID int64, role string) error
}
