package models

import "time"

// Order is one organizer-created event with its own menu.
type Order struct {
	ID        int64
	Title     string
	CreatedBy int64
	CreatedAt time.Time
}

// MenuItem is a priced entry of an order's menu. Price is in the smallest currency unit.
type MenuItem struct {
	ID      int64
	OrderID int64
	Name    string
	Price   int64
}

// User is a participant, keyed by the chat actor id.
type User struct {
	ID       int64
	FullName string
	Handle   string
}

// CartKey identifies one cart line.
type CartKey struct {
	UserID  int64
	OrderID int64
	MenuID  int64
}

// CartLineView is a cart line joined with its menu item.
type CartLineView struct {
	MenuID   int64
	Name     string
	Price    int64
	Quantity int64
}

func (l CartLineView) LineTotal() int64 {
	return l.Price * l.Quantity
}

const (
	OrderItemStatusPending = "pending"
)

// OrderItem is a finalized (submitted) line.
type OrderItem struct {
	ID        int64
	UserID    int64
	OrderID   int64
	MenuID    int64
	Quantity  int64
	Status    string
	CreatedAt time.Time
}

// PricedLine is the flat row the report aggregation works on: one cart line or order item
// with the owner's display name and the menu item's name and price.
type PricedLine struct {
	UserName string
	MenuID   int64
	ItemName string
	Price    int64
	Quantity int64
}
