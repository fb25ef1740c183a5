package services

import (
	"context"
	"strconv"
	"strings"

	"order-bot/models"
)

// ParsePrice accepts a non-negative integer, ignoring spaces used as
// thousands separators ("15 000").
func ParsePrice(s string) (int64, error) {
	price, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(s), " ", ""), 10, 64)
	if err != nil {
		return 0, invalid("price must be a number")
	}
	if price < 0 {
		return 0, invalid("price must be >= 0")
	}
	return price, nil
}

func (c *Catalog) AddMenuItem(ctx context.Context, actor models.Actor, orderID int64, name string, price int64) (models.MenuItem, error) {
	if err := requireOrganizer("add menu item", actor.IsOrganizer()); err != nil {
		return models.MenuItem{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.MenuItem{}, invalid("name is required")
	}
	if price < 0 {
		return models.MenuItem{}, invalid("price must be >= 0")
	}
	if _, err := c.Order(ctx, orderID); err != nil {
		return models.MenuItem{}, err
	}
	item, err := c.store.AddMenuItem(ctx, orderID, name, price)
	if err != nil {
		return models.MenuItem{}, storeErr("add menu item", err)
	}
	return item, nil
}

// Menu returns the order's items ordered by id. An unknown order is ErrNotFound;
// an order without items returns an empty slice.
func (c *Catalog) Menu(ctx context.Context, orderID int64) (models.Order, []models.MenuItem, error) {
	o, err := c.Order(ctx, orderID)
	if err != nil {
		return models.Order{}, nil, err
	}
	items, err := c.store.ListMenu(ctx, orderID)
	if err != nil {
		return models.Order{}, nil, storeErr("list menu", err)
	}
	return o, items, nil
}

// MenuItem returns the item only if it belongs to orderID.
func (c *Catalog) MenuItem(ctx context.Context, orderID, menuID int64) (models.MenuItem, error) {
	if menuID <= 0 {
		return models.MenuItem{}, invalid("malformed menu id %d", menuID)
	}
	item, err := c.store.GetMenuItem(ctx, menuID)
	if err != nil {
		return models.MenuItem{}, storeErr("get menu item", err)
	}
	if item.OrderID != orderID {
		return models.MenuItem{}, notFound("menu item", menuID)
	}
	return item, nil
}
