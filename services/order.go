package services

import (
	"context"
	"strings"

	"order-bot/models"
	"order-bot/store"
)

// Catalog creates and looks up orders, menu items and users. It is the only
// write path for those entities, shared by the conversation flows and the
// direct intents.
type Catalog struct {
	store store.Store
}

func NewCatalog(s store.Store) *Catalog {
	return &Catalog{store: s}
}

func (c *Catalog) CreateOrder(ctx context.Context, actor models.Actor, title string) (models.Order, error) {
	if err := requireOrganizer("create order", actor.IsOrganizer()); err != nil {
		return models.Order{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Order{}, invalid("title cannot be empty")
	}
	o, err := c.store.CreateOrder(ctx, title, actor.ID)
	if err != nil {
		return models.Order{}, storeErr("create order", err)
	}
	return o, nil
}

func (c *Catalog) Order(ctx context.Context, id int64) (models.Order, error) {
	if id <= 0 {
		return models.Order{}, invalid("malformed order id %d", id)
	}
	o, err := c.store.GetOrder(ctx, id)
	if err != nil {
		return models.Order{}, storeErr("get order", err)
	}
	return o, nil
}

func (c *Catalog) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := c.store.ListOrders(ctx)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return orders, nil
}

func (c *Catalog) OrdersCreatedBy(ctx context.Context, actorID int64) ([]models.Order, error) {
	orders, err := c.store.ListOrdersByCreator(ctx, actorID)
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return orders, nil
}
