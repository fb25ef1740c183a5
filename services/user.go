package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"order-bot/models"
)

// MaxNameLength bounds display names shown in reports.
const MaxNameLength = 64

// RegisterName sets (or replaces) the actor's display name. Reports group
// participants by this name.
func (c *Catalog) RegisterName(ctx context.Context, actor models.Actor, name string) (models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.User{}, invalid("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return models.User{}, invalid("name is longer than %d characters", MaxNameLength)
	}
	u, err := c.store.UpsertUser(ctx, models.User{ID: actor.ID, FullName: name, Handle: actor.Handle})
	if err != nil {
		return models.User{}, storeErr("register name", err)
	}
	return u, nil
}

// User returns the registered participant or ErrNotFound.
func (c *Catalog) User(ctx context.Context, id int64) (models.User, error) {
	u, err := c.store.GetUser(ctx, id)
	if err != nil {
		return models.User{}, storeErr("get user", err)
	}
	return u, nil
}
