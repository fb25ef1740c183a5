package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"order-bot/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	o, err := f.catalog.CreateOrder(ctx, organizer, "  Friday lunch ")
	require.NoError(t, err)
	assert.Equal(t, "Friday lunch", o.Title)
	assert.Equal(t, organizer.ID, o.CreatedBy)

	_, err = f.catalog.CreateOrder(ctx, organizer, "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.catalog.CreateOrder(ctx, participant, "Sneaky")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.catalog.CreateOrder(ctx, models.Actor{ID: 5}, "No role")
	assert.ErrorIs(t, err, ErrUnauthorized)

	mine, err := f.catalog.OrdersCreatedBy(ctx, organizer.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestAddMenuItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	tests := []struct {
		name    string
		actor   models.Actor
		orderID int64
		item    string
		price   int64
		wantErr error
	}{
		{"ok", organizer, f.order.ID, "Pizza", 200, nil},
		{"free item", organizer, f.order.ID, "Bread", 0, nil},
		{"blank name", organizer, f.order.ID, " ", 10, ErrInvalidInput},
		{"negative price", organizer, f.order.ID, "Soup", -1, ErrInvalidInput},
		{"unknown order", organizer, 42, "Soup", 10, ErrNotFound},
		{"participant", participant, f.order.ID, "Soup", 10, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.catalog.AddMenuItem(ctx, tt.actor, tt.orderID, tt.item, tt.price)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	_, items, err := f.catalog.Menu(ctx, f.order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Pizza", items[0].Name)

	_, err = f.catalog.MenuItem(ctx, f.order.ID+1, items[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"200", 200, false},
		{" 15 000 ", 15000, false},
		{"0", 0, false},
		{"-5", 0, true},
		{"12.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidInput, "ParsePrice(%q)", tt.in)
			continue
		}
		require.NoError(t, err, "ParsePrice(%q)", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRegisterName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil, nil)

	u, err := f.catalog.RegisterName(ctx, participant, " Ann ")
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.FullName)
	assert.Equal(t, "ann", u.Handle)

	u, err = f.catalog.RegisterName(ctx, participant, "Annie")
	require.NoError(t, err)
	got, err := f.catalog.User(ctx, participant.ID)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	_, err = f.catalog.RegisterName(ctx, participant, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.catalog.User(ctx, 4242)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", errors.Join(errors.New("get order"), context.DeadlineExceeded), true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"connection", &pgconn.PgError{Code: "08006"}, true},
		{"unique", &pgconn.PgError{Code: "23505"}, false},
		{"not found", ErrNotFound, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsTransient(tt.err), tt.name)
	}
}

func TestSafeToRetry(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"wrapped deadlock", fmt.Errorf("adjust quantity: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"connection", &pgconn.PgError{Code: "08006"}, false},
		{"not found", ErrNotFound, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeToRetry(tt.err), tt.name)
	}
}

func TestCheckPassword(t *testing.T) {
	plain, hash, err := NewOrganizerPassword()
	require.NoError(t, err)
	assert.Len(t, plain, organizerPasswordLen)
	assert.True(t, CheckPassword(hash, plain))
	assert.False(t, CheckPassword(hash, plain+"x"))
	assert.False(t, CheckPassword("", plain))
}
