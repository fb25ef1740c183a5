package services

import (
	"context"
	"testing"

	"order-bot/models"
	"order-bot/store"

	"github.com/stretchr/testify/require"
)

var (
	organizer   = models.Actor{ID: 1, Role: models.RoleOrganizer}
	participant = models.Actor{ID: 100, Role: models.RoleParticipant, Handle: "ann"}
)

type fixture struct {
	store   *store.Memory
	catalog *Catalog
	carts   *CartEngine
	reports *Reports
	order   models.Order
	menu    []models.MenuItem
}

// newFixture creates an order with the given menu (name -> price, in order).
func newFixture(t *testing.T, names []string, prices []int64) *fixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	f := &fixture{store: s, catalog: NewCatalog(s), carts: NewCartEngine(s, nil), reports: NewReports(s)}
	o, err := f.catalog.CreateOrder(ctx, organizer, "Lunch")
	require.NoError(t, err)
	f.order = o
	for i, n := range names {
		it, err := f.catalog.AddMenuItem(ctx, organizer, o.ID, n, prices[i])
		require.NoError(t, err)
		f.menu = append(f.menu, it)
	}
	return f
}

func (f *fixture) register(t *testing.T, id int64, name string) {
	t.Helper()
	_, err := f.catalog.RegisterName(context.Background(), models.Actor{ID: id, Role: models.RoleParticipant}, name)
	require.NoError(t, err)
}
