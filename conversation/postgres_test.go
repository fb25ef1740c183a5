package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStoreOpDeadline(t *testing.T) {
	p := NewPostgresStore(nil, 0)
	ctx, cancel := p.op(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(defaultOpTimeout), deadline, time.Second)
}

// A pool pointed at an address that never answers must not hang the caller.
func TestPostgresStoreFailsFastOnStalledPool(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	pool, err := pgxpool.New(context.Background(), "postgres://u:p@10.255.255.1:5432/none?connect_timeout=30")
	require.NoError(t, err)
	defer pool.Close()

	s := NewPostgresStore(pool, 200*time.Millisecond)
	start := time.Now()
	_, _, err = s.Get(context.Background(), 1, FlowOrderCreation)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
