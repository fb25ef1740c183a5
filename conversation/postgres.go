package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultOpTimeout = 5 * time.Second

// PostgresStore keeps sessions in conversation_sessions. Expired rows are
// ignored by Get and removed by DeleteExpired.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresStore bounds every statement by timeout (defaultOpTimeout when <= 0).
func NewPostgresStore(pool *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &PostgresStore{pool: pool, timeout: timeout}
}

func (p *PostgresStore) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

func (p *PostgresStore) Get(ctx context.Context, actorID int64, kind FlowKind) (Session, bool, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	var payload []byte
	err := p.pool.QueryRow(ctx, `
		SELECT payload FROM conversation_sessions
		WHERE actor_id = $1 AND flow_kind = $2 AND expires_at > now()`,
		actorID, string(kind),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return s, true, nil
}

func (p *PostgresStore) Put(ctx context.Context, s Session, ttl time.Duration) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err = p.pool.Exec(ctx, `
		INSERT INTO conversation_sessions (actor_id, flow_kind, payload, expires_at)
		VALUES ($1, $2, $3, now() + $4 * interval '1 millisecond')
		ON CONFLICT (actor_id, flow_kind) DO UPDATE SET
			payload = EXCLUDED.payload,
			expires_at = EXCLUDED.expires_at`,
		s.ActorID, string(s.Kind), payload, ttl.Milliseconds(),
	)
	return err
}

func (p *PostgresStore) Delete(ctx context.Context, actorID int64, kind FlowKind) error {
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `DELETE FROM conversation_sessions WHERE actor_id = $1 AND flow_kind = $2`, actorID, string(kind))
	return err
}

func (p *PostgresStore) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	tag, err := p.pool.Exec(ctx, `DELETE FROM conversation_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
