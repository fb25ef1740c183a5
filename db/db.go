package db

import (
	"context"
	"fmt"
	"time"

	"order-bot/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DSN builds the connection string from config.
func DSN(cfg config.DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

// Open creates the shared pool and checks connectivity. The caller owns the
// pool and passes it to every component that needs it.
func Open(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	return OpenURL(ctx, DSN(cfg), cfg.MaxConns)
}

func OpenURL(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	if maxConns > 0 {
		pcfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}
