package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	ThrottleRoleOrganizer      = "organizer"
	ThrottleCooldownCapSeconds = 30
)

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds || s <= 0 {
		return ThrottleCooldownCapSeconds
	}
	return s
}

func (p *Postgres) IsOrganizer(ctx context.Context, tgUserID int64) (bool, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	var one int
	err := p.pool.QueryRow(ctx, `SELECT 1 FROM organizers WHERE tg_user_id = $1`, tgUserID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *Postgres) AddOrganizer(ctx context.Context, tgUserID int64) error {
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO organizers (tg_user_id, granted_at) VALUES ($1, now())
		ON CONFLICT (tg_user_id) DO NOTHING`,
		tgUserID,
	)
	return mapErr(err)
}

// LoginWaitSeconds returns how many seconds the user must wait before trying again (0 if no cooldown).
func (p *Postgres) LoginWaitSeconds(ctx context.Context, tgUserID int64, role string) (int, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	var cooldownUntil *time.Time
	err := p.pool.QueryRow(ctx, `
		SELECT cooldown_until FROM login_throttle WHERE tg_user_id = $1 AND role = $2`,
		tgUserID, role,
	).Scan(&cooldownUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return waitSeconds(cooldownUntil, time.Now()), nil
}

func waitSeconds(cooldownUntil *time.Time, now time.Time) int {
	if cooldownUntil == nil || !now.Before(*cooldownUntil) {
		return 0
	}
	return int(math.Ceil(cooldownUntil.Sub(now).Seconds()))
}

// RecordLoginFailed increments fail_count and sets cooldown_until = now() + min(30, 2^fail_count) seconds.
func (p *Postgres) RecordLoginFailed(ctx context.Context, tgUserID int64, role string) error {
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO login_throttle (tg_user_id, role, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, $2, 1, now(), now() + interval '2 seconds', now())
		ON CONFLICT (tg_user_id, role) DO UPDATE SET
			fail_count = login_throttle.fail_count + 1,
			last_failed_at = now(),
			cooldown_until = now() + (LEAST(30, POWER(2, LEAST(login_throttle.fail_count + 1, 10))::int) || ' seconds')::interval,
			updated_at = now()`,
		tgUserID, role,
	)
	return mapErr(err)
}

// RecordLoginSuccess resets fail_count and cooldown_until for the user/role.
func (p *Postgres) RecordLoginSuccess(ctx context.Context, tgUserID int64, role string) error {
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO login_throttle (tg_user_id, role, fail_count, last_failed_at, cooldown_until, updated_at)
		VALUES ($1, $2, 0, NULL, NULL, now())
		ON CONFLICT (tg_user_id, role) DO UPDATE SET
			fail_count = 0,
			last_failed_at = NULL,
			cooldown_until = NULL,
			updated_at = now()`,
		tgUserID, role,
	)
	return mapErr(err)
}
