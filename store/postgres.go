package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"order-bot/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultOpTimeout = 5 * time.Second

type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgres wraps a pool. Every operation runs under timeout so a stuck
// connection surfaces as context.DeadlineExceeded instead of blocking.
func NewPostgres(pool *pgxpool.Pool, timeout time.Duration) *Postgres {
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	return &Postgres{pool: pool, timeout: timeout}
}

func (p *Postgres) op(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// mapErr translates driver errors into the store taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23503", "23514", "23502":
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
		}
	}
	return err
}

func (p *Postgres) CreateOrder(ctx context.Context, title string, createdBy int64) (models.Order, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	o := models.Order{Title: title, CreatedBy: createdBy}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO orders (title, created_by) VALUES ($1, $2)
		RETURNING id, created_at`,
		title, createdBy,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return models.Order{}, mapErr(err)
	}
	return o, nil
}

func (p *Postgres) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	o := models.Order{ID: id}
	err := p.pool.QueryRow(ctx, `SELECT title, created_by, created_at FROM orders WHERE id = $1`, id).
		Scan(&o.Title, &o.CreatedBy, &o.CreatedAt)
	if err != nil {
		return models.Order{}, mapErr(err)
	}
	return o, nil
}

func (p *Postgres) ListOrders(ctx context.Context) ([]models.Order, error) {
	return p.listOrders(ctx, `SELECT id, title, created_by, created_at FROM orders ORDER BY id`)
}

func (p *Postgres) ListOrdersByCreator(ctx context.Context, createdBy int64) ([]models.Order, error) {
	return p.listOrders(ctx, `
		SELECT id, title, created_by, created_at FROM orders
		WHERE created_by = $1
		ORDER BY id`, createdBy)
}

func (p *Postgres) listOrders(ctx context.Context, sql string, args ...any) ([]models.Order, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Title, &o.CreatedBy, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (p *Postgres) AddMenuItem(ctx context.Context, orderID int64, name string, price int64) (models.MenuItem, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	item := models.MenuItem{OrderID: orderID, Name: name, Price: price}
	err := p.pool.QueryRow(ctx, `
		INSERT INTO menu_items (order_id, name, price) VALUES ($1, $2, $3)
		RETURNING id`,
		orderID, name, price,
	).Scan(&item.ID)
	if err != nil {
		return models.MenuItem{}, mapErr(err)
	}
	return item, nil
}

func (p *Postgres) GetMenuItem(ctx context.Context, id int64) (models.MenuItem, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	item := models.MenuItem{ID: id}
	err := p.pool.QueryRow(ctx, `SELECT order_id, name, price FROM menu_items WHERE id = $1`, id).
		Scan(&item.OrderID, &item.Name, &item.Price)
	if err != nil {
		return models.MenuItem{}, mapErr(err)
	}
	return item, nil
}

func (p *Postgres) ListMenu(ctx context.Context, orderID int64) ([]models.MenuItem, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	rows, err := p.pool.Query(ctx, `
		SELECT id, order_id, name, price FROM menu_items
		WHERE order_id = $1
		ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var it models.MenuItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (p *Postgres) UpsertUser(ctx context.Context, u models.User) (models.User, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO users (id, fullname, handle, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), now())
		ON CONFLICT (id) DO UPDATE SET
			fullname = EXCLUDED.fullname,
			handle = EXCLUDED.handle,
			updated_at = now()`,
		u.ID, u.FullName, u.Handle,
	)
	if err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (models.User, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	u := models.User{ID: id}
	err := p.pool.QueryRow(ctx, `SELECT fullname, COALESCE(handle, '') FROM users WHERE id = $1`, id).
		Scan(&u.FullName, &u.Handle)
	if err != nil {
		return models.User{}, mapErr(err)
	}
	return u, nil
}

// AdjustCartLine is a single upsert-with-clamp; the row lock taken by the upsert
// serializes concurrent adjustments of the same key until commit.
func (p *Postgres) AdjustCartLine(ctx context.Context, key models.CartKey, delta int64) (int64, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	var qty int64
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO cart_lines (user_id, order_id, menu_id, quantity, updated_at)
			VALUES ($1, $2, $3, GREATEST($4::bigint, 0), now())
			ON CONFLICT (user_id, order_id, menu_id) DO UPDATE SET
				quantity = GREATEST(cart_lines.quantity + $4::bigint, 0),
				updated_at = now()
			RETURNING quantity`,
			key.UserID, key.OrderID, key.MenuID, delta,
		).Scan(&qty)
		if err != nil {
			return err
		}
		if qty == 0 {
			_, err = tx.Exec(ctx, `
				DELETE FROM cart_lines
				WHERE user_id = $1 AND order_id = $2 AND menu_id = $3 AND quantity = 0`,
				key.UserID, key.OrderID, key.MenuID,
			)
		}
		return err
	})
	if err != nil {
		return 0, mapErr(err)
	}
	return qty, nil
}

func (p *Postgres) CartLines(ctx context.Context, userID, orderID int64) ([]models.CartLineView, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	rows, err := p.pool.Query(ctx, `
		SELECT m.id, m.name, m.price, c.quantity
		FROM cart_lines c
		JOIN menu_items m ON m.id = c.menu_id
		WHERE c.user_id = $1 AND c.order_id = $2
		ORDER BY m.id`,
		userID, orderID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return collectCartLines(rows)
}

func collectCartLines(rows pgx.Rows) ([]models.CartLineView, error) {
	defer rows.Close()
	var lines []models.CartLineView
	for rows.Next() {
		var l models.CartLineView
		if err := rows.Scan(&l.MenuID, &l.Name, &l.Price, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (p *Postgres) ClearCart(ctx context.Context, userID, orderID int64) error {
	ctx, cancel := p.op(ctx)
	defer cancel()
	_, err := p.pool.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1 AND order_id = $2`, userID, orderID)
	return mapErr(err)
}

// SubmitCart locks the cart rows, copies them to order_items and deletes exactly
// the locked rows. A duplicate submit waits on the locks and then finds nothing.
func (p *Postgres) SubmitCart(ctx context.Context, userID, orderID int64) ([]models.OrderItem, []models.CartLineView, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	var (
		items []models.OrderItem
		lines []models.CartLineView
	)
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT m.id, m.name, m.price, c.quantity
			FROM cart_lines c
			JOIN menu_items m ON m.id = c.menu_id
			WHERE c.user_id = $1 AND c.order_id = $2
			ORDER BY m.id
			FOR UPDATE OF c`,
			userID, orderID,
		)
		if err != nil {
			return err
		}
		lines, err = collectCartLines(rows)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		menuIDs := make([]int64, 0, len(lines))
		for _, l := range lines {
			it := models.OrderItem{
				UserID:   userID,
				OrderID:  orderID,
				MenuID:   l.MenuID,
				Quantity: l.Quantity,
				Status:   models.OrderItemStatusPending,
			}
			err := tx.QueryRow(ctx, `
				INSERT INTO order_items (user_id, order_id, menu_id, quantity, status)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id, created_at`,
				it.UserID, it.OrderID, it.MenuID, it.Quantity, it.Status,
			).Scan(&it.ID, &it.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
			items = append(items, it)
			menuIDs = append(menuIDs, l.MenuID)
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM cart_lines
			WHERE user_id = $1 AND order_id = $2 AND menu_id = ANY($3)`,
			userID, orderID, menuIDs,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrEmptyCart) {
			return nil, nil, ErrEmptyCart
		}
		return nil, nil, mapErr(err)
	}
	return items, lines, nil
}

func (p *Postgres) OrderCartLines(ctx context.Context, orderID int64) ([]models.PricedLine, error) {
	return p.pricedLines(ctx, `
		SELECT u.fullname, m.id, m.name, m.price, c.quantity
		FROM cart_lines c
		JOIN users u ON u.id = c.user_id
		JOIN menu_items m ON m.id = c.menu_id
		WHERE c.order_id = $1
		ORDER BY u.fullname, c.user_id, m.id`, orderID)
}

func (p *Postgres) OrderItemLines(ctx context.Context, orderID int64) ([]models.PricedLine, error) {
	return p.pricedLines(ctx, `
		SELECT u.fullname, m.id, m.name, m.price, oi.quantity
		FROM order_items oi
		JOIN users u ON u.id = oi.user_id
		JOIN menu_items m ON m.id = oi.menu_id
		WHERE oi.order_id = $1
		ORDER BY u.fullname, oi.user_id, m.id, oi.id`, orderID)
}

func (p *Postgres) pricedLines(ctx context.Context, sql string, orderID int64) ([]models.PricedLine, error) {
	ctx, cancel := p.op(ctx)
	defer cancel()
	rows, err := p.pool.Query(ctx, sql, orderID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var lines []models.PricedLine
	for rows.Next() {
		var l models.PricedLine
		if err := rows.Scan(&l.UserName, &l.MenuID, &l.ItemName, &l.Price, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

var _ Store = (*Postgres)(nil)
