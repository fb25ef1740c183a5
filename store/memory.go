package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"order-bot/models"
)

type throttleKey struct {
	userID int64
	role   string
}

type throttleRow struct {
	failCount     int
	cooldownUntil *time.Time
}

// Memory is a Store kept in process memory. It is used by tests and by
// single-process development runs; one mutex makes every call atomic.
type Memory struct {
	mu sync.Mutex

	nextOrderID int64
	nextMenuID  int64
	nextItemID  int64

	orders     map[int64]models.Order
	menu       map[int64]models.MenuItem
	users      map[int64]models.User
	cart       map[models.CartKey]int64
	orderItems []models.OrderItem
	organizers map[int64]time.Time
	throttle   map[throttleKey]*throttleRow

	now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		orders:     make(map[int64]models.Order),
		menu:       make(map[int64]models.MenuItem),
		users:      make(map[int64]models.User),
		cart:       make(map[models.CartKey]int64),
		organizers: make(map[int64]time.Time),
		throttle:   make(map[throttleKey]*throttleRow),
		now:        time.Now,
	}
}

// SetClock replaces the time source used for timestamps and login cooldowns.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) CreateOrder(_ context.Context, title string, createdBy int64) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextOrderID++
	o := models.Order{ID: m.nextOrderID, Title: title, CreatedBy: createdBy, CreatedAt: m.now()}
	m.orders[o.ID] = o
	return o, nil
}

func (m *Memory) GetOrder(_ context.Context, id int64) (models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return models.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *Memory) ListOrders(_ context.Context) ([]models.Order, error) {
	return m.filterOrders(func(models.Order) bool { return true }), nil
}

func (m *Memory) ListOrdersByCreator(_ context.Context, createdBy int64) ([]models.Order, error) {
	return m.filterOrders(func(o models.Order) bool { return o.CreatedBy == createdBy }), nil
}

func (m *Memory) filterOrders(keep func(models.Order) bool) []models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) AddMenuItem(_ context.Context, orderID int64, name string, price int64) (models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return models.MenuItem{}, ErrConstraint
	}
	if price < 0 || name == "" {
		return models.MenuItem{}, ErrConstraint
	}
	m.nextMenuID++
	it := models.MenuItem{ID: m.nextMenuID, OrderID: orderID, Name: name, Price: price}
	m.menu[it.ID] = it
	return it, nil
}

func (m *Memory) GetMenuItem(_ context.Context, id int64) (models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.menu[id]
	if !ok {
		return models.MenuItem{}, ErrNotFound
	}
	return it, nil
}

func (m *Memory) ListMenu(_ context.Context, orderID int64) ([]models.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []models.MenuItem
	for _, it := range m.menu {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *Memory) UpsertUser(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) AdjustCartLine(_ context.Context, key models.CartKey, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.menu[key.MenuID]; !ok {
		return 0, ErrConstraint
	}
	if _, ok := m.users[key.UserID]; !ok {
		return 0, ErrConstraint
	}
	qty := m.cart[key] + delta
	if qty <= 0 {
		delete(m.cart, key)
		return 0, nil
	}
	m.cart[key] = qty
	return qty, nil
}

func (m *Memory) CartLines(_ context.Context, userID, orderID int64) ([]models.CartLineView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cartLinesLocked(userID, orderID), nil
}

func (m *Memory) cartLinesLocked(userID, orderID int64) []models.CartLineView {
	var lines []models.CartLineView
	for k, qty := range m.cart {
		if k.UserID != userID || k.OrderID != orderID {
			continue
		}
		it := m.menu[k.MenuID]
		lines = append(lines, models.CartLineView{MenuID: it.ID, Name: it.Name, Price: it.Price, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].MenuID < lines[j].MenuID })
	return lines
}

func (m *Memory) ClearCart(_ context.Context, userID, orderID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.cart {
		if k.UserID == userID && k.OrderID == orderID {
			delete(m.cart, k)
		}
	}
	return nil
}

func (m *Memory) SubmitCart(_ context.Context, userID, orderID int64) ([]models.OrderItem, []models.CartLineView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := m.cartLinesLocked(userID, orderID)
	if len(lines) == 0 {
		return nil, nil, ErrEmptyCart
	}
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		m.nextItemID++
		it := models.OrderItem{
			ID:        m.nextItemID,
			UserID:    userID,
			OrderID:   orderID,
			MenuID:    l.MenuID,
			Quantity:  l.Quantity,
			Status:    models.OrderItemStatusPending,
			CreatedAt: m.now(),
		}
		m.orderItems = append(m.orderItems, it)
		items = append(items, it)
		delete(m.cart, models.CartKey{UserID: userID, OrderID: orderID, MenuID: l.MenuID})
	}
	return items, lines, nil
}

func (m *Memory) OrderCartLines(_ context.Context, orderID int64) ([]models.PricedLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	type row struct {
		userID int64
		line   models.PricedLine
	}
	var rows []row
	for k, qty := range m.cart {
		if k.OrderID != orderID {
			continue
		}
		rows = append(rows, row{userID: k.UserID, line: m.pricedLocked(k.UserID, k.MenuID, qty)})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if c := strings.Compare(a.line.UserName, b.line.UserName); c != 0 {
			return c < 0
		}
		if a.userID != b.userID {
			return a.userID < b.userID
		}
		return a.line.MenuID < b.line.MenuID
	})
	out := make([]models.PricedLine, len(rows))
	for i, r := range rows {
		out[i] = r.line
	}
	return out, nil
}

func (m *Memory) OrderItemLines(_ context.Context, orderID int64) ([]models.PricedLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []models.OrderItem
	for _, it := range m.orderItems {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		an, bn := m.users[a.UserID].FullName, m.users[b.UserID].FullName
		if an != bn {
			return an < bn
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		if a.MenuID != b.MenuID {
			return a.MenuID < b.MenuID
		}
		return a.ID < b.ID
	})
	out := make([]models.PricedLine, len(items))
	for i, it := range items {
		out[i] = m.pricedLocked(it.UserID, it.MenuID, it.Quantity)
	}
	return out, nil
}

func (m *Memory) pricedLocked(userID, menuID, qty int64) models.PricedLine {
	it := m.menu[menuID]
	return models.PricedLine{
		UserName: m.users[userID].FullName,
		MenuID:   menuID,
		ItemName: it.Name,
		Price:    it.Price,
		Quantity: qty,
	}
}

func (m *Memory) IsOrganizer(_ context.Context, tgUserID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.organizers[tgUserID]
	return ok, nil
}

func (m *Memory) AddOrganizer(_ context.Context, tgUserID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.organizers[tgUserID]; !ok {
		m.organizers[tgUserID] = m.now()
	}
	return nil
}

func (m *Memory) LoginWaitSeconds(_ context.Context, tgUserID int64, role string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := m.throttle[throttleKey{tgUserID, role}]
	if row == nil {
		return 0, nil
	}
	return waitSeconds(row.cooldownUntil, m.now()), nil
}

func (m *Memory) RecordLoginFailed(_ context.Context, tgUserID int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := throttleKey{tgUserID, role}
	row := m.throttle[k]
	if row == nil {
		row = &throttleRow{}
		m.throttle[k] = row
	}
	row.failCount++
	until := m.now().Add(time.Duration(CooldownSecondsForFailCount(row.failCount)) * time.Second)
	row.cooldownUntil = &until
	return nil
}

func (m *Memory) RecordLoginSuccess(_ context.Context, tgUserID int64, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttle[throttleKey{tgUserID, role}] = &throttleRow{}
	return nil
}

var _ Store = (*Memory)(nil)
