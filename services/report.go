package services

import (
	"context"
	"sort"

	"order-bot/models"
	"order-bot/store"
)

// ItemQuantity is one item name with a summed quantity.
type ItemQuantity struct {
	Name     string
	Quantity int64
}

type UserItems struct {
	Name  string
	Items []ItemQuantity
}

// Summary groups quantities by participant display name. Participants sharing
// a display name are merged under one heading.
type Summary struct {
	Users  []UserItems
	Totals []ItemQuantity
}

// Quantity returns the summed quantity of item for user, 0 when absent.
func (s Summary) Quantity(user, item string) int64 {
	for _, u := range s.Users {
		if u.Name != user {
			continue
		}
		for _, it := range u.Items {
			if it.Name == item {
				return it.Quantity
			}
		}
	}
	return 0
}

type ItemAmount struct {
	Name     string
	Quantity int64
	Amount   int64
}

type UserBill struct {
	Name     string
	Items    []ItemAmount
	Subtotal int64
}

type Bill struct {
	Users      []UserBill
	Totals     []ItemAmount
	GrandTotal int64
}

// Item returns the user's line for item.
func (b Bill) Item(user, item string) (ItemAmount, bool) {
	for _, u := range b.Users {
		if u.Name != user {
			continue
		}
		for _, it := range u.Items {
			if it.Name == item {
				return it, true
			}
		}
	}
	return ItemAmount{}, false
}

// ReportLine is one row of the finalized report.
type ReportLine struct {
	MenuID   int64
	Name     string
	Quantity int64
	Amount   int64
}

// groupIndex keeps first-seen order for a keyed slice.
type groupIndex[K comparable] map[K]int

func (g groupIndex[K]) slot(k K, n int) (int, bool) {
	if i, ok := g[k]; ok {
		return i, false
	}
	g[k] = n
	return n, true
}

// BillOf aggregates priced lines per display name and per item. Amounts are
// exact integer products; GrandTotal equals the sum of every line's
// quantity×price.
func BillOf(lines []models.PricedLine) Bill {
	var b Bill
	users := groupIndex[string]{}
	userItems := map[string]groupIndex[string]{}
	totals := groupIndex[string]{}
	for _, l := range lines {
		amount := l.Quantity * l.Price
		ui, isNew := users.slot(l.UserName, len(b.Users))
		if isNew {
			b.Users = append(b.Users, UserBill{Name: l.UserName})
			userItems[l.UserName] = groupIndex[string]{}
		}
		u := &b.Users[ui]
		ii, isNew := userItems[l.UserName].slot(l.ItemName, len(u.Items))
		if isNew {
			u.Items = append(u.Items, ItemAmount{Name: l.ItemName})
		}
		u.Items[ii].Quantity += l.Quantity
		u.Items[ii].Amount += amount
		u.Subtotal += amount

		ti, isNew := totals.slot(l.ItemName, len(b.Totals))
		if isNew {
			b.Totals = append(b.Totals, ItemAmount{Name: l.ItemName})
		}
		b.Totals[ti].Quantity += l.Quantity
		b.Totals[ti].Amount += amount
		b.GrandTotal += amount
	}
	return b
}

// Summarize is BillOf without amounts, so both always agree on quantities.
func Summarize(lines []models.PricedLine) Summary {
	b := BillOf(lines)
	s := Summary{Users: make([]UserItems, len(b.Users)), Totals: quantities(b.Totals)}
	for i, u := range b.Users {
		s.Users[i] = UserItems{Name: u.Name, Items: quantities(u.Items)}
	}
	return s
}

func quantities(items []ItemAmount) []ItemQuantity {
	out := make([]ItemQuantity, len(items))
	for i, it := range items {
		out[i] = ItemQuantity{Name: it.Name, Quantity: it.Quantity}
	}
	return out
}

// Finalize groups lines by menu item, ordered by menu id.
func Finalize(lines []models.PricedLine) []ReportLine {
	byMenu := map[int64]*ReportLine{}
	for _, l := range lines {
		r, ok := byMenu[l.MenuID]
		if !ok {
			r = &ReportLine{MenuID: l.MenuID, Name: l.ItemName}
			byMenu[l.MenuID] = r
		}
		r.Quantity += l.Quantity
		r.Amount += l.Quantity * l.Price
	}
	out := make([]ReportLine, 0, len(byMenu))
	for _, r := range byMenu {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out
}

// ReportTotal sums a finalized report.
func ReportTotal(lines []ReportLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Amount
	}
	return total
}

// Reports is the read side for organizers. Cart reports cover in-progress
// selections; submitted and finalized reports cover order items.
type Reports struct {
	store store.Store
}

func NewReports(s store.Store) *Reports {
	return &Reports{store: s}
}

func (r *Reports) CartSummary(ctx context.Context, orderID int64) (models.Order, Summary, error) {
	o, lines, err := r.lines(ctx, orderID, r.store.OrderCartLines)
	if err != nil {
		return o, Summary{}, err
	}
	return o, Summarize(lines), nil
}

func (r *Reports) CartBill(ctx context.Context, orderID int64) (models.Order, Bill, error) {
	o, lines, err := r.lines(ctx, orderID, r.store.OrderCartLines)
	if err != nil {
		return o, Bill{}, err
	}
	return o, BillOf(lines), nil
}

func (r *Reports) SubmittedBill(ctx context.Context, orderID int64) (models.Order, Bill, error) {
	o, lines, err := r.lines(ctx, orderID, r.store.OrderItemLines)
	if err != nil {
		return o, Bill{}, err
	}
	return o, BillOf(lines), nil
}

func (r *Reports) FinalizedReport(ctx context.Context, orderID int64) (models.Order, []ReportLine, error) {
	o, lines, err := r.lines(ctx, orderID, r.store.OrderItemLines)
	if err != nil {
		return o, nil, err
	}
	return o, Finalize(lines), nil
}

func (r *Reports) lines(ctx context.Context, orderID int64, read func(context.Context, int64) ([]models.PricedLine, error)) (models.Order, []models.PricedLine, error) {
	if orderID <= 0 {
		return models.Order{}, nil, invalid("malformed order id %d", orderID)
	}
	o, err := r.store.GetOrder(ctx, orderID)
	if err != nil {
		return models.Order{}, nil, storeErr("get order", err)
	}
	lines, err := read(ctx, orderID)
	if err != nil {
		return o, nil, storeErr("report", err)
	}
	if len(lines) == 0 {
		return o, nil, ErrEmptyCart
	}
	return o, lines, nil
}
