package router

import (
	"context"
	"errors"
	"fmt"

	"order-bot/conversation"
	"order-bot/models"
	"order-bot/services"
)

// Response carries whatever the handled intent produced; front-ends render
// the fields that are set.
type Response struct {
	// Flow is set when a conversation step awaits input.
	Flow     *conversation.Session
	Reprompt bool
	Problem  string
	// FlowDone is set when the intent completed a flow of FlowKind.
	FlowDone  bool
	FlowKind  conversation.FlowKind
	Cancelled bool

	Order      *models.Order
	Orders     []models.Order
	Item       *models.MenuItem
	Menu       []models.MenuItem
	User       *models.User
	Quantity   int64
	Cart       *services.Cart
	Submission *services.Submission
	Summary    *services.Summary
	Bill       *services.Bill
	Report     []services.ReportLine
}

// Router maps intents onto the core services. It is built once and shared by
// both front-ends.
type Router struct {
	catalog *services.Catalog
	carts   *services.CartEngine
	reports *services.Reports
	flows   *conversation.Engine
}

func New(catalog *services.Catalog, carts *services.CartEngine, reports *services.Reports, flows *conversation.Engine) *Router {
	return &Router{catalog: catalog, carts: carts, reports: reports, flows: flows}
}

func (r *Router) Dispatch(ctx context.Context, actor models.Actor, intent Intent) (Response, error) {
	if intent == nil {
		return Response{}, fmt.Errorf("%w: no intent", services.ErrInvalidInput)
	}
	if organizerOnly(intent) && !actor.IsOrganizer() {
		return Response{}, fmt.Errorf("%T: %w", intent, services.ErrUnauthorized)
	}

	switch in := intent.(type) {
	case StartOrderCreation:
		return r.startFlow(ctx, actor, conversation.FlowOrderCreation, 0)
	case CreateOrder:
		o, err := r.catalog.CreateOrder(ctx, actor, in.Title)
		return Response{Order: &o}, err
	case StartMenuEntry:
		if _, err := r.catalog.Order(ctx, in.OrderID); err != nil {
			return Response{}, err
		}
		return r.startFlow(ctx, actor, conversation.FlowMenuEntry, in.OrderID)
	case AddMenuItem:
		it, err := r.catalog.AddMenuItem(ctx, actor, in.OrderID, in.Name, in.Price)
		return Response{Item: &it}, err
	case FinishMenuEntry:
		return r.finishMenuEntry(ctx, actor, in.OrderID)
	case ListOrders:
		if in.Mine {
			orders, err := r.catalog.OrdersCreatedBy(ctx, actor.ID)
			return Response{Orders: orders}, err
		}
		orders, err := r.catalog.ListOrders(ctx)
		return Response{Orders: orders}, err
	case ViewOrder:
		o, menu, err := r.catalog.Menu(ctx, in.OrderID)
		return Response{Order: &o, Menu: menu}, err
	case ViewSummary:
		o, s, err := r.reports.CartSummary(ctx, in.OrderID)
		return Response{Order: &o, Summary: &s}, err
	case ViewBill:
		o, b, err := r.reports.CartBill(ctx, in.OrderID)
		return Response{Order: &o, Bill: &b}, err
	case ViewSubmittedBill:
		o, b, err := r.reports.SubmittedBill(ctx, in.OrderID)
		return Response{Order: &o, Bill: &b}, err
	case ExportReport:
		o, lines, err := r.reports.FinalizedReport(ctx, in.OrderID)
		return Response{Order: &o, Report: lines}, err

	case JoinOrder:
		return r.join(ctx, actor, in.OrderID)
	case ChangeName:
		return r.startFlow(ctx, actor, conversation.FlowNameRegistration, 0)
	case RegisterName:
		u, err := r.catalog.RegisterName(ctx, actor, in.Name)
		return Response{User: &u}, err
	case ViewMenu:
		return r.menu(ctx, actor, in.OrderID)
	case ViewItem:
		return r.item(ctx, actor, in.OrderID, in.MenuID)
	case AdjustCart:
		if in.Delta != 1 && in.Delta != -1 {
			return Response{}, fmt.Errorf("%w: delta must be +1 or -1", services.ErrInvalidInput)
		}
		if _, err := r.carts.AdjustQuantity(ctx, actor.ID, in.OrderID, in.MenuID, in.Delta); err != nil {
			return Response{}, err
		}
		return r.item(ctx, actor, in.OrderID, in.MenuID)
	case ViewCart:
		o, err := r.catalog.Order(ctx, in.OrderID)
		if err != nil {
			return Response{}, err
		}
		c, err := r.carts.GetCart(ctx, actor.ID, in.OrderID)
		return Response{Order: &o, Cart: &c}, err
	case SubmitCart:
		s, err := r.carts.Submit(ctx, actor.ID, in.OrderID)
		if err != nil {
			return Response{}, err
		}
		return Response{Order: &s.Order, Submission: &s}, nil

	case Text:
		return r.text(ctx, actor, in.Input)
	case Cancel:
		had, err := r.flows.Cancel(ctx, actor)
		return Response{Cancelled: had}, err
	}
	return Response{}, fmt.Errorf("%w: unhandled intent %T", services.ErrInvalidInput, intent)
}

func (r *Router) startFlow(ctx context.Context, actor models.Actor, kind conversation.FlowKind, orderID int64) (Response, error) {
	s, err := r.flows.Start(ctx, actor, kind, orderID)
	if err != nil {
		return Response{}, err
	}
	return Response{Flow: &s}, nil
}

func (r *Router) finishMenuEntry(ctx context.Context, actor models.Actor, orderID int64) (Response, error) {
	s, ok, err := r.flows.Finish(ctx, actor, conversation.FlowMenuEntry)
	if err != nil {
		return Response{}, err
	}
	if ok && orderID == 0 {
		orderID = s.OrderID
	}
	if orderID == 0 {
		return Response{}, services.ErrNoActiveFlow
	}
	o, menu, err := r.catalog.Menu(ctx, orderID)
	return Response{FlowDone: ok, FlowKind: conversation.FlowMenuEntry, Order: &o, Menu: menu}, err
}

// join opens the order for a registered participant, otherwise asks for a
// name first and opens the order once it is given.
func (r *Router) join(ctx context.Context, actor models.Actor, orderID int64) (Response, error) {
	if _, err := r.catalog.Order(ctx, orderID); err != nil {
		return Response{}, err
	}
	_, err := r.catalog.User(ctx, actor.ID)
	if errors.Is(err, services.ErrNotFound) {
		return r.startFlow(ctx, actor, conversation.FlowNameRegistration, orderID)
	}
	if err != nil {
		return Response{}, err
	}
	return r.menu(ctx, actor, orderID)
}

func (r *Router) menu(ctx context.Context, actor models.Actor, orderID int64) (Response, error) {
	o, items, err := r.catalog.Menu(ctx, orderID)
	if err != nil {
		return Response{}, err
	}
	c, err := r.carts.GetCart(ctx, actor.ID, orderID)
	if err != nil {
		return Response{}, err
	}
	return Response{Order: &o, Menu: items, Cart: &c}, nil
}

func (r *Router) item(ctx context.Context, actor models.Actor, orderID, menuID int64) (Response, error) {
	o, err := r.catalog.Order(ctx, orderID)
	if err != nil {
		return Response{}, err
	}
	it, err := r.catalog.MenuItem(ctx, orderID, menuID)
	if err != nil {
		return Response{}, err
	}
	c, err := r.carts.GetCart(ctx, actor.ID, orderID)
	if err != nil {
		return Response{}, err
	}
	return Response{Order: &o, Item: &it, Quantity: c.Quantity(menuID)}, nil
}

func (r *Router) text(ctx context.Context, actor models.Actor, input string) (Response, error) {
	res, err := r.flows.Handle(ctx, actor, input)
	if err != nil {
		return Response{}, err
	}
	resp := Response{Reprompt: res.Reprompt, Problem: res.Problem, FlowKind: res.Session.Kind, Order: res.Order, Item: res.Item, User: res.User}
	if !res.Session.Done() {
		s := res.Session
		resp.Flow = &s
		return resp, nil
	}
	resp.FlowDone = true
	switch {
	case res.User != nil && res.Session.OrderID > 0:
		// registration started from an invite link: open that order
		m, err := r.menu(ctx, actor, res.Session.OrderID)
		if err != nil {
			return resp, err
		}
		m.FlowDone, m.FlowKind, m.User = true, res.Session.Kind, res.User
		return m, nil
	case res.Session.Kind == conversation.FlowMenuEntry:
		o, menu, err := r.catalog.Menu(ctx, res.Session.OrderID)
		if err != nil {
			return resp, err
		}
		resp.Order, resp.Menu = &o, menu
	}
	return resp, nil
}
