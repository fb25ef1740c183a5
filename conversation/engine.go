package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"order-bot/models"
	"order-bot/services"
)

const DefaultTTL = 30 * time.Minute

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Effects applies the actions produced by Advance. services.Catalog implements it.
type Effects interface {
	CreateOrder(ctx context.Context, actor models.Actor, title string) (models.Order, error)
	AddMenuItem(ctx context.Context, actor models.Actor, orderID int64, name string, price int64) (models.MenuItem, error)
	RegisterName(ctx context.Context, actor models.Actor, name string) (models.User, error)
}

// SessionStore persists sessions keyed by (actor, flow kind). Get reports
// ok=false for a missing or expired session.
type SessionStore interface {
	Get(ctx context.Context, actorID int64, kind FlowKind) (s Session, ok bool, err error)
	Put(ctx context.Context, s Session, ttl time.Duration) error
	Delete(ctx context.Context, actorID int64, kind FlowKind) error
}

// Result describes what a Handle call did.
type Result struct {
	Session Session
	// Reprompt is set when the input was rejected; Session is unchanged.
	Reprompt bool
	Problem  string

	Order *models.Order
	Item  *models.MenuItem
	User  *models.User
}

type Engine struct {
	sessions SessionStore
	effects  Effects
	ttl      time.Duration
	now      func() time.Time
}

func NewEngine(sessions SessionStore, effects Effects, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{sessions: sessions, effects: effects, ttl: ttl, now: time.Now}
}

func flowsFor(actor models.Actor) []FlowKind {
	if actor.IsOrganizer() {
		return organizerFlows
	}
	return participantFlows
}

// Start begins kind for actor, replacing any flow the actor had on the same
// front-end. orderID is required for menu entry and optional for name registration.
func (e *Engine) Start(ctx context.Context, actor models.Actor, kind FlowKind, orderID int64) (Session, error) {
	if !kind.valid() {
		return Session{}, invalidf("unknown flow %q", kind)
	}
	if kind != FlowNameRegistration && !actor.IsOrganizer() {
		return Session{}, fmt.Errorf("start %s: %w", kind, services.ErrUnauthorized)
	}
	if kind == FlowMenuEntry && orderID <= 0 {
		return Session{}, invalidf("menu entry needs an order")
	}
	if _, err := e.Cancel(ctx, actor); err != nil {
		return Session{}, err
	}
	s := Session{ActorID: actor.ID, Kind: kind, Step: firstStep(kind), OrderID: orderID, UpdatedAt: e.now()}
	if err := e.sessions.Put(ctx, s, e.ttl); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}
	return s, nil
}

// Active returns the actor's flow in progress, if any.
func (e *Engine) Active(ctx context.Context, actor models.Actor) (Session, bool, error) {
	for _, kind := range flowsFor(actor) {
		s, ok, err := e.sessions.Get(ctx, actor.ID, kind)
		if err != nil {
			return Session{}, false, fmt.Errorf("load session: %w", err)
		}
		if ok {
			return s, true, nil
		}
	}
	return Session{}, false, nil
}

// Handle feeds free text into the active flow. Invalid input, including
// invalid input rejected by the effect, keeps the flow where it was and sets
// Reprompt.
//
// The advanced session is saved before the effect runs, so a failed save
// leaves nothing applied and the same input can be sent again. When the effect
// fails the previous step is restored and the effect error is returned.
func (e *Engine) Handle(ctx context.Context, actor models.Actor, input string) (Result, error) {
	cur, ok, err := e.Active(ctx, actor)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, services.ErrNoActiveFlow
	}
	next, action, err := Advance(cur, input)
	if errors.Is(err, services.ErrInvalidInput) {
		return e.reprompt(ctx, cur, err)
	}
	if err != nil {
		return Result{}, err
	}

	if next.Done() {
		err = e.sessions.Delete(ctx, actor.ID, next.Kind)
	} else {
		next.UpdatedAt = e.now()
		err = e.sessions.Put(ctx, next, e.ttl)
	}
	if err != nil {
		return Result{Session: cur}, fmt.Errorf("save session: %w", err)
	}

	res := Result{Session: next}
	switch action.Kind {
	case ActionCreateOrder:
		o, err := e.effects.CreateOrder(ctx, actor, action.Title)
		if err != nil {
			return e.effectFailed(ctx, cur, err)
		}
		res.Order = &o
	case ActionAddMenuItem:
		it, err := e.effects.AddMenuItem(ctx, actor, action.OrderID, action.Name, action.Price)
		if err != nil {
			return e.effectFailed(ctx, cur, err)
		}
		res.Item = &it
	case ActionRegisterName:
		u, err := e.effects.RegisterName(ctx, actor, action.Name)
		if err != nil {
			return e.effectFailed(ctx, cur, err)
		}
		res.User = &u
	}
	return res, nil
}

func (e *Engine) reprompt(ctx context.Context, cur Session, cause error) (Result, error) {
	// refresh the TTL; the user is still engaged
	cur.UpdatedAt = e.now()
	if err := e.sessions.Put(ctx, cur, e.ttl); err != nil {
		return Result{}, fmt.Errorf("save session: %w", err)
	}
	return Result{Session: cur, Reprompt: true, Problem: problem(cause)}, nil
}

// effectFailed puts cur back after the advanced session was saved.
func (e *Engine) effectFailed(ctx context.Context, cur Session, err error) (Result, error) {
	if errors.Is(err, services.ErrInvalidInput) {
		return e.reprompt(ctx, cur, err)
	}
	cur.UpdatedAt = e.now()
	if perr := e.sessions.Put(ctx, cur, e.ttl); perr != nil {
		log.Printf("conversation: restore %s session of %d: %v", cur.Kind, cur.ActorID, perr)
	}
	return Result{Session: cur}, err
}

// problem strips the taxonomy prefix for display.
func problem(err error) string {
	msg := err.Error()
	prefix := services.ErrInvalidInput.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

// Finish ends kind for actor as if the flow completed. Finishing a flow that
// is not running is not an error.
func (e *Engine) Finish(ctx context.Context, actor models.Actor, kind FlowKind) (Session, bool, error) {
	s, ok, err := e.sessions.Get(ctx, actor.ID, kind)
	if err != nil {
		return Session{}, false, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return Session{}, false, nil
	}
	if err := e.sessions.Delete(ctx, actor.ID, kind); err != nil {
		return Session{}, false, fmt.Errorf("delete session: %w", err)
	}
	s.Step = StepDone
	return s, true, nil
}

// Cancel drops every flow of the actor's front-end and reports whether one was running.
func (e *Engine) Cancel(ctx context.Context, actor models.Actor) (bool, error) {
	var had bool
	for _, kind := range flowsFor(actor) {
		_, ok, err := e.sessions.Get(ctx, actor.ID, kind)
		if err != nil {
			return false, fmt.Errorf("load session: %w", err)
		}
		if !ok {
			continue
		}
		had = true
		if err := e.sessions.Delete(ctx, actor.ID, kind); err != nil {
			return false, fmt.Errorf("delete session: %w", err)
		}
	}
	return had, nil
}

// Expirer is implemented by session stores whose expired entries need an
// explicit sweep.
type Expirer interface {
	DeleteExpired(ctx context.Context) (int64, error)
}
