package conversation

import (
	"strings"
	"time"

	"order-bot/services"
)

type FlowKind string

const (
	FlowOrderCreation    FlowKind = "order_creation"
	FlowMenuEntry        FlowKind = "menu_entry"
	FlowNameRegistration FlowKind = "name_registration"
)

// Flows started from the organizer front-end and from the participant one.
// Starting a flow cancels the other flows of the same side.
var (
	organizerFlows   = []FlowKind{FlowOrderCreation, FlowMenuEntry}
	participantFlows = []FlowKind{FlowNameRegistration}
)

func (k FlowKind) valid() bool {
	switch k {
	case FlowOrderCreation, FlowMenuEntry, FlowNameRegistration:
		return true
	}
	return false
}

type Step string

const (
	StepAwaitingTitle     Step = "awaiting_title"
	StepAwaitingItemName  Step = "awaiting_item_name"
	StepAwaitingItemPrice Step = "awaiting_item_price"
	StepAwaitingName      Step = "awaiting_name"
	StepDone              Step = "done"
)

// FinishSentinel ends menu entry when sent instead of an item name.
const FinishSentinel = "/done"

// Session is one actor's in-progress flow. OrderID is the order being filled
// (menu entry) or the order to open after registering a name (0 when none).
type Session struct {
	ActorID         int64     `json:"actor_id"`
	Kind            FlowKind  `json:"kind"`
	Step            Step      `json:"step"`
	OrderID         int64     `json:"order_id,omitempty"`
	PendingItemName string    `json:"pending_item_name,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (s Session) Done() bool { return s.Step == StepDone }

func firstStep(kind FlowKind) Step {
	switch kind {
	case FlowOrderCreation:
		return StepAwaitingTitle
	case FlowMenuEntry:
		return StepAwaitingItemName
	default:
		return StepAwaitingName
	}
}

type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionCreateOrder
	ActionAddMenuItem
	ActionRegisterName
)

// Action is the side effect a transition asks for. Advance never performs it.
type Action struct {
	Kind    ActionKind
	OrderID int64
	Title   string
	Name    string
	Price   int64
}

// Advance is the pure transition function. On ErrInvalidInput the returned
// session equals s, so the caller can simply re-prompt.
func Advance(s Session, input string) (Session, Action, error) {
	input = strings.TrimSpace(input)
	next := s
	switch s.Step {
	case StepAwaitingTitle:
		if input == "" {
			return s, Action{}, invalidf("title cannot be empty")
		}
		next.Step = StepDone
		return next, Action{Kind: ActionCreateOrder, Title: input}, nil

	case StepAwaitingItemName:
		if strings.EqualFold(input, FinishSentinel) {
			next.Step = StepDone
			return next, Action{}, nil
		}
		if input == "" {
			return s, Action{}, invalidf("item name cannot be empty")
		}
		next.PendingItemName = input
		next.Step = StepAwaitingItemPrice
		return next, Action{}, nil

	case StepAwaitingItemPrice:
		price, err := services.ParsePrice(input)
		if err != nil {
			return s, Action{}, err
		}
		next.Step = StepAwaitingItemName
		next.PendingItemName = ""
		return next, Action{Kind: ActionAddMenuItem, OrderID: s.OrderID, Name: s.PendingItemName, Price: price}, nil

	case StepAwaitingName:
		if input == "" {
			return s, Action{}, invalidf("name cannot be empty")
		}
		next.Step = StepDone
		return next, Action{Kind: ActionRegisterName, OrderID: s.OrderID, Name: input}, nil
	}
	return s, Action{}, services.ErrNoActiveFlow
}
