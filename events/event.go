package events

import (
	"time"

	"order-bot/services"

	"github.com/google/uuid"
)

const CartSubmittedQueue = "cart.submitted"

// CartSubmitted is published after a participant's cart was finalized.
type CartSubmitted struct {
	EventID     uuid.UUID   `json:"event_id"`
	OrderID     int64       `json:"order_id"`
	OrderTitle  string      `json:"order_title"`
	OrganizerID int64       `json:"organizer_id"`
	UserID      int64       `json:"user_id"`
	UserName    string      `json:"user_name"`
	Total       int64       `json:"total"`
	Items       []EventItem `json:"items"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

type EventItem struct {
	MenuID   int64  `json:"menu_id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

func NewCartSubmitted(s services.Submission, at time.Time) CartSubmitted {
	ev := CartSubmitted{
		EventID:     uuid.New(),
		OrderID:     s.Order.ID,
		OrderTitle:  s.Order.Title,
		OrganizerID: s.Order.CreatedBy,
		UserID:      s.User.ID,
		UserName:    s.User.FullName,
		Total:       s.Total,
		SubmittedAt: at,
	}
	for _, l := range s.Lines {
		ev.Items = append(ev.Items, EventItem{MenuID: l.MenuID, Name: l.Name, Price: l.Price, Quantity: l.Quantity})
	}
	return ev
}
