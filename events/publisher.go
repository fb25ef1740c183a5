package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"order-bot/services"
)

// Publisher sends CartSubmitted events. It implements services.SubmissionNotifier.
type Publisher struct {
	mq  *RabbitMQ
	now func() time.Time
}

func NewPublisher(mq *RabbitMQ) (*Publisher, error) {
	if err := mq.DeclareQueue(CartSubmittedQueue); err != nil {
		return nil, err
	}
	return &Publisher{mq: mq, now: time.Now}, nil
}

func (p *Publisher) CartSubmitted(ctx context.Context, s services.Submission) error {
	ev := NewCartSubmitted(s, p.now())
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.mq.Publish(ctx, CartSubmittedQueue, ev.EventID.String(), data)
}

var _ services.SubmissionNotifier = (*Publisher)(nil)
