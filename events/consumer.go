package events

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc processes one event. Returning an error requeues the message.
type HandlerFunc func(ctx context.Context, ev CartSubmitted) error

type Consumer struct {
	handle HandlerFunc
}

func NewConsumer(h HandlerFunc) *Consumer {
	return &Consumer{handle: h}
}

// Run processes messages until the channel closes or ctx is done.
func (c *Consumer) Run(ctx context.Context, messages <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.process(ctx, msg)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg amqp.Delivery) {
	var ev CartSubmitted
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		log.Printf("events: bad %s message: %v", CartSubmittedQueue, err)
		_ = msg.Nack(false, false) // don't requeue garbage
		return
	}
	if err := c.handle(ctx, ev); err != nil {
		log.Printf("events: handle order=%d user=%d: %v", ev.OrderID, ev.UserID, err)
		// redelivered once; after that it is dropped
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	_ = msg.Ack(false)
}
