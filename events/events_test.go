package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"order-bot/models"
	"order-bot/services"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCartSubmitted(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := services.Submission{
		Order: models.Order{ID: 3, Title: "Lunch", CreatedBy: 1},
		User:  models.User{ID: 10, FullName: "Ann"},
		Lines: []models.CartLineView{{MenuID: 7, Name: "Pizza", Price: 200, Quantity: 2}},
		Total: 400,
	}
	ev := NewCartSubmitted(s, at)
	assert.NotEqual(t, uuid.Nil, ev.EventID)
	assert.Equal(t, int64(1), ev.OrganizerID)
	assert.Equal(t, "Ann", ev.UserName)
	assert.Equal(t, []EventItem{{MenuID: 7, Name: "Pizza", Price: 200, Quantity: 2}}, ev.Items)

	other := NewCartSubmitted(s, at)
	assert.NotEqual(t, ev.EventID, other.EventID)
}

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(uint64, bool) error { f.acked = true; return nil }
func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked, f.requeued = true, requeue
	return nil
}
func (f *fakeAck) Reject(_ uint64, requeue bool) error { return f.Nack(0, false, requeue) }

func delivery(t *testing.T, ack *fakeAck, body any, redelivered bool) amqp.Delivery {
	t.Helper()
	var data []byte
	switch b := body.(type) {
	case []byte:
		data = b
	default:
		var err error
		data, err = json.Marshal(b)
		require.NoError(t, err)
	}
	return amqp.Delivery{Acknowledger: ack, Body: data, Redelivered: redelivered}
}

func TestConsumerAcks(t *testing.T) {
	ev := CartSubmitted{EventID: uuid.New(), OrderID: 3, UserID: 10, Total: 400}
	tests := []struct {
		name        string
		body        any
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantRequeue bool
	}{
		{"ok", ev, false, nil, true, false},
		{"garbage", []byte("{"), false, nil, false, false},
		{"handler fails first time", ev, false, errors.New("telegram down"), false, true},
		{"handler fails again", ev, true, errors.New("telegram down"), false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got CartSubmitted
			c := NewConsumer(func(_ context.Context, e CartSubmitted) error {
				got = e
				return tt.handlerErr
			})
			ack := &fakeAck{}
			msgs := make(chan amqp.Delivery, 1)
			msgs <- delivery(t, ack, tt.body, tt.redelivered)
			close(msgs)
			c.Run(context.Background(), msgs)

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeued)
			if tt.wantAck {
				assert.Equal(t, ev.EventID, got.EventID)
			}
		})
	}
}
