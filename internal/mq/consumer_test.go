package mq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

// recordingAcker фиксирует подтверждения для проверки политики повторов.
type recordingAcker struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (a *recordingAcker) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcker) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAcker) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func testConsumer(handler Handler) *Consumer {
	return &Consumer{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		queue:   QueueRunsRequested,
		handler: handler,
	}
}

func TestHandleDeliveryRetryPolicy(t *testing.T) {
	body := []byte(`{"id":"00000000-0000-0000-0000-000000000001","type":"run.requested","payload":{}}`)

	tests := []struct {
		name        string
		body        []byte
		redelivered bool
		handlerErr  error
		wantAck     bool
		wantNack    bool
		wantRequeue bool
	}{
		{
			name:    "успешная обработка — ack",
			body:    body,
			wantAck: true,
		},
		{
			name:     "мусорное тело — сразу в DLQ",
			body:     []byte("not json"),
			wantNack: true,
		},
		{
			name:        "первая неудача — возврат в очередь",
			body:        body,
			handlerErr:  errors.New("db unavailable"),
			wantNack:    true,
			wantRequeue: true,
		},
		{
			name:        "неудача повторной доставки — в DLQ",
			body:        body,
			redelivered: true,
			handlerErr:  errors.New("db unavailable"),
			wantNack:    true,
			wantRequeue: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acker := &recordingAcker{}
			c := testConsumer(func(ctx context.Context, msg *Delivery) error {
				if msg.Redelivered != tt.redelivered {
					t.Errorf("Redelivered = %t, want %t", msg.Redelivered, tt.redelivered)
				}
				return tt.handlerErr
			})

			c.handleDelivery(context.Background(), amqp.Delivery{
				Acknowledger: acker,
				Body:         tt.body,
				Redelivered:  tt.redelivered,
			})

			if acker.acked != tt.wantAck {
				t.Errorf("acked = %t, want %t", acker.acked, tt.wantAck)
			}
			if acker.nacked != tt.wantNack {
				t.Errorf("nacked = %t, want %t", acker.nacked, tt.wantNack)
			}
			if tt.wantNack && acker.requeue != tt.wantRequeue {
				t.Errorf("requeue = %t, want %t", acker.requeue, tt.wantRequeue)
			}
		})
	}
}
