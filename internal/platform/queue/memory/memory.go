// Package memory is a channel-backed queue for unit tests and local
// development. Single consumer, no redelivery.
package memory

import (
	"context"

	"idproof/internal/platform/queue"
)

// Queue implements both Publisher and Consumer over one buffered channel.
type Queue struct {
	messages chan queue.Message
}

func New(buffer int) *Queue {
	return &Queue{messages: make(chan queue.Message, buffer)}
}

func (q *Queue) Publish(ctx context.Context, topic string, key, payload []byte) error {
	msg := queue.Message{Topic: topic, Key: key, Payload: payload}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.messages <- msg:
		return nil
	}
}

func (q *Queue) Run(ctx context.Context, handler queue.Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-q.messages:
			if err := handler(ctx, msg); err != nil {
				return err
			}
		}
	}
}

// Len reports queued-but-unprocessed messages; tests use it to assert exactly
// one enqueue happened.
func (q *Queue) Len() int {
	return len(q.messages)
}

// Next pops one message without running a handler loop.
func (q *Queue) Next(ctx context.Context) (queue.Message, error) {
	select {
	case <-ctx.Done():
		return queue.Message{}, ctx.Err()
	case msg := <-q.messages:
		return msg, nil
	}
}
