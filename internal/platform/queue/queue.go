// Package queue abstracts the background job queue so the submitter and
// worker do not care whether Kafka or the in-memory double is underneath.
package queue

//go:generate mockgen -source=queue.go -destination=mocks/mocks.go -package=mocks Publisher,Consumer

import "context"

// Message is one delivered job.
type Message struct {
	Topic   string
	Key     []byte
	Payload []byte
}

// Publisher enqueues fire-and-forget messages. Delivery is at-least-once;
// consumers must tolerate redelivery.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, payload []byte) error
}

// Handler processes one delivered message. Returning an error leaves the
// message uncommitted for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Consumer pumps messages to a handler until the context is cancelled.
type Consumer interface {
	Run(ctx context.Context, handler Handler) error
}
