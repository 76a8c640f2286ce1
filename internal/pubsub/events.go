// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	CreatedEvent EventType = "created"   // a new item, e.g. a log entry
	ScannedEvent EventType = "scanned"   // a file was scanned
	RescanEvent  EventType = "rescanned" // a watched file was scanned again
	FailedEvent  EventType = "failed"    // a scan ended with an error
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
// Publish returns the number of subscribers that received the event.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T) int
}
