package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Callback is invoked for each matching emission. It receives the event
// name alongside the event itself and runs synchronously on the
// emitter's goroutine.
type Callback func(ctx context.Context, eventName string, evt *Event) error

// Event is the payload object delivered to callbacks. It is constructed
// fresh for every emission and never retained by the registry.
type Event struct {
	ID        string                 // Unique event ID
	Type      string                 // Event name this emission targets
	Args      interface{}            // Caller-supplied payload, never nil
	Timestamp time.Time              // Time when the event was emitted
	Metadata  map[string]interface{} // Additional metadata
}

// NewEvent creates an event for the given name. A nil payload is
// replaced with an empty map so callbacks always receive a container.
func NewEvent(eventType string, args interface{}) *Event {
	if args == nil {
		args = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Args:      args,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to an event
func (e *Event) WithMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}
