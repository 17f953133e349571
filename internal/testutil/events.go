package testutil

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublishedEvent is one call recorded by Events.
type PublishedEvent struct {
	ProjectID primitive.ObjectID
	Type      string
	Payload   any
}

// Events is a realtime.Publisher that records what was published.
type Events struct {
	mu     sync.Mutex
	events []PublishedEvent
}

func (e *Events) Publish(_ context.Context, projectID primitive.ObjectID, eventType string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, PublishedEvent{ProjectID: projectID, Type: eventType, Payload: payload})
}

// All returns a copy of the recorded events.
func (e *Events) All() []PublishedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]PublishedEvent(nil), e.events...)
}
