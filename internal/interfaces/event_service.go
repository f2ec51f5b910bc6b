package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	EventDocumentSaved      EventType = "document_saved"
	EventDocumentDeleted    EventType = "document_deleted"
	EventQuestionAnswered   EventType = "question_answered"
	EventEmbeddingTriggered EventType = "embedding_triggered"
)

// Event represents a system event. OwnerID scopes delivery on
// tenant-facing surfaces; an event without an owner never reaches a
// client connection.
type Event struct {
	Type    EventType
	OwnerID string
	Payload any
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages the in-process pub/sub event bus
type EventService interface {
	// Subscribe registers a handler and returns a subscription id
	Subscribe(eventType EventType, handler EventHandler) (string, error)

	// Unsubscribe removes a subscription by id
	Unsubscribe(eventType EventType, id string)

	// Publish an event to all subscribers asynchronously
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes an event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
