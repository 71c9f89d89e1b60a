package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Batch lifecycle event types published by the scheduler.
const (
	TypeBatchProgress  = "batch_progress"
	TypeDayCompleted   = "day_completed"
	TypeBatchFailed    = "batch_failed"
	TypeBatchCancelled = "batch_cancelled"
	TypeBatchDone      = "batch_done"
)

// BatchEvent represents one state transition of a generation batch. It
// carries the transition-specific data as an opaque payload so handlers stay
// decoupled from the scheduler's types.
type BatchEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// BatchID identifies the batch the event belongs to
	BatchID uuid.UUID `json:"batch_id"`

	// Type indicates which state transition occurred
	Type string `json:"type"`

	// Payload contains the transition-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *BatchEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewBatchEvent creates a new BatchEvent with the specified type and payload.
func NewBatchEvent(batchID uuid.UUID, eventType string, payload interface{}) (*BatchEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &BatchEvent{
		ID:        uuid.New(),
		BatchID:   batchID,
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// Handler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *BatchEvent) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event *BatchEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *BatchEvent) error {
	return f(ctx, event)
}

// Emitter defines an interface for components that can emit events.
// This allows the scheduler to publish events without direct knowledge of handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *BatchEvent) error
}
