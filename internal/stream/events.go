package stream

import (
	"errors"

	"github.com/coursegen/coursegen-api/internal/domain"
)

// EventType discriminates the wire event records.
type EventType string

// Possible event type values
const (
	EventProgress EventType = "progress"
	EventDay      EventType = "day"
	EventError    EventType = "error"
	EventDone     EventType = "done"
	EventFullPlan EventType = "full_plan"
)

// EndMarker is the transport sentinel accepted and ignored by the decoder.
const EndMarker = "[DONE]"

// FramingPrefix is the transport-framing prefix stripped from lines before
// interpretation (server-sent-events style framing).
const FramingPrefix = "data: "

// Event is one decoded record of the line protocol. Exactly the fields for
// the record's Type are populated; the rest stay at their zero values and are
// omitted when re-encoded.
type Event struct {
	Type           EventType          `json:"type"`
	Value          string             `json:"value,omitempty"`
	Day            *domain.DayPlan    `json:"day,omitempty"`
	Error          string             `json:"error,omitempty"`
	TotalGenerated int                `json:"totalGenerated,omitempty"`
	Plan           *domain.CoursePlan `json:"plan,omitempty"`
}

// Errors reported by the decoder through the error callback.
var (
	// ErrBufferOverflow is reported when a chunk pushes the reassembly buffer
	// past its limit. The buffer is truncated to its most recent half and
	// decoding continues.
	ErrBufferOverflow = errors.New("stream buffer exceeded configured limit")

	// ErrMalformedEvent is reported for a bracketed line that is not valid
	// JSON or lacks a type discriminator.
	ErrMalformedEvent = errors.New("malformed event line")

	// ErrUnknownEventType is reported for a well-formed record whose type is
	// not part of the protocol.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrInvalidDayPayload is reported when a day event carries a payload
	// that cannot be normalized or fails day plan validation.
	ErrInvalidDayPayload = errors.New("invalid day payload in event")

	// ErrCallbackPanic records a panic that escaped a caller-supplied
	// callback. It is contained, counted, and decoding continues.
	ErrCallbackPanic = errors.New("panic in stream callback")
)
