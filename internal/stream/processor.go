package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultMaxBuffer is the default cap on the line-reassembly buffer.
const DefaultMaxBuffer = 64 * 1024

// Stats holds the decode statistics of one Processor instance.
type Stats struct {
	// Events is the number of events emitted, the synthetic done included.
	Events int

	// DayEvents is the number of successfully validated day events.
	DayEvents int

	// Errors is the number of error notifications, callback panics included.
	Errors int

	// LastError is the message of the most recent error, empty if none.
	LastError string
}

// Processor incrementally decodes the line protocol from raw text chunks.
//
// The caller must invoke ProcessChunk and Flush serially; the Processor does
// not defend against concurrent calls. One Processor serves one stream
// connection and is not reused afterwards.
type Processor struct {
	maxBuffer int
	onEvent   func(Event)
	onError   func(error)
	logger    *slog.Logger

	buf   string
	stats Stats
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithMaxBuffer overrides the reassembly buffer cap.
func WithMaxBuffer(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.maxBuffer = n
		}
	}
}

// WithLogger attaches a structured logger for decode diagnostics.
func WithLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger.With("component", "stream_processor")
		}
	}
}

// NewProcessor creates a Processor delivering decoded events to onEvent and
// error notifications to onError. Either callback may be nil.
func NewProcessor(onEvent func(Event), onError func(error), opts ...ProcessorOption) *Processor {
	p := &Processor{
		maxBuffer: DefaultMaxBuffer,
		onEvent:   onEvent,
		onError:   onError,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Stats returns a snapshot of the decode statistics.
func (p *Processor) Stats() Stats {
	return p.stats
}

// ProcessChunk appends one raw chunk to the buffer and synchronously decodes
// every complete line it now holds. The final, possibly incomplete line is
// retained for the next chunk or for Flush.
func (p *Processor) ProcessChunk(chunk string) {
	p.buf += chunk

	if len(p.buf) > p.maxBuffer {
		p.reportError(fmt.Errorf("%w: %d bytes buffered, limit %d",
			ErrBufferOverflow, len(p.buf), p.maxBuffer))
		// Keep the most recent half; older data is the stale partial line.
		p.buf = p.buf[len(p.buf)/2:]
	}

	for {
		i := strings.IndexByte(p.buf, '\n')
		if i < 0 {
			return
		}
		line := p.buf[:i]
		p.buf = p.buf[i+1:]
		p.processLine(line)
	}
}

// Flush decodes any trailing buffered content as a final line, then always
// emits a synthetic done event carrying the running count of day events, so
// consumers receive a terminal signal even when the producer never sent one.
func (p *Processor) Flush() {
	if p.buf != "" {
		line := p.buf
		p.buf = ""
		p.processLine(line)
	}

	p.emit(Event{Type: EventDone, TotalGenerated: p.stats.DayEvents})
}

// processLine interprets one complete line of the stream.
func (p *Processor) processLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	line = strings.TrimPrefix(line, FramingPrefix)
	line = strings.TrimSpace(line)

	if line == EndMarker {
		return
	}

	// Only object-shaped lines are candidate records; anything else is a
	// stray transport log line and is ignored.
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return
	}

	if !gjson.Valid(line) {
		p.reportError(fmt.Errorf("%w: invalid JSON object", ErrMalformedEvent))
		return
	}

	typ := gjson.Get(line, "type")
	if !typ.Exists() {
		p.reportError(fmt.Errorf("%w: missing type discriminator", ErrMalformedEvent))
		return
	}

	switch EventType(typ.String()) {
	case EventProgress:
		p.emit(Event{Type: EventProgress, Value: gjson.Get(line, "value").String()})

	case EventDay:
		p.processDayLine(line)

	case EventError:
		p.emit(Event{Type: EventError, Error: gjson.Get(line, "error").String()})

	case EventDone:
		p.emit(Event{Type: EventDone, TotalGenerated: int(gjson.Get(line, "totalGenerated").Int())})

	case EventFullPlan:
		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil || ev.Plan == nil {
			p.reportError(fmt.Errorf("%w: full_plan payload", ErrMalformedEvent))
			return
		}
		p.emit(ev)

	default:
		p.reportError(fmt.Errorf("%w: %q", ErrUnknownEventType, typ.String()))
	}
}

// processDayLine normalizes and validates the embedded day payload. A bad
// payload is a reported error, never a decode stop.
func (p *Processor) processDayLine(line string) {
	raw := gjson.Get(line, "day")
	if !raw.Exists() {
		p.reportError(fmt.Errorf("%w: missing day field", ErrInvalidDayPayload))
		return
	}

	plan, err := NormalizeDayPlan([]byte(raw.Raw))
	if err != nil {
		p.reportError(fmt.Errorf("%w: %v", ErrInvalidDayPayload, err))
		return
	}

	if err := plan.Validate(); err != nil {
		p.reportError(fmt.Errorf("%w: %v", ErrInvalidDayPayload, err))
		return
	}

	p.stats.DayEvents++
	p.emit(Event{Type: EventDay, Day: plan})
}

// emit delivers one event to the caller. A panicking consumer is contained:
// the panic is counted as an internal error and decoding continues.
func (p *Processor) emit(ev Event) {
	p.stats.Events++

	if p.onEvent == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.stats.Errors++
			p.stats.LastError = fmt.Sprintf("%v: %v", ErrCallbackPanic, r)
			if p.logger != nil {
				p.logger.Error("event callback panicked", "panic", r, "event_type", ev.Type)
			}
		}
	}()
	p.onEvent(ev)
}

// reportError notifies the caller of a decode problem. The error callback is
// contained the same way as the event callback.
func (p *Processor) reportError(err error) {
	p.stats.Errors++
	p.stats.LastError = err.Error()

	if p.logger != nil {
		p.logger.Debug("stream decode error", "error", err)
	}

	if p.onError == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			p.stats.Errors++
			p.stats.LastError = fmt.Sprintf("%v: %v", ErrCallbackPanic, r)
			if p.logger != nil {
				p.logger.Error("error callback panicked", "panic", r)
			}
		}
	}()
	p.onError(err)
}
