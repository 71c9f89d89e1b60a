package stream

import (
	"encoding/json"
	"io"
	"net/http"
)

// Writer serializes events to the newline-delimited wire protocol. When the
// underlying writer is an http.Flusher, every event is flushed as it is
// written so clients observe progress incrementally.
type Writer struct {
	enc     *json.Encoder
	flusher http.Flusher
}

// NewWriter creates a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	sw := &Writer{enc: json.NewEncoder(w)}
	if f, ok := w.(http.Flusher); ok {
		sw.flusher = f
	}
	return sw
}

// Write encodes one event as a single line.
func (w *Writer) Write(ev Event) error {
	if err := w.enc.Encode(ev); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}
