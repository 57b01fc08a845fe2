package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getmedsage/medsage/internal/workflow"
)

// SSEEmitter streams pipeline progress to the client as Server-Sent Events.
type SSEEmitter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEEmitter creates an emitter, or nil if the writer does not support
// flushing.
func NewSSEEmitter(w http.ResponseWriter) *SSEEmitter {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil
	}
	return &SSEEmitter{w: w, flusher: flusher}
}

// Emit writes one event to the stream.
func (e *SSEEmitter) Emit(ev workflow.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(e.w, "data: %s\n\n", data)
	e.flusher.Flush()
}
