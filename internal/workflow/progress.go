package workflow

import (
	"fmt"
	"io"

	"github.com/getmedsage/medsage/pkg/models"
)

// Event represents a single progress update during an assessment run.
type Event struct {
	Type         string                `json:"type"`                    // "stage", "info", "done", "error"
	Stage        string                `json:"stage,omitempty"`         // pipeline stage name
	Step         int                   `json:"step,omitempty"`          // current stage number
	Total        int                   `json:"total,omitempty"`         // total stage count
	Message      string                `json:"message,omitempty"`       // human-readable message
	State        *models.WorkflowState `json:"state,omitempty"`         // final state (for "done" type)
	AssessmentID string                `json:"assessment_id,omitempty"` // stored record ID, set once persisted
}

// Emitter receives progress events during an assessment run.
type Emitter interface {
	Emit(event Event)
}

// TextEmitter formats progress events as human-readable text for CLI output.
type TextEmitter struct {
	W io.Writer
}

// Emit writes a formatted progress line to the underlying writer.
func (e *TextEmitter) Emit(ev Event) {
	switch ev.Type {
	case "stage":
		fmt.Fprintf(e.W, "[%d/%d] %s\n", ev.Step, ev.Total, ev.Message)
	case "info":
		fmt.Fprintf(e.W, "  %s\n", ev.Message)
	case "error":
		fmt.Fprintf(e.W, "Error: %s\n", ev.Message)
	}
}

func emit(e Emitter, ev Event) {
	if e != nil {
		e.Emit(ev)
	}
}
