package webhook

import (
	"encoding/json"
	"net/http"
)

// EventStatus is the discriminator of a normalized provider event.
type EventStatus string

const (
	StatusCompleted EventStatus = "completed"
	StatusDenied    EventStatus = "denied"
	StatusRefunded  EventStatus = "refunded"
	StatusCreated   EventStatus = "created"
	StatusCancelled EventStatus = "cancelled"
	StatusSuspended EventStatus = "suspended"
	StatusUnhandled EventStatus = "unhandled"
)

// Event is a provider event normalized to a status plus the provider fields
// copied verbatim from the source resource.
type Event struct {
	Status EventStatus
	Fields map[string]any
}

// Map flattens the event into its wire shape: {"status": ..., <fields>}.
func (e Event) Map() map[string]any {
	out := make(map[string]any, len(e.Fields)+1)
	for k, v := range e.Fields {
		out[k] = v
	}
	out["status"] = string(e.Status)
	return out
}

func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Map())
}

// Result is what a webhook delivery endpoint answers with.
type Result struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Event      *Event `json:"event,omitempty"`
}

func OK(message string, event *Event) Result {
	return Result{StatusCode: http.StatusOK, Message: message, Event: event}
}

func BadRequest(message string) Result {
	return Result{StatusCode: http.StatusBadRequest, Message: message}
}

func Failed(message string) Result {
	return Result{StatusCode: http.StatusInternalServerError, Message: message}
}
