package scheduler

import (
	"time"

	"glucobar/internal/core/model"
	"glucobar/internal/fetch"
)

// EventType defines the type of scheduler event.
type EventType string

const (
	// EventRender carries a payload for the display sink.
	EventRender EventType = "render"
	// EventAuthRequired is a render whose failure needs new credentials;
	// automatic fetching is held until they arrive.
	EventAuthRequired EventType = "auth_required"
)

// Event represents one scheduler update for observers. LastGood lets the
// display sink distinguish an error marker from a stale-but-valid value
// and choose which to show.
type Event struct {
	Type        EventType
	Payload     model.DisplayPayload
	LastGood    model.DisplayPayload
	HasLastGood bool
	ErrKind     fetch.Kind
	At          time.Time
}
