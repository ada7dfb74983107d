package outbox

import (
	"encoding/json"
	"time"
)

// Actor kinds recorded on envelopes.
const (
	ActorUser     = "user"
	ActorGuest    = "guest"
	ActorProvider = "provider"
	ActorSystem   = "system"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
