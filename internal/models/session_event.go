package models

import "time"

// Session event types.
const (
	EventConnect    = "CONNECT"
	EventDisconnect = "DISCONNECT"
	EventSend       = "SEND"
	EventFailure    = "FAILURE"
	EventParseError = "PARSE_ERROR"
)

// SessionEvent is a single log entry.
type SessionEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECT | DISCONNECT | SEND | FAILURE | PARSE_ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
