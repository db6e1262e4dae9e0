package ir

import "time"

// Event is a single activity event for one user.
type Event struct {
	Seq       int64     `json:"seq"` // logical sequence number, strictly increasing
	Type      string    `json:"type"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   Payload   `json:"payload,omitempty"`
}

// Well-known payload keys read by the engine and the condition matcher.
const (
	PayloadXP        = "xp"        // numeric XP granted before rule resolution
	PayloadValue     = "value"     // compared against threshold conditions
	PayloadKeys      = "keys"      // string list checked by combo conditions
	PayloadTimestamp = "timestamp" // Unix milliseconds, checked by time-window conditions
	PayloadDuration  = "duration"  // compared against duration conditions
)
