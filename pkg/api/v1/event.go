package v1

import "time"

const (
	EventLogin   = "login"
	EventRefresh = "refresh"
	EventExpired = "expired"
	EventLogout  = "logout"
	EventPing    = "ping"
)

// SessionEvent is pushed to every open console tab when the session changes.
type SessionEvent struct {
	Revision int64     `json:"revision"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	At       time.Time `json:"at"`
}

func (e SessionEvent) Rev() int64 {
	return e.Revision
}
