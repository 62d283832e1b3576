package metrics

// SessionObserver receives session lifecycle events from the client and the guard.
type SessionObserver interface {
	RecordRefresh(outcome string)
	RecordGuardDecision(state string)
	RecordExpiry(source string)
}

// HubObserver tracks the session event stream.
type HubObserver interface {
	IncOnline()
	DecOnline()
	RecordPush()
}

type Observer interface {
	SessionObserver
	HubObserver
}

// Nop discards every event.
type Nop struct{}

func (Nop) RecordRefresh(string)       {}
func (Nop) RecordGuardDecision(string) {}
func (Nop) RecordExpiry(string)        {}
func (Nop) IncOnline()                 {}
func (Nop) DecOnline()                 {}
func (Nop) RecordPush()                {}
