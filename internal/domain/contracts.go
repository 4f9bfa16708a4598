package domain

import "context"

// StateSource yields the committed record. Implementations return a copy.
type StateSource interface {
	Get() Publication
}

// PublicationStore is the mutating side of the configuration store.
type PublicationStore interface {
	StateSource
	Update(fn func(*Publication) error) (Publication, error)
}

// Broadcaster fans committed state and transient pulses out to display clients.
type Broadcaster interface {
	BroadcastState()
	BroadcastBlink(color string)
}

// StateMirror copies committed state to an external system. Best effort.
type StateMirror interface {
	Mirror(ctx context.Context, p Publication) error
}
