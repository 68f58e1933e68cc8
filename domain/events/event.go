package events

// Event is the interface that all domain events must implement.
type Event interface {
	Name() string // Returns a unique name for the event type
}

// PrivateEvent is only meant for the player it names.
type PrivateEvent interface {
	Event
	Recipient() string
}

// EventHandler receives events as they are emitted.
type EventHandler func(event Event)

// IsPrivate reports whether the event must not be broadcast to the table.
func IsPrivate(event Event) bool {
	_, ok := event.(PrivateEvent)
	return ok
}
