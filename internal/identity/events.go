package identity

import "sync"

// EventKind distinguishes the auth lifecycle transitions.
type EventKind string

const (
	// EventSignedIn fires after a successful sign-in or sign-up.
	EventSignedIn EventKind = "signed-in"
	// EventSignedOut fires after a sign-out.
	EventSignedOut EventKind = "signed-out"
)

// Event is one auth state transition for a user.
type Event struct {
	Kind   EventKind
	UserID string
}

// Broadcaster fans auth events out to registered listeners. Listeners
// run synchronously on the publishing goroutine, so they must be quick.
type Broadcaster struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(Event)
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[int]func(Event))}
}

// Subscribe registers a listener and returns a function that removes it.
func (b *Broadcaster) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every listener.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	fns := make([]func(Event), 0, len(b.listeners))
	for _, fn := range b.listeners {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
