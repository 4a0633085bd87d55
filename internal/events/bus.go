// Package events fans host notifications out to in-process listeners.
package events

import (
	"sync"
)

const (
	// DirectoryChanged carries the new journal directory path.
	DirectoryChanged = "directory-changed"

	// FileChanged carries the path of a day file written by another program.
	FileChanged = "file-changed"
)

// Event is one notification.
type Event struct {
	Name    string
	Payload string
}

// Bus delivers events to subscribers without blocking the emitter. A full
// Subscribe channel drops the new event; an On listener only ever sees the
// latest pending event.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]sub
}

type sub struct {
	name   string // "" = all events
	latest bool   // 1-slot channel; a pending event is replaced
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]sub)}
}

// Emit publishes an event.
func (b *Bus) Emit(name, payload string) {
	e := Event{Name: name, Payload: payload}

	b.mu.Lock()
	defer b.mu.Unlock()

	for ch, s := range b.subs {
		if s.name != "" && s.name != name {
			continue
		}
		if s.latest {
			// Only the emitter sends under b.mu, so after the drain the
			// slot is free.
			select {
			case <-ch:
			default:
			}
		}
		select {
		case ch <- e:
		default:
			// drop on slow subscriber
		}
	}
}

// Subscribe returns a channel of events named name ("" for all events).
func (b *Bus) Subscribe(name string) (ch chan Event, cancel func()) {
	return b.subscribe(sub{name: name}, 16)
}

func (b *Bus) subscribe(s sub, size int) (ch chan Event, cancel func()) {
	ch = make(chan Event, size)

	b.mu.Lock()
	b.subs[ch] = s
	b.mu.Unlock()

	cancel = func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// On calls fn for events named name, from a dedicated goroutine, until the
// returned cancel func is called. Events emitted while fn is busy collapse
// into the newest one, so the last event is always delivered.
func (b *Bus) On(name string, fn func(payload string)) (cancel func()) {
	ch, stop := b.subscribe(sub{name: name, latest: true}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			fn(e.Payload)
		}
	}()
	return func() {
		stop()
		<-done
	}
}

// Notify adapts the bus to the host notifier interface.
func (b *Bus) Notify(name string, payload string) {
	b.Emit(name, payload)
}
