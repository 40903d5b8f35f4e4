package vscroll

import "sync"

// PointerKind is the kind of a window-level pointer event.
type PointerKind int

const (
	PointerMove PointerKind = iota
	PointerUp
)

// PointerEvent is a pointer event in screen pixels.
type PointerEvent struct {
	X, Y int
	Kind PointerKind
}

// PointerListener receives events from a GlobalPointerSource.
type PointerListener func(PointerEvent)

// PointerSubscription identifies a registered listener.
type PointerSubscription uint64

// GlobalPointerSource delivers pointer move and up events regardless of which
// primitive the pointer is over.
type GlobalPointerSource interface {
	Subscribe(listener PointerListener) PointerSubscription
	Unsubscribe(sub PointerSubscription)
}

// PointerHub is a GlobalPointerSource fed by Dispatch. A list that captures
// the mouse feeds its hub with the events the application routes to it.
type PointerHub struct {
	mu        sync.Mutex
	next      PointerSubscription
	listeners map[PointerSubscription]PointerListener
}

// NewPointerHub returns a hub without listeners.
func NewPointerHub() *PointerHub {
	return &PointerHub{listeners: make(map[PointerSubscription]PointerListener)}
}

// Subscribe registers listener.
func (h *PointerHub) Subscribe(listener PointerListener) PointerSubscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	h.listeners[h.next] = listener
	return h.next
}

// Unsubscribe removes a listener. Unknown subscriptions are ignored.
func (h *PointerHub) Unsubscribe(sub PointerSubscription) {
	h.mu.Lock()
	delete(h.listeners, sub)
	h.mu.Unlock()
}

// Dispatch sends event to every listener and reports whether there was any.
func (h *PointerHub) Dispatch(event PointerEvent) bool {
	h.mu.Lock()
	listeners := make([]PointerListener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
	return len(listeners) > 0
}

// Listeners returns the number of registered listeners.
func (h *PointerHub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners)
}
