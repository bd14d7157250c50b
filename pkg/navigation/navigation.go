// Package navigation abstracts the "page" location parameter and its history
// so the engine can run outside a browser.
package navigation

import (
	"sort"
	"sync"
)

// Port exposes the current page parameter and history operations.
type Port interface {
	// Param returns the current page parameter; ok is false when absent.
	Param() (code string, ok bool)
	// Push records a new history entry without reloading.
	Push(code string)
	// Replace rewrites the current entry.
	Replace(code string)
	// OnPopState registers fn for back/forward events and returns a function
	// that unregisters it.
	OnPopState(fn func(code string)) (unsubscribe func())
}

// History is an in-memory Port with back/forward support. It is safe for
// concurrent use; listeners run outside the lock.
type History struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[int]func(string)
	nextID    int
}

var _ Port = (*History)(nil)

// NewHistory returns a history whose current entry is initial. An empty
// initial means the parameter is absent.
func NewHistory(initial string) *History {
	return &History{entries: []string{initial}, listeners: make(map[int]func(string))}
}

// Param returns the current entry.
func (h *History) Param() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	code := h.entries[h.index]
	return code, code != ""
}

// Push drops forward entries and appends code.
func (h *History) Push(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.index+1], code)
	h.index = len(h.entries) - 1
}

// Replace rewrites the current entry.
func (h *History) Replace(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.index] = code
}

// OnPopState registers a listener.
func (h *History) OnPopState(fn func(string)) func() {
	if fn == nil {
		return func() {}
	}
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	if h.listeners == nil {
		h.listeners = make(map[int]func(string))
	}
	h.listeners[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}
}

// Back moves one entry back and fires pop-state. It reports false at the
// first entry.
func (h *History) Back() bool {
	return h.move(-1)
}

// Forward moves one entry forward and fires pop-state.
func (h *History) Forward() bool {
	return h.move(1)
}

// Visit sets the current entry to code as if the user typed or followed a
// link to an existing history entry, then fires pop-state. When code matches
// the current or an adjacent entry the cursor stays or moves there; otherwise
// the current entry is replaced. Hosts that only see request URLs use this to map them onto
// history movement.
func (h *History) Visit(code string) {
	h.mu.Lock()
	switch {
	case h.entries[h.index] == code:
	case h.index > 0 && h.entries[h.index-1] == code:
		h.index--
	case h.index+1 < len(h.entries) && h.entries[h.index+1] == code:
		h.index++
	default:
		h.entries[h.index] = code
	}
	listeners := h.snapshot()
	h.mu.Unlock()
	notify(listeners, code)
}

// Entries returns a copy of the history stack and the current position.
func (h *History) Entries() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...), h.index
}

func (h *History) move(delta int) bool {
	h.mu.Lock()
	next := h.index + delta
	if next < 0 || next >= len(h.entries) {
		h.mu.Unlock()
		return false
	}
	h.index = next
	code := h.entries[next]
	listeners := h.snapshot()
	h.mu.Unlock()

	notify(listeners, code)
	return true
}

func (h *History) snapshot() []func(string) {
	ids := make([]int, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(string), 0, len(ids))
	for _, id := range ids {
		out = append(out, h.listeners[id])
	}
	return out
}

func notify(listeners []func(string), code string) {
	for _, fn := range listeners {
		fn(code)
	}
}
