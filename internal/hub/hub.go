// Package hub fans clipboard snapshots out to registered listeners.
// Every listener gets its own goroutine per notification, so a slow or
// failing listener never delays or breaks delivery to the others.
package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/oklog/ulid/v2"

	"go.klb.dev/clipmon/internal/content"
)

// ErrListenerFailure wraps an error returned by, or a panic raised in, a
// listener's OnChange. It is delivered to that listener's OnError only.
var ErrListenerFailure = errors.New("listener failed")

// CountListener is notified whenever the number of registered listeners
// changes.
type CountListener func(total int)

// Hub routes clipboard snapshots to all registered listeners.
type Hub struct {
	mu        sync.RWMutex
	listeners map[string]Listener
	wg        sync.WaitGroup
	log       *slog.Logger

	countMu sync.RWMutex
	onCount CountListener
}

// New returns an empty Hub. A nil logger means slog.Default().
func New(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		listeners: make(map[string]Listener),
		log:       log,
	}
}

// SetCountListener registers fn to be called whenever the listener set
// changes. Only one is supported; calling again replaces it.
func (h *Hub) SetCountListener(fn CountListener) {
	h.countMu.Lock()
	h.onCount = fn
	h.countMu.Unlock()
}

// Register adds l and returns the ID that removes it again.
func (h *Hub) Register(l Listener) string {
	id := ulid.Make().String()

	h.mu.Lock()
	h.listeners[id] = l
	total := len(h.listeners)
	h.mu.Unlock()

	h.log.Debug("listener registered", "listener", id, "total", total)
	h.notifyCount(total)
	return id
}

// Unregister removes the listener with the given ID. It reports whether the
// listener was registered. Deliveries already in flight still complete.
func (h *Hub) Unregister(id string) bool {
	h.mu.Lock()
	_, ok := h.listeners[id]
	delete(h.listeners, id)
	total := len(h.listeners)
	h.mu.Unlock()

	if !ok {
		return false
	}
	h.log.Debug("listener unregistered", "listener", id, "total", total)
	h.notifyCount(total)
	return true
}

// IDs returns the registered listener IDs in registration order.
func (h *Hub) IDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.listeners))
	for id := range h.listeners {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	slices.Sort(ids) // ULIDs sort by creation time
	return ids
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

// Publish delivers snap to every registered listener and returns without
// waiting for them.
func (h *Hub) Publish(snap content.Snapshot) {
	h.mu.RLock()
	targets := make(map[string]Listener, len(h.listeners))
	for id, l := range h.listeners {
		targets[id] = l
	}
	h.mu.RUnlock()

	h.wg.Add(len(targets))
	for id, l := range targets {
		go h.deliver(id, l, snap)
	}
}

// Wait blocks until every delivery started by Publish has returned.
func (h *Hub) Wait() { h.wg.Wait() }

func (h *Hub) deliver(id string, l Listener, snap content.Snapshot) {
	defer h.wg.Done()
	if err := h.call(id, l, snap); err != nil {
		h.log.Debug("listener failed", "listener", id, "hash", snap.ShortHash(), "err", err)
		h.report(id, l, err)
	}
}

func (h *Hub) call(id string, l Listener, snap content.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener %s panicked: %v: %w", id, r, ErrListenerFailure)
		}
	}()
	if err := l.OnChange(snap); err != nil {
		return fmt.Errorf("listener %s: %w: %w", id, ErrListenerFailure, err)
	}
	return nil
}

func (h *Hub) report(id string, l Listener, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("listener error handler panicked", "listener", id, "panic", r, "err", err)
		}
	}()
	l.OnError(err)
}

func (h *Hub) notifyCount(total int) {
	h.countMu.RLock()
	fn := h.onCount
	h.countMu.RUnlock()
	if fn != nil {
		fn(total)
	}
}
