// Package sink streams clipboard change notifications as newline-delimited
// JSON CHANGE messages, for clipmon watch --events.
package sink

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/message"
)

const queueSize = 64

// Sink is a hub.Listener that hands snapshots to a single writer goroutine.
// OnChange never blocks: when the queue is full the snapshot is dropped.
type Sink struct {
	w    io.Writer
	log  *slog.Logger
	ch   chan content.Snapshot
	done chan struct{}
}

// New returns a Sink writing to w. Call Run to start writing.
func New(w io.Writer, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		w:    w,
		log:  log,
		ch:   make(chan content.Snapshot, queueSize),
		done: make(chan struct{}),
	}
}

// OnChange implements hub.Listener.
func (s *Sink) OnChange(snap content.Snapshot) error {
	select {
	case s.ch <- snap:
	default:
		s.log.Warn("event sink queue full, dropping", "hash", snap.ShortHash())
	}
	return nil
}

// OnError implements hub.Listener.
func (s *Sink) OnError(err error) {
	s.log.Error("event sink failed", "err", err)
}

// Run writes queued snapshots until ctx is cancelled, then drains what is
// already queued. It always returns nil.
func (s *Sink) Run(ctx context.Context) error {
	defer close(s.done)
	enc := json.NewEncoder(s.w)
	for {
		select {
		case snap := <-s.ch:
			s.write(enc, snap)
		case <-ctx.Done():
			for {
				select {
				case snap := <-s.ch:
					s.write(enc, snap)
				default:
					return nil
				}
			}
		}
	}
}

// Done is closed when Run returns.
func (s *Sink) Done() <-chan struct{} { return s.done }

func (s *Sink) write(enc *json.Encoder, snap content.Snapshot) {
	msg, err := message.FromSnapshot(message.TypeChange, snap)
	if err != nil {
		// Unknown content still gets an event, just without a payload.
		msg = &message.Message{Type: message.TypeChange, Kind: snap.Kind.String(), Hash: snap.Hash, Size: snap.Size}
	}
	if err := enc.Encode(msg); err != nil {
		s.log.Error("event sink write failed", "err", err)
	}
}
