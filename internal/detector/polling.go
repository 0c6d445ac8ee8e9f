package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipmon/internal/content"
)

// DefaultPollInterval is used by polling detectors unless overridden.
const DefaultPollInterval = 200 * time.Millisecond

// Polling detects changes by re-reading and re-hashing the clipboard on a
// fixed interval.
type Polling struct {
	port     Reader
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex // serialises Start and Stop
	cancel   context.CancelFunc
	done     chan struct{}
	running  atomic.Bool
	lastHash atomic.Value // string
}

// NewPolling returns a stopped polling detector reading through port.
func NewPolling(port Reader, interval time.Duration, log *slog.Logger) (*Polling, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval %s must be positive: %w", interval, ErrInvalidTiming)
	}
	if log == nil {
		log = slog.Default()
	}
	p := &Polling{port: port, interval: interval, log: log}
	p.lastHash.Store("")
	return p, nil
}

func (p *Polling) sealed() {}

func (p *Polling) Kind() Kind { return KindPolling }

// Interval returns the poll interval.
func (p *Polling) Interval() time.Duration { return p.interval }

func (p *Polling) IsRunning() bool { return p.running.Load() }

func (p *Polling) Start(ctx context.Context, onChange func(content.Snapshot), initialHash string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running.Load() {
		p.log.Debug("polling detector already running")
		return nil
	}

	p.lastHash.Store(initialHash)
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	p.running.Store(true)
	go p.loop(ctx, onChange, p.done)

	p.log.Debug("polling detector started", "interval", p.interval, "baseline", content.Short(initialHash))
	return nil
}

func (p *Polling) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running.Load() {
		return
	}
	p.running.Store(false)
	p.cancel()
	<-p.done
	p.log.Debug("polling detector stopped")
}

// UpdateLastHash replaces the baseline without reporting a change. Call it
// after writing to the clipboard so the write is not seen as new.
func (p *Polling) UpdateLastHash(hash string) {
	p.lastHash.Store(hash)
	p.log.Debug("updated last known hash", "hash", content.Short(hash))
}

// LastHash returns the current baseline.
func (p *Polling) LastHash() string { return p.lastHash.Load().(string) }

func (p *Polling) loop(ctx context.Context, onChange func(content.Snapshot), done chan struct{}) {
	defer close(done)
	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.poll(ctx, onChange)
		}
	}
}

func (p *Polling) poll(ctx context.Context, onChange func(content.Snapshot)) {
	snap, err := p.port.Read(ctx)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return
	case errors.Is(err, content.ErrBusy), errors.Is(err, content.ErrUnavailable):
		p.log.Debug("clipboard busy during poll, will retry next cycle", "err", err)
		return
	default:
		p.log.Error("clipboard poll failed", "err", err)
		return
	}

	last := p.LastHash()
	if snap.Hash == last {
		return
	}
	p.log.Debug("clipboard change detected via polling", "old", content.Short(last), "new", snap.ShortHash())
	p.lastHash.Store(snap.Hash)
	onChange(snap)
}
