// Package monitor ties a change detector, the own-content tracker and the
// listener hub together.
//
// Detected changes land in a single pending slot. A coalescing loop promotes
// the slot once it has stayed unchanged for the debounce period, re-reads
// the clipboard to confirm, and fans the result out. Content written through
// Monitor.Write is remembered for a few seconds so it is not echoed back.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/detector"
	"go.klb.dev/clipmon/internal/hub"
	"go.klb.dev/clipmon/internal/owntrack"
)

// ErrClosed is returned by operations on a closed Monitor.
var ErrClosed = errors.New("monitor closed")

// Port is the clipboard the Monitor reads, writes and claims.
// *clip.Accessor implements it.
type Port interface {
	Read(ctx context.Context) (content.Snapshot, error)
	Write(ctx context.Context, c content.Content) error
	Claim(onLost func()) error
}

// Monitor notifies listeners of clipboard changes. Create one with New.
type Monitor struct {
	port Port
	cfg  Config
	log  *slog.Logger
	det  detector.Detector
	own  *owntrack.Tracker
	hub  *hub.Hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	lifecycle sync.Mutex // serialises Start and Close
	running   atomic.Bool
	closed    atomic.Bool
	startedAt atomic.Int64 // unix nanos

	mu      sync.Mutex // guards pending and arrival
	pending *content.Snapshot
	arrival time.Time

	lastNotified atomic.Value // string

	notifications atomic.Int64
	failures      atomic.Int64
}

// New validates cfg and returns a Monitor that is not yet running.
func New(port Port, cfg Config, listeners ...hub.Listener) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	kind, _ := detector.ParseKind(string(cfg.Detector))
	cfg.Detector = kind
	var (
		det detector.Detector
		err error
	)
	switch kind {
	case detector.KindOwnership:
		det, err = detector.NewOwnership(port, cfg.OwnershipDelay, log)
	default:
		det, err = detector.NewPolling(port, cfg.PollInterval, log)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Monitor{
		port:   port,
		cfg:    cfg,
		log:    log,
		det:    det,
		own:    owntrack.New(owntrack.WithTTL(cfg.OwnTTL), owntrack.WithCapacity(cfg.OwnCapacity)),
		hub:    hub.New(log),
		ctx:    ctx,
		cancel: cancel,
	}
	m.lastNotified.Store("")
	for _, l := range listeners {
		m.hub.Register(l)
	}
	return m, nil
}

// Start captures the current clipboard as the baseline and begins
// monitoring. It is a no-op on a running Monitor and fails with ErrClosed
// after Close. If the clipboard is unavailable Start returns the error and
// may be retried.
func (m *Monitor) Start(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.closed.Load() {
		return ErrClosed
	}
	if !m.running.CompareAndSwap(false, true) {
		m.log.Debug("monitor already running")
		return nil
	}

	baseline := ""
	initial, err := m.port.Read(ctx)
	switch {
	case err == nil:
		baseline = initial.Hash
	case errors.Is(err, content.ErrUnavailable), ctx.Err() != nil:
		m.running.Store(false)
		return fmt.Errorf("read initial clipboard: %w", err)
	default:
		m.log.Warn("could not capture initial clipboard state", "err", err)
	}
	m.lastNotified.Store(baseline)
	m.log.Debug("initial clipboard hash", "hash", content.Short(baseline))

	if err == nil && m.cfg.NotifyOnStart {
		m.notifications.Add(1)
		m.hub.Publish(initial)
	}

	if err := m.det.Start(m.ctx, m.onContentChange, baseline); err != nil {
		m.running.Store(false)
		return fmt.Errorf("start %s detector: %w", m.det.Kind(), err)
	}

	m.startedAt.Store(time.Now().UnixNano())
	m.wg.Add(1)
	go m.loop()

	m.log.Info("clipboard monitor started", "detector", m.det.Kind(), "debounce", m.cfg.Debounce)
	return nil
}

// Close stops monitoring for good. It waits for the detector and the
// coalescing loop to exit; listener calls already in flight may still be
// running when it returns. Close is idempotent.
func (m *Monitor) Close() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if !m.closed.CompareAndSwap(false, true) {
		return
	}
	m.running.Store(false)
	m.det.Stop()
	m.cancel()
	m.wg.Wait()
	m.own.Clear()

	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()

	m.log.Info("clipboard monitor closed")
}

// IsRunning reports whether the Monitor has been started and not closed.
func (m *Monitor) IsRunning() bool { return m.running.Load() }

// Write puts c on the clipboard and records it as our own, so the change it
// causes is not reported to listeners.
func (m *Monitor) Write(ctx context.Context, c content.Content) error {
	if m.closed.Load() {
		return ErrClosed
	}
	hash, err := content.CanonicalHash(c)
	if err != nil {
		return err
	}

	m.own.MarkOwn(hash)
	if err := m.port.Write(ctx, c); err != nil {
		m.own.Forget(hash)
		return fmt.Errorf("write clipboard: %w", err)
	}

	switch d := m.det.(type) {
	case *detector.Polling:
		d.UpdateLastHash(hash)
	case *detector.Ownership:
		_ = d.RetakeOwnership() // logged by the detector
	}
	m.lastNotified.Store(hash)

	m.log.Debug("wrote clipboard", "kind", c.Kind.String(), "hash", content.Short(hash))
	return nil
}

// Read returns the current clipboard contents.
func (m *Monitor) Read(ctx context.Context) (content.Snapshot, error) {
	return m.port.Read(ctx)
}

// TryRead is Read for callers that only care whether it worked.
func (m *Monitor) TryRead(ctx context.Context) (content.Snapshot, bool) {
	snap, err := m.port.Read(ctx)
	if err != nil {
		m.log.Debug("could not read clipboard", "err", err)
		return content.Snapshot{}, false
	}
	return snap, true
}

// AddListener registers l and returns its ID.
func (m *Monitor) AddListener(l hub.Listener) string { return m.hub.Register(l) }

// RemoveListener unregisters the listener with the given ID.
func (m *Monitor) RemoveListener(id string) bool { return m.hub.Unregister(id) }

// onContentChange runs on the detector goroutine.
func (m *Monitor) onContentChange(snap content.Snapshot) {
	if !m.running.Load() {
		return
	}
	if m.own.IsOwn(snap.Hash) {
		m.log.Debug("ignoring own content", "hash", snap.ShortHash())
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil || m.pending.Hash != snap.Hash {
		m.pending = &snap
		m.arrival = time.Now()
		m.log.Debug("new pending content", "hash", snap.ShortHash())
	}
}

func (m *Monitor) loop() {
	defer m.wg.Done()
	t := time.NewTicker(m.cfg.Tick)
	defer t.Stop()
	for {
		select {
		case <-m.ctx.Done():
			m.log.Debug("watch loop ended")
			return
		case <-t.C:
			m.tick()
		}
	}
}

func (m *Monitor) tick() {
	m.mu.Lock()
	p, at := m.pending, m.arrival
	m.mu.Unlock()

	if p == nil {
		return
	}
	if p.Hash == m.lastHash() {
		m.clearPending(p.Hash)
		return
	}
	if time.Since(at) < m.cfg.Debounce {
		return
	}
	m.promote(*p)
}

func (m *Monitor) promote(p content.Snapshot) {
	current, err := m.port.Read(m.ctx)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		m.failures.Add(1)
		m.log.Error("error processing clipboard change", "err", err)
		m.clearPending(p.Hash)
		return
	}

	deliver := p
	if current.Hash != p.Hash {
		m.log.Debug("content changed during debounce, using current",
			"expected", p.ShortHash(), "got", current.ShortHash())
		deliver = current
	}
	m.clearPending(p.Hash, deliver.Hash)

	if deliver.Hash == m.lastHash() || m.own.IsOwn(deliver.Hash) {
		return
	}
	if m.ctx.Err() != nil {
		return
	}
	m.lastNotified.Store(deliver.Hash)
	m.notifications.Add(1)
	m.hub.Publish(deliver)
}

// clearPending empties the slot if it still holds one of hashes. A change
// that arrived while promoting stays pending.
func (m *Monitor) clearPending(hashes ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return
	}
	for _, h := range hashes {
		if m.pending.Hash == h {
			m.pending = nil
			return
		}
	}
}

func (m *Monitor) lastHash() string { return m.lastNotified.Load().(string) }
