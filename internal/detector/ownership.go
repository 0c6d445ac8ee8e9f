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

// DefaultSettleDelay is how long an ownership detector waits after losing
// the clipboard before reading it.
const DefaultSettleDelay = 50 * time.Millisecond

// Ownership detects changes by holding the clipboard's ownership token.
// When another writer takes it, the detector waits for the writer to
// settle, reads the new contents, reports them and claims the token again.
type Ownership struct {
	port  Claimer
	delay time.Duration
	log   *slog.Logger

	mu      sync.Mutex // serialises Start and Stop
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool
	lost    chan struct{}
}

// NewOwnership returns a stopped ownership detector using port.
func NewOwnership(port Claimer, delay time.Duration, log *slog.Logger) (*Ownership, error) {
	if delay < 0 {
		return nil, fmt.Errorf("settle delay %s must not be negative: %w", delay, ErrInvalidTiming)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Ownership{
		port:  port,
		delay: delay,
		log:   log,
		lost:  make(chan struct{}, 1),
	}, nil
}

func (o *Ownership) sealed() {}

func (o *Ownership) Kind() Kind { return KindOwnership }

// Delay returns the settle delay.
func (o *Ownership) Delay() time.Duration { return o.delay }

func (o *Ownership) IsRunning() bool { return o.running.Load() }

// Start claims the clipboard and begins waiting for ownership loss. It fails
// with content.ErrOwnershipUnsupported when the port cannot hold a claim;
// other claim failures are logged and the detector still starts.
func (o *Ownership) Start(ctx context.Context, onChange func(content.Snapshot), initialHash string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running.Load() {
		o.log.Debug("ownership detector already running")
		return nil
	}

	select {
	case <-o.lost:
	default:
	}
	o.running.Store(true)
	if err := o.port.Claim(o.signal); err != nil {
		if errors.Is(err, content.ErrOwnershipUnsupported) {
			o.running.Store(false)
			return err
		}
		o.log.Warn("could not take clipboard ownership", "err", err)
	}

	ctx, o.cancel = context.WithCancel(ctx)
	o.done = make(chan struct{})
	go o.loop(ctx, onChange, o.done)

	o.log.Debug("ownership detector started", "delay", o.delay, "baseline", content.Short(initialHash))
	return nil
}

func (o *Ownership) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.running.Load() {
		return
	}
	o.running.Store(false)
	o.cancel()
	<-o.done
	o.log.Debug("ownership detector stopped")
}

// RetakeOwnership claims the clipboard again. Call it after writing, since
// the write itself replaces the contents the previous claim covered.
func (o *Ownership) RetakeOwnership() error {
	if !o.running.Load() {
		return nil
	}
	if err := o.port.Claim(o.signal); err != nil {
		o.log.Warn("could not re-take clipboard ownership", "err", err)
		return err
	}
	o.log.Debug("re-took clipboard ownership after write")
	return nil
}

// signal runs on whatever goroutine the backend reports loss from. It must
// not block.
func (o *Ownership) signal() {
	if !o.running.Load() {
		return
	}
	select {
	case o.lost <- struct{}{}:
	default:
	}
}

func (o *Ownership) loop(ctx context.Context, onChange func(content.Snapshot), done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.lost:
		}
		o.log.Debug("lost clipboard ownership")

		if o.delay > 0 {
			t := time.NewTimer(o.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}

		snap, err := o.port.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.log.Error("could not read clipboard after ownership loss", "err", err)
		} else {
			onChange(snap)
		}

		if err := o.port.Claim(o.signal); err != nil {
			o.log.Warn("could not take clipboard ownership", "err", err)
		}
	}
}
