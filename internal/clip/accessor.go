package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"go.klb.dev/clipmon/internal/content"
)

const (
	// DefaultAttempts is the number of tries made for a busy clipboard.
	DefaultAttempts = 3
	// DefaultBackoff is the base of the linear backoff between tries.
	DefaultBackoff = 50 * time.Millisecond
)

// Accessor wraps a Backend with bounded retry on contention and turns raw
// items into classified, hashed snapshots.
type Accessor struct {
	backend  Backend
	attempts int
	backoff  time.Duration
	log      *slog.Logger
}

// AccessorOption configures an Accessor.
type AccessorOption func(*Accessor)

// WithAttempts sets how many times a busy read or write is tried.
func WithAttempts(n int) AccessorOption {
	return func(a *Accessor) {
		if n > 0 {
			a.attempts = n
		}
	}
}

// WithBackoff sets the linear backoff step; the n-th retry sleeps n*d.
func WithBackoff(d time.Duration) AccessorOption {
	return func(a *Accessor) {
		if d >= 0 {
			a.backoff = d
		}
	}
}

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(l *slog.Logger) AccessorOption {
	return func(a *Accessor) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAccessor returns an Accessor over b.
func NewAccessor(b Backend, opts ...AccessorOption) *Accessor {
	a := &Accessor{
		backend:  b,
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
		log:      slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Name returns the underlying backend's name.
func (a *Accessor) Name() string { return a.backend.Name() }

// Read returns a snapshot of the current clipboard contents.
//
// ErrBusy and ErrChangedDuringRead are retried. When every attempt raced a
// writer the result is an Unknown snapshot with a unique fallback hash, so
// the caller still observes a change. When every attempt found the clipboard
// busy the error matches both ErrUnavailable and ErrBusy.
func (a *Accessor) Read(ctx context.Context) (content.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return content.Snapshot{}, err
	}
	items, err := retry.DoWithData(a.backend.Read, a.retryOpts(ctx, "read", retryableRead)...)
	switch {
	case err == nil:
		return content.Classify(items, time.Now()), nil
	case ctx.Err() != nil:
		return content.Snapshot{}, ctx.Err()
	case errors.Is(err, content.ErrChangedDuringRead):
		a.log.Warn("clipboard kept changing during read, using fallback hash", "backend", a.backend.Name())
		return content.Fallback(time.Now()), nil
	case errors.Is(err, content.ErrBusy):
		return content.Snapshot{}, fmt.Errorf("%w after %d attempts: %w", content.ErrUnavailable, a.attempts, err)
	default:
		return content.Snapshot{}, fmt.Errorf("read %s: %w", a.backend.Name(), err)
	}
}

// Write replaces the clipboard contents with c. Only ErrBusy is retried.
func (a *Accessor) Write(ctx context.Context, c content.Content) error {
	items, err := content.Encode(c)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err = retry.Do(func() error { return a.backend.Write(items) }, a.retryOpts(ctx, "write", retryableWrite)...)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, content.ErrBusy):
		return fmt.Errorf("%w after %d attempts: %w", content.ErrUnavailable, a.attempts, err)
	default:
		return fmt.Errorf("write %s: %w", a.backend.Name(), err)
	}
}

// Claim takes ownership of the clipboard if the backend supports it.
func (a *Accessor) Claim(onLost func()) error {
	o, ok := a.backend.(Owner)
	if !ok {
		return fmt.Errorf("%s: %w", a.backend.Name(), content.ErrOwnershipUnsupported)
	}
	return o.Claim(onLost)
}

// Close closes the underlying backend.
func (a *Accessor) Close() { a.backend.Close() }

// retryOpts makes attempt i+1 wait i*backoff: 50ms, then 100ms by default.
func (a *Accessor) retryOpts(ctx context.Context, op string, retryIf retry.RetryIfFunc) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(a.attempts)),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryIf),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return a.backoff * time.Duration(n+1)
		}),
		retry.OnRetry(func(n uint, err error) {
			a.log.Debug("clipboard "+op+" retry", "backend", a.backend.Name(), "attempt", n+1, "err", err)
		}),
	}
}

func retryableRead(err error) bool {
	return errors.Is(err, content.ErrBusy) || errors.Is(err, content.ErrChangedDuringRead)
}

func retryableWrite(err error) bool { return errors.Is(err, content.ErrBusy) }
