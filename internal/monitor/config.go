package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipmon/internal/detector"
	"go.klb.dev/clipmon/internal/owntrack"
)

// ErrInvalidConfig is wrapped by every Config validation failure.
var ErrInvalidConfig = errors.New("invalid monitor config")

const (
	DefaultDebounce = 50 * time.Millisecond
	DefaultTick     = 10 * time.Millisecond
)

// Config controls how a Monitor detects and coalesces changes.
// Start from DefaultConfig; zero durations are taken literally.
type Config struct {
	// Detector selects the change detection strategy.
	Detector detector.Kind

	// PollInterval is the polling detector's read interval. Must be > 0.
	PollInterval time.Duration

	// OwnershipDelay is how long the ownership detector lets a writer settle
	// before reading. Must be >= 0.
	OwnershipDelay time.Duration

	// Debounce is how long a change must stay unchanged before listeners
	// hear about it. Must be >= 0.
	Debounce time.Duration

	// Tick is the coalescing loop's period. Must be > 0.
	Tick time.Duration

	// OwnTTL and OwnCapacity bound the set of hashes recognised as our own
	// writes.
	OwnTTL      time.Duration
	OwnCapacity int

	// NotifyOnStart announces the clipboard's contents when Start runs.
	NotifyOnStart bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used by clipmon watch unless
// overridden.
func DefaultConfig() Config {
	return Config{
		Detector:       detector.KindPolling,
		PollInterval:   detector.DefaultPollInterval,
		OwnershipDelay: detector.DefaultSettleDelay,
		Debounce:       DefaultDebounce,
		Tick:           DefaultTick,
		OwnTTL:         owntrack.DefaultTTL,
		OwnCapacity:    owntrack.DefaultCapacity,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, err := detector.ParseKind(string(c.Detector)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive, got %s", ErrInvalidConfig, c.PollInterval)
	case c.OwnershipDelay < 0:
		return fmt.Errorf("%w: ownership delay must not be negative, got %s", ErrInvalidConfig, c.OwnershipDelay)
	case c.Debounce < 0:
		return fmt.Errorf("%w: debounce must not be negative, got %s", ErrInvalidConfig, c.Debounce)
	case c.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalidConfig, c.Tick)
	case c.OwnTTL <= 0:
		return fmt.Errorf("%w: own-content TTL must be positive, got %s", ErrInvalidConfig, c.OwnTTL)
	case c.OwnCapacity <= 0:
		return fmt.Errorf("%w: own-content capacity must be positive, got %d", ErrInvalidConfig, c.OwnCapacity)
	}
	return nil
}
