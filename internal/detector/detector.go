// Package detector watches the clipboard and reports changes.
//
// Two strategies are provided. Polling reads the clipboard on a fixed
// interval and compares hashes; Ownership holds the clipboard's ownership
// token and re-reads only when another writer takes it away. The set is
// closed: Detector carries an unexported method, so callers can switch on
// the concrete type for strategy-specific follow-up after a write.
package detector

import (
	"context"
	"errors"
	"fmt"

	"go.klb.dev/clipmon/internal/content"
)

// ErrInvalidTiming is returned for a non-positive poll interval or a
// negative settle delay.
var ErrInvalidTiming = errors.New("invalid detector timing")

// Kind names a detection strategy.
type Kind string

const (
	KindPolling   Kind = "polling"
	KindOwnership Kind = "ownership"
)

// ParseKind parses a strategy name. The empty string selects polling.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindPolling:
		return KindPolling, nil
	case KindOwnership:
		return KindOwnership, nil
	default:
		return "", fmt.Errorf("unknown detector %q (want polling or ownership)", s)
	}
}

// Reader is the part of the clipboard port a detector reads through.
type Reader interface {
	Read(ctx context.Context) (content.Snapshot, error)
}

// Claimer is a Reader that can also take the clipboard's ownership token.
type Claimer interface {
	Reader
	Claim(onLost func()) error
}

// Detector is implemented by *Polling and *Ownership only.
type Detector interface {
	// Start begins watching. onChange is called from the detector's own
	// goroutine with every snapshot that may be new. initialHash is the hash
	// the caller already knows about. Start on a running detector is a no-op.
	Start(ctx context.Context, onChange func(content.Snapshot), initialHash string) error

	// Stop halts watching and waits for the detector goroutine to exit.
	// It is safe to call more than once.
	Stop()

	IsRunning() bool
	Kind() Kind

	sealed()
}
