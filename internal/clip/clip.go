// Package clip provides access to the shared clipboard. Backends exchange raw
// MIME-typed items with the platform; the Accessor layered on top retries
// transient contention and classifies what it reads into hashed snapshots.
//
//	system.go    golang.design/x/clipboard (darwin, linux, windows)
//	other.go     headless stub for every other platform
//	headless.go  no-op backend used when no display is available
//	memory.go    in-process clipboard, for tests and --backend memory
package clip

import (
	"errors"

	"go.klb.dev/clipmon/internal/content"
)

// Claim failures that leave the clipboard untouched.
var (
	ErrNothingToClaim = errors.New("clipboard holds nothing that can be claimed")
	ErrLossyClaim     = errors.New("claiming would drop clipboard formats")
)

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents as typed items.
	// Returns nil, nil if the clipboard is empty. A momentarily locked
	// clipboard yields an error matching content.ErrBusy.
	Read() ([]content.Item, error)

	// Write replaces the clipboard contents with items.
	Write(items []content.Item) error

	// Close releases any resources held by the backend.
	Close()
}

// Owner is implemented by backends that can hold an ownership token over the
// clipboard and report when another writer takes it away.
type Owner interface {
	// Claim takes ownership of the current contents. onLost is called once,
	// on an arbitrary goroutine, when another write replaces them. A new
	// Claim supersedes the previous one.
	Claim(onLost func()) error
}
