package content

import "errors"

var (
	// ErrBusy means the clipboard is momentarily locked by another writer.
	// Callers retry it a bounded number of times before giving up.
	ErrBusy = errors.New("clipboard busy")

	// ErrUnavailable means the clipboard could not be reached after retries,
	// or is structurally absent (no display, no session).
	ErrUnavailable = errors.New("clipboard unavailable")

	// ErrChangedDuringRead means a read raced a concurrent write and the
	// representation it got was unusable.
	ErrChangedDuringRead = errors.New("clipboard changed during read")

	// ErrUnwritable is returned when asked to write content that has no
	// platform representation (Unknown kind, nil image).
	ErrUnwritable = errors.New("content cannot be written to the clipboard")
)

// ErrOwnershipUnsupported is returned by Claim when the backend cannot hold
// an ownership token over the clipboard.
var ErrOwnershipUnsupported = errors.New("clipboard ownership not supported by backend")
