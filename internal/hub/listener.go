package hub

import "go.klb.dev/clipmon/internal/content"

// Listener receives clipboard change notifications.
//
//go:generate go tool mockgen -destination=mocks/listener_mock.go -package=mocks -source=listener.go
type Listener interface {
	// OnChange is called with every new clipboard snapshot. Each call runs on
	// its own goroutine; a returned error is passed to OnError.
	OnChange(snap content.Snapshot) error

	// OnError receives failures of this listener's own OnChange calls.
	OnError(err error)
}

// ListenerFuncs adapts a pair of functions to Listener. Either may be nil.
type ListenerFuncs struct {
	Change func(content.Snapshot) error
	Error  func(error)
}

func (f ListenerFuncs) OnChange(snap content.Snapshot) error {
	if f.Change == nil {
		return nil
	}
	return f.Change(snap)
}

func (f ListenerFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
