//go:build !darwin && !linux && !windows

package clip

// New returns a no-op backend suitable for headless containers.
func New() Backend {
	return &headlessBackend{}
}
