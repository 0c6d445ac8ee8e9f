//go:build darwin || linux || windows

package clip

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.design/x/clipboard"

	"go.klb.dev/clipmon/internal/content"
)

// Swapped out in tests, which have no display.
var (
	clipboardRead  = clipboard.Read
	clipboardWrite = clipboard.Write
)

type systemBackend struct {
	mu   sync.Mutex
	gen  uint64 // bumped by every Claim; stale loss signals are dropped
	done chan struct{}
	once sync.Once
}

// New returns the platform clipboard backend, or a headless no-op backend if
// the display environment is unavailable (e.g. a headless server without X11
// or Wayland). clipboard.Init is called here rather than in init() so that
// CLI sub-commands that never construct a Backend don't log the warning.
func New() Backend {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard unavailable, running headless", "err", err)
		return &headlessBackend{}
	}
	return &systemBackend{done: make(chan struct{})}
}

func (b *systemBackend) Name() string { return runtime.GOOS + " clipboard" }

func (b *systemBackend) Read() ([]content.Item, error) {
	var items []content.Item
	if text := clipboardRead(clipboard.FmtText); text != nil {
		items = append(items, content.Item{MIME: content.MIMEText, Data: text})
	}
	if img := clipboardRead(clipboard.FmtImage); img != nil {
		items = append(items, content.Item{MIME: content.MIMEPNG, Data: img})
	}
	return items, nil
}

func (b *systemBackend) Write(items []content.Item) error {
	for _, it := range items {
		f, err := format(it.MIME)
		if err != nil {
			return err
		}
		clipboardWrite(f, it.Data)
	}
	return nil
}

// Claim re-writes the current contents so that this process owns them. The
// channel returned by clipboard.Write is closed as soon as another writer
// replaces the contents, which is the ownership-loss signal.
//
// Only a clipboard holding exactly one readable representation is claimed.
// An empty clipboard, or one holding only formats this backend cannot read
// (file lists, rich text), returns ErrNothingToClaim; text plus image
// returns ErrLossyClaim. Neither touches the clipboard. Formats invisible to
// the backend that sit next to the one readable representation are still
// dropped by the re-write.
func (b *systemBackend) Claim(onLost func()) error {
	items, _ := b.Read()
	switch len(items) {
	case 0:
		return ErrNothingToClaim
	case 1:
	default:
		return fmt.Errorf("%d representations: %w", len(items), ErrLossyClaim)
	}
	f, err := format(items[0].MIME)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	changed := clipboardWrite(f, items[0].Data)
	go func() {
		select {
		case <-b.done:
			return
		case <-changed:
		}
		b.mu.Lock()
		current := b.gen == gen
		b.mu.Unlock()
		if current {
			onLost()
		}
	}()
	return nil
}

func (b *systemBackend) Close() { b.once.Do(func() { close(b.done) }) }

func format(mime string) (clipboard.Format, error) {
	switch mime {
	case content.MIMEText:
		return clipboard.FmtText, nil
	case content.MIMEPNG:
		return clipboard.FmtImage, nil
	default:
		return 0, fmt.Errorf("unsupported MIME type %s: %w", mime, content.ErrUnwritable)
	}
}
