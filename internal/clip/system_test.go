//go:build darwin || linux || windows

package clip

import (
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.design/x/clipboard"
)

// fakeClipboard stands in for the platform clipboard functions.
type fakeClipboard struct {
	mu      sync.Mutex
	data    map[clipboard.Format][]byte
	writes  int
	changed chan struct{}
}

func installFake(t *testing.T, data map[clipboard.Format][]byte) *fakeClipboard {
	t.Helper()
	f := &fakeClipboard{data: data}
	oldRead, oldWrite := clipboardRead, clipboardWrite
	clipboardRead = f.read
	clipboardWrite = f.write
	t.Cleanup(func() { clipboardRead, clipboardWrite = oldRead, oldWrite })
	return f
}

func (f *fakeClipboard) read(t clipboard.Format) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[t]
}

func (f *fakeClipboard) write(t clipboard.Format, b []byte) <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.data = map[clipboard.Format][]byte{t: b}
	f.changed = make(chan struct{})
	return f.changed
}

// replace simulates another application writing the clipboard.
func (f *fakeClipboard) replace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	close(f.changed)
}

func TestSystemClaim_EmptyLeavesClipboardAlone(t *testing.T) {
	f := installFake(t, nil)
	b := &systemBackend{done: make(chan struct{})}
	defer b.Close()

	err := b.Claim(func() {})
	require.ErrorIs(t, err, ErrNothingToClaim)
	assert.Zero(t, f.writes)
}

func TestSystemClaim_TextAndImageLeavesClipboardAlone(t *testing.T) {
	f := installFake(t, map[clipboard.Format][]byte{
		clipboard.FmtText:  []byte("caption"),
		clipboard.FmtImage: []byte("png bytes"),
	})
	b := &systemBackend{done: make(chan struct{})}
	defer b.Close()

	err := b.Claim(func() {})
	require.ErrorIs(t, err, ErrLossyClaim)
	assert.Zero(t, f.writes)
}

func TestSystemClaim_RewritesSingleRepresentation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := installFake(t, map[clipboard.Format][]byte{clipboard.FmtText: []byte("hello")})
		b := &systemBackend{done: make(chan struct{})}
		defer b.Close()

		lost := make(chan struct{}, 2)
		require.NoError(t, b.Claim(func() { lost <- struct{}{} }))
		assert.Equal(t, 1, f.writes)
		assert.Equal(t, []byte("hello"), f.read(clipboard.FmtText))

		f.replace()
		synctest.Wait()
		assert.Len(t, lost, 1)
	})
}

func TestSystemClaim_SupersededClaimStaysQuiet(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := installFake(t, map[clipboard.Format][]byte{clipboard.FmtText: []byte("hello")})
		b := &systemBackend{done: make(chan struct{})}
		defer b.Close()

		var mu sync.Mutex
		var calls []string
		record := func(name string) func() {
			return func() {
				mu.Lock()
				defer mu.Unlock()
				calls = append(calls, name)
			}
		}

		require.NoError(t, b.Claim(record("first")))
		f.mu.Lock()
		first := f.changed
		f.mu.Unlock()
		require.NoError(t, b.Claim(record("second")))

		close(first)
		synctest.Wait()
		mu.Lock()
		assert.Empty(t, calls)
		mu.Unlock()

		f.replace()
		synctest.Wait()
		mu.Lock()
		assert.Equal(t, []string{"second"}, calls)
		mu.Unlock()
	})
}
