package detector_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmon/internal/clip"
	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/detector"
)

type recorder struct {
	mu    sync.Mutex
	snaps []content.Snapshot
}

func (r *recorder) record(s content.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.snaps))
	for _, s := range r.snaps {
		out = append(out, s.Text)
	}
	return out
}

type noOwner struct{}

func (noOwner) Name() string                  { return "no-owner" }
func (noOwner) Read() ([]content.Item, error) { return nil, nil }
func (noOwner) Write([]content.Item) error    { return nil }
func (noOwner) Close()                        {}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    detector.Kind
		wantErr bool
	}{
		{"", detector.KindPolling, false},
		{"polling", detector.KindPolling, false},
		{"ownership", detector.KindOwnership, false},
		{"inotify", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := detector.ParseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_InvalidTiming(t *testing.T) {
	port := clip.NewAccessor(clip.NewMemory())

	_, err := detector.NewPolling(port, 0, nil)
	require.ErrorIs(t, err, detector.ErrInvalidTiming)
	_, err = detector.NewPolling(port, -time.Second, nil)
	require.ErrorIs(t, err, detector.ErrInvalidTiming)

	_, err = detector.NewOwnership(port, -time.Millisecond, nil)
	require.ErrorIs(t, err, detector.ErrInvalidTiming)

	o, err := detector.NewOwnership(port, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), o.Delay())

	p, err := detector.NewPolling(port, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Second, p.Interval())
}

func TestPolling_DetectsChange(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		mem.SetText("a")
		p, err := detector.NewPolling(clip.NewAccessor(mem), detector.DefaultPollInterval, nil)
		require.NoError(t, err)

		var rec recorder
		require.NoError(t, p.Start(t.Context(), rec.record, content.HashText("a")))
		assert.True(t, p.IsRunning())
		assert.Equal(t, detector.KindPolling, p.Kind())

		time.Sleep(450 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, rec.texts(), "unchanged baseline is not reported")

		mem.SetText("b")
		time.Sleep(200 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"b"}, rec.texts())
		assert.Equal(t, content.HashText("b"), p.LastHash())

		time.Sleep(time.Second)
		synctest.Wait()
		assert.Len(t, rec.texts(), 1)

		p.Stop()
		assert.False(t, p.IsRunning())
	})
}

func TestPolling_UpdateLastHashSuppresses(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		p, err := detector.NewPolling(clip.NewAccessor(mem), 100*time.Millisecond, nil)
		require.NoError(t, err)

		var rec recorder
		require.NoError(t, p.Start(t.Context(), rec.record, content.HashBytes(nil)))

		mem.SetText("mine")
		p.UpdateLastHash(content.HashText("mine"))
		time.Sleep(350 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, rec.texts())
		p.Stop()
	})
}

func TestPolling_KeepsGoingWhenBusy(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		mem.SetText("x")
		mem.FailReads(3, content.ErrBusy)
		port := clip.NewAccessor(mem, clip.WithAttempts(1))
		p, err := detector.NewPolling(port, 100*time.Millisecond, nil)
		require.NoError(t, err)

		var rec recorder
		require.NoError(t, p.Start(t.Context(), rec.record, ""))

		time.Sleep(350 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, rec.texts())

		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"x"}, rec.texts())
		p.Stop()
	})
}

func TestPolling_Lifecycle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		p, err := detector.NewPolling(clip.NewAccessor(mem), 100*time.Millisecond, nil)
		require.NoError(t, err)

		p.Stop()
		assert.False(t, p.IsRunning())

		var rec recorder
		require.NoError(t, p.Start(t.Context(), rec.record, ""))
		require.NoError(t, p.Start(t.Context(), rec.record, ""))
		p.Stop()
		p.Stop()
		assert.False(t, p.IsRunning())

		mem.SetText("after stop")
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Empty(t, rec.texts())

		require.NoError(t, p.Start(t.Context(), rec.record, ""))
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"after stop"}, rec.texts())
		p.Stop()
	})
}

func TestOwnership_ReportsAfterLoss(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		mem.SetText("start")
		o, err := detector.NewOwnership(clip.NewAccessor(mem), detector.DefaultSettleDelay, nil)
		require.NoError(t, err)

		var rec recorder
		require.NoError(t, o.Start(t.Context(), rec.record, content.HashText("start")))
		assert.True(t, mem.Owned())
		assert.Equal(t, detector.KindOwnership, o.Kind())

		mem.SetText("other app")
		time.Sleep(40 * time.Millisecond)
		synctest.Wait()
		assert.Empty(t, rec.texts(), "waits for the settle delay")

		time.Sleep(20 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"other app"}, rec.texts())
		assert.True(t, mem.Owned(), "re-claims after reporting")

		mem.SetText("again")
		time.Sleep(60 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, []string{"other app", "again"}, rec.texts())

		o.Stop()
	})
}

func TestOwnership_Unsupported(t *testing.T) {
	o, err := detector.NewOwnership(clip.NewAccessor(noOwner{}), 0, nil)
	require.NoError(t, err)

	err = o.Start(t.Context(), func(content.Snapshot) {}, "")
	require.ErrorIs(t, err, content.ErrOwnershipUnsupported)
	assert.False(t, o.IsRunning())
}

func TestOwnership_StopDuringSettle(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		o, err := detector.NewOwnership(clip.NewAccessor(mem), time.Second, nil)
		require.NoError(t, err)

		var rec recorder
		require.NoError(t, o.Start(t.Context(), rec.record, ""))
		mem.SetText("x")
		time.Sleep(10 * time.Millisecond)

		o.Stop()
		time.Sleep(2 * time.Second)
		synctest.Wait()
		assert.Empty(t, rec.texts())
	})
}

func TestOwnership_Retake(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		mem := clip.NewMemory()
		o, err := detector.NewOwnership(clip.NewAccessor(mem), 0, nil)
		require.NoError(t, err)

		require.NoError(t, o.RetakeOwnership())
		assert.False(t, mem.Owned(), "no claim while stopped")

		var rec recorder
		require.NoError(t, o.Start(t.Context(), rec.record, ""))
		mem.SetText("written by us")
		require.NoError(t, o.RetakeOwnership())
		assert.True(t, mem.Owned())

		synctest.Wait()
		o.Stop()
	})
}
