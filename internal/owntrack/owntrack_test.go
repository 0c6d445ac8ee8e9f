package owntrack_test

import (
	"fmt"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmon/internal/owntrack"
)

func TestTracker_MarkAndLookup(t *testing.T) {
	tr := owntrack.New()
	tr.MarkOwn("a")

	assert.True(t, tr.IsOwn("a"))
	assert.False(t, tr.IsOwn("b"))
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_EmptyHash(t *testing.T) {
	tr := owntrack.New()
	tr.MarkOwn("")

	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.IsOwn(""))
}

func TestTracker_CapacityEvictsLeastRecentlyTouched(t *testing.T) {
	tr := owntrack.New()
	for i := range 11 {
		tr.MarkOwn(fmt.Sprintf("h%d", i))
	}

	assert.LessOrEqual(t, tr.Len(), 10)
	assert.False(t, tr.IsOwn("h0"))
	for i := 1; i < 11; i++ {
		assert.True(t, tr.IsOwn(fmt.Sprintf("h%d", i)))
	}
}

func TestTracker_LookupCountsAsTouch(t *testing.T) {
	tr := owntrack.New()
	for i := range 10 {
		tr.MarkOwn(fmt.Sprintf("h%d", i))
	}
	require.True(t, tr.IsOwn("h0"))

	tr.MarkOwn("h10")

	assert.True(t, tr.IsOwn("h0"))
	assert.False(t, tr.IsOwn("h1"))
}

func TestTracker_RemarkRefreshes(t *testing.T) {
	tr := owntrack.New(owntrack.WithCapacity(2))
	tr.MarkOwn("a")
	tr.MarkOwn("b")
	tr.MarkOwn("a")
	tr.MarkOwn("c")

	assert.True(t, tr.IsOwn("a"))
	assert.False(t, tr.IsOwn("b"))
	assert.True(t, tr.IsOwn("c"))
}

func TestTracker_TTL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := owntrack.New()
		tr.MarkOwn("x")

		time.Sleep(4 * time.Second)
		assert.True(t, tr.IsOwn("x"))

		time.Sleep(1100 * time.Millisecond)
		assert.False(t, tr.IsOwn("x"))
		assert.Equal(t, 0, tr.Len(), "expired entries are dropped on lookup")
	})
}

func TestTracker_LookupDoesNotExtendTTL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		tr := owntrack.New()
		tr.MarkOwn("x")
		for range 5 {
			time.Sleep(time.Second)
			tr.IsOwn("x")
		}
		time.Sleep(100 * time.Millisecond)
		assert.False(t, tr.IsOwn("x"))
	})
}

func TestTracker_InsertDropsExpiredTail(t *testing.T) {
	now := time.Unix(0, 0)
	tr := owntrack.New(owntrack.WithClock(func() time.Time { return now }))
	tr.MarkOwn("old")
	now = now.Add(10 * time.Second)
	tr.MarkOwn("new")

	assert.Equal(t, 1, tr.Len())
	assert.True(t, tr.IsOwn("new"))
}

func TestTracker_Forget(t *testing.T) {
	tr := owntrack.New()
	tr.MarkOwn("a")
	tr.MarkOwn("b")
	tr.MarkOwn("c")

	tr.Forget("b")
	tr.Forget("missing")
	assert.False(t, tr.IsOwn("b"))
	assert.Equal(t, 2, tr.Len())

	tr.Forget("a")
	tr.Forget("c")
	assert.Zero(t, tr.Len())
	tr.MarkOwn("d")
	assert.True(t, tr.IsOwn("d"))
}

func TestTracker_Clear(t *testing.T) {
	tr := owntrack.New()
	tr.MarkOwn("a")
	tr.MarkOwn("b")
	tr.Clear()

	assert.Equal(t, 0, tr.Len())
	assert.False(t, tr.IsOwn("a"))

	tr.MarkOwn("c")
	assert.True(t, tr.IsOwn("c"))
}

func TestTracker_Concurrent(t *testing.T) {
	tr := owntrack.New()
	var wg sync.WaitGroup
	for g := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				h := fmt.Sprintf("g%d-%d", g, i)
				tr.MarkOwn(h)
				tr.IsOwn(h)
				if i%25 == 0 {
					tr.Clear()
				}
				assert.LessOrEqual(t, tr.Len(), 10)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, tr.Len(), 10)
}
