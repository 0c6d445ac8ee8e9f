package clip

import (
	"slices"
	"sync"

	"go.klb.dev/clipmon/internal/content"
)

// Memory is an in-process clipboard. It supports ownership claims and lets
// callers inject read and write failures, which makes it the backend of
// choice for tests and for running the daemon without a display.
type Memory struct {
	mu          sync.Mutex
	items       []content.Item
	onLost      func()
	readFaults  []error
	writeFaults []error
	reads       int
	writes      int
}

// NewMemory returns a Memory clipboard holding items.
func NewMemory(items ...content.Item) *Memory {
	return &Memory{items: cloneItems(items)}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read() ([]content.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if len(m.readFaults) > 0 {
		err := m.readFaults[0]
		m.readFaults = m.readFaults[1:]
		return nil, err
	}
	return cloneItems(m.items), nil
}

func (m *Memory) Write(items []content.Item) error {
	m.mu.Lock()
	m.writes++
	if len(m.writeFaults) > 0 {
		err := m.writeFaults[0]
		m.writeFaults = m.writeFaults[1:]
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()
	m.Set(items...)
	return nil
}

// Set replaces the contents as another application would. The current owner,
// if any, loses ownership.
func (m *Memory) Set(items ...content.Item) {
	m.mu.Lock()
	m.items = cloneItems(items)
	lost := m.onLost
	m.onLost = nil
	m.mu.Unlock()
	if lost != nil {
		go lost()
	}
}

// SetText is shorthand for Set with a single text/plain item.
func (m *Memory) SetText(s string) {
	m.Set(content.Item{MIME: content.MIMEText, Data: []byte(s)})
}

func (m *Memory) Claim(onLost func()) error {
	m.mu.Lock()
	m.onLost = onLost
	m.mu.Unlock()
	return nil
}

// Owned reports whether a claim is currently held.
func (m *Memory) Owned() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onLost != nil
}

// FailReads makes the next n reads return err.
func (m *Memory) FailReads(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for range n {
		m.readFaults = append(m.readFaults, err)
	}
}

// FailWrites makes the next n writes return err.
func (m *Memory) FailWrites(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for range n {
		m.writeFaults = append(m.writeFaults, err)
	}
}

// Reads returns the number of Read calls made so far.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns the number of Write calls made so far.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Close() {
	m.mu.Lock()
	m.onLost = nil
	m.mu.Unlock()
}

func cloneItems(items []content.Item) []content.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]content.Item, len(items))
	for i, it := range items {
		out[i] = content.Item{MIME: it.MIME, Data: slices.Clone(it.Data)}
	}
	return out
}
