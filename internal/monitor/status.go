package monitor

import (
	"time"

	"go.klb.dev/clipmon/internal/detector"
)

// Status is a point-in-time view of a Monitor, served by clipmon status.
type Status struct {
	Running          bool          `json:"running"`
	Closed           bool          `json:"closed"`
	Detector         detector.Kind `json:"detector"`
	Backend          string        `json:"backend,omitempty"`
	LastNotifiedHash string        `json:"last_notified_hash"`
	Pending          bool          `json:"pending"`
	OwnEntries       int           `json:"own_entries"`
	Listeners        int           `json:"listeners"`
	Notifications    int64         `json:"notifications"`
	Errors           int64         `json:"errors"`
	Uptime           time.Duration `json:"uptime"`
}

// Status reports the Monitor's current state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	pending := m.pending != nil
	m.mu.Unlock()

	s := Status{
		Running:          m.running.Load(),
		Closed:           m.closed.Load(),
		Detector:         m.det.Kind(),
		LastNotifiedHash: m.lastHash(),
		Pending:          pending,
		OwnEntries:       m.own.Len(),
		Listeners:        m.hub.Len(),
		Notifications:    m.notifications.Load(),
		Errors:           m.failures.Load(),
	}
	if n, ok := m.port.(interface{ Name() string }); ok {
		s.Backend = n.Name()
	}
	if s.Running {
		s.Uptime = time.Since(time.Unix(0, m.startedAt.Load()))
	}
	return s
}
