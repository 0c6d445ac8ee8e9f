package main

import (
	"context"
	"os"

	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/message"
	"go.klb.dev/clipmon/internal/monitor"
)

// clipboard is the part of *monitor.Monitor the IPC daemon serves.
type clipboard interface {
	Write(ctx context.Context, c content.Content) error
	Read(ctx context.Context) (content.Snapshot, error)
	Status() monitor.Status
}

// daemon answers IPC requests from copy/paste/status.
type daemon struct {
	m   clipboard
	pid int
}

func newDaemon(m clipboard) *daemon {
	return &daemon{m: m, pid: os.Getpid()}
}

func (d *daemon) Handle(ctx context.Context, req *message.Message) *message.Message {
	switch req.Type {
	case message.TypeWrite:
		c, err := req.Content()
		if err != nil {
			return message.Errorf("write: %v", err)
		}
		if err := d.m.Write(ctx, c); err != nil {
			return message.Errorf("write: %v", err)
		}
		hash, _ := content.CanonicalHash(c)
		return &message.Message{Type: message.TypeOK, Hash: hash}

	case message.TypeRead:
		snap, err := d.m.Read(ctx)
		if err != nil {
			return message.Errorf("read: %v", err)
		}
		resp, err := message.FromSnapshot(message.TypeContent, snap)
		if err != nil {
			return message.Errorf("read: %v", err)
		}
		return resp

	case message.TypeStatus:
		st := d.m.Status()
		return &message.Message{
			Type: message.TypeStatusResponse,
			Status: &message.StatusInfo{
				Running:          st.Running,
				Detector:         string(st.Detector),
				Backend:          st.Backend,
				LastNotifiedHash: st.LastNotifiedHash,
				Pending:          st.Pending,
				OwnEntries:       st.OwnEntries,
				Listeners:        st.Listeners,
				Notifications:    st.Notifications,
				Errors:           st.Errors,
				Uptime:           st.Uptime,
				PID:              d.pid,
			},
		}

	default:
		return message.Errorf("unsupported request %q", req.Type)
	}
}
