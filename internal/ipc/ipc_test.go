package ipc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipmon/internal/ipc"
	"go.klb.dev/clipmon/internal/message"
)

func socket(t *testing.T) {
	t.Helper()
	t.Setenv("CLIPMON_SOCKET", filepath.Join(t.TempDir(), "c.sock"))
}

func TestSocketPath(t *testing.T) {
	t.Setenv("CLIPMON_SOCKET", "/tmp/custom.sock")
	assert.Equal(t, "/tmp/custom.sock", ipc.SocketPath())

	t.Setenv("CLIPMON_SOCKET", "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	assert.Equal(t, "/run/user/1000/clipmon.sock", ipc.SocketPath())
}

func TestServeAndRequest(t *testing.T) {
	socket(t)
	assert.False(t, ipc.IsRunning())

	ln, err := ipc.Listen()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	served := make(chan error, 1)
	go func() {
		served <- ipc.Serve(ctx, ln, ipc.HandlerFunc(func(_ context.Context, req *message.Message) *message.Message {
			switch req.Type {
			case message.TypeRead:
				return &message.Message{Type: message.TypeContent, Kind: "text", Text: "from daemon"}
			default:
				return message.Errorf("unsupported %s", req.Type)
			}
		}), nil)
	}()

	assert.True(t, ipc.IsRunning())

	resp, err := ipc.Request(t.Context(), &message.Message{Type: message.TypeRead})
	require.NoError(t, err)
	assert.Equal(t, "from daemon", resp.Text)

	resp, err = ipc.Request(t.Context(), &message.Message{Type: message.TypeStatus})
	require.Error(t, err)
	assert.Equal(t, message.TypeError, resp.Type)
	assert.Contains(t, err.Error(), "unsupported STATUS")

	cancel()
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.False(t, ipc.IsRunning())
}

func TestRequest_NoDaemon(t *testing.T) {
	socket(t)
	_, err := ipc.Request(t.Context(), &message.Message{Type: message.TypeRead})
	require.Error(t, err)
}

func TestListen_RemovesStaleSocket(t *testing.T) {
	socket(t)
	ln, err := ipc.Listen()
	require.NoError(t, err)
	// Simulate a crash: the socket file stays behind.
	ln.(interface{ SetUnlinkOnClose(bool) }).SetUnlinkOnClose(false)
	require.NoError(t, ln.Close())

	ln, err = ipc.Listen()
	require.NoError(t, err)
	require.NoError(t, ln.Close())
}
