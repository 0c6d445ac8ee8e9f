// Package ipc provides the local Unix-socket channel used by CLI tools
// (copy/paste/status) to talk to a running clipmon watch daemon.
//
// Each connection carries exactly one request and one response, framed by
// package wire. Writes that go through the daemon are recorded as its own,
// so they are not reported back to its listeners.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.klb.dev/clipmon/internal/message"
	"go.klb.dev/clipmon/internal/wire"
)

const requestTimeout = 10 * time.Second

// SocketPath returns the path of the IPC socket.
//
//   - $CLIPMON_SOCKET if set
//   - $XDG_RUNTIME_DIR/clipmon.sock on Linux desktops
//   - $TMPDIR/clipmon.sock otherwise
func SocketPath() string {
	if s := os.Getenv("CLIPMON_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipmon.sock")
	}
	return filepath.Join(os.TempDir(), "clipmon.sock")
}

// IsRunning reports whether a clipmon daemon appears to be listening on the
// IPC socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	c, err := net.Dial("unix", SocketPath())
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates and returns a net.Listener on the IPC socket path, removing
// any stale socket file first.
func Listen() (net.Listener, error) {
	path := SocketPath()
	// Remove stale socket from a previous (crashed) run.
	_ = os.Remove(path)
	return net.Listen("unix", path)
}

// Handler answers one request.
type Handler interface {
	Handle(ctx context.Context, req *message.Message) *message.Message
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, req *message.Message) *message.Message

func (f HandlerFunc) Handle(ctx context.Context, req *message.Message) *message.Message {
	return f(ctx, req)
}

// Serve accepts connections on ln until ctx is cancelled, answering each
// with h. It closes ln and waits for in-flight requests before returning.
func Serve(ctx context.Context, ln net.Listener, h Handler, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	var wg sync.WaitGroup
	defer wg.Wait()

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	log.Info("ipc listening", "socket", ln.Addr().String())
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("ipc accept: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveConn(ctx, wire.New(conn), h, log)
		}()
	}
}

func serveConn(ctx context.Context, c *wire.Conn, h Handler, log *slog.Logger) {
	defer c.Close()
	c.SetReadDeadline(requestTimeout)
	req, err := c.ReadMsg()
	if err != nil {
		log.Debug("ipc read failed", "err", err)
		return
	}
	c.SetReadDeadline(0)

	resp := h.Handle(ctx, req)
	if resp == nil {
		resp = message.Errorf("no response for %s", req.Type)
	}
	if err := c.WriteMsg(resp); err != nil {
		log.Debug("ipc write failed", "type", req.Type, "err", err)
	}
}

// Request sends req to the daemon and returns its response. An ERROR
// response is returned as an error.
func Request(ctx context.Context, req *message.Message) (*message.Message, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", SocketPath())
	if err != nil {
		return nil, fmt.Errorf("dial clipmon daemon: %w", err)
	}
	c := wire.New(conn)
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := c.WriteMsg(req); err != nil {
		return nil, fmt.Errorf("send %s: %w", req.Type, err)
	}
	c.SetReadDeadline(requestTimeout)
	resp, err := c.ReadMsg()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read %s response: %w", req.Type, err)
	}
	if resp.Type == message.TypeError {
		return resp, fmt.Errorf("daemon: %s", resp.Error)
	}
	return resp, nil
}
