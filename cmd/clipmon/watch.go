package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipmon/internal/clip"
	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/detector"
	"go.klb.dev/clipmon/internal/hub"
	"go.klb.dev/clipmon/internal/ipc"
	"go.klb.dev/clipmon/internal/monitor"
	"go.klb.dev/clipmon/internal/sink"
)

func newWatchCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor the clipboard and report changes",
		Long: `Watches the clipboard and logs every change once it has settled for the
debounce period. Also serves the IPC socket used by copy/paste/status, so
writes made through "clipmon copy" are not reported back.

Detectors:
  polling    re-read the clipboard every --interval (works everywhere)
  ownership  hold the clipboard and re-read when another writer takes it

Config file search order:
  /etc/clipmon/clipmon.toml
  $HOME/.config/clipmon/clipmon.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPMON_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runWatch(cmd, v) },
	}

	defaults := monitor.DefaultConfig()
	f := cmd.Flags()
	f.String("detector", string(defaults.Detector), "change detector: polling|ownership")
	f.Duration("interval", defaults.PollInterval, "polling detector read interval")
	f.Duration("delay", defaults.OwnershipDelay, "ownership detector settle delay")
	f.Duration("debounce", defaults.Debounce, "how long a change must stay unchanged before it is reported")
	f.Duration("own-ttl", defaults.OwnTTL, "how long content written through clipmon is recognised as its own")
	f.Bool("notify-on-start", false, "report the current clipboard contents on start")
	f.Bool("events", false, "write a JSON CHANGE line to stdout for every change")
	f.Bool("no-ipc", false, "do not serve the IPC socket")
	addBackendFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runWatch(cmd *cobra.Command, v *viper.Viper) error {
	log := setupLogging(v)

	kind, err := detector.ParseKind(v.GetString("detector"))
	if err != nil {
		return err
	}
	cfg := monitor.DefaultConfig()
	cfg.Detector = kind
	cfg.PollInterval = v.GetDuration("interval")
	cfg.OwnershipDelay = v.GetDuration("delay")
	cfg.Debounce = v.GetDuration("debounce")
	cfg.OwnTTL = v.GetDuration("own-ttl")
	cfg.NotifyOnStart = v.GetBool("notify-on-start")
	cfg.Logger = log

	backend, err := openBackend(v.GetString("backend"))
	if err != nil {
		return err
	}
	port := clip.NewAccessor(backend, clip.WithLogger(log))
	defer port.Close()

	logChanges := hub.ListenerFuncs{
		Change: func(s content.Snapshot) error {
			hub.LogSnapshot(log, "clipboard changed", s)
			return nil
		},
		Error: func(err error) { log.Error("change logger failed", "err", err) },
	}
	m, err := monitor.New(port, cfg, logChanges)
	if err != nil {
		return err
	}
	defer m.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("clipmon starting",
		"version", Version,
		"backend", port.Name(),
		"detector", cfg.Detector,
	)

	var ln net.Listener
	if !v.GetBool("no-ipc") {
		if ipc.IsRunning() {
			return fmt.Errorf("another clipmon daemon is listening on %s", ipc.SocketPath())
		}
		if ln, err = ipc.Listen(); err != nil {
			return fmt.Errorf("ipc listen: %w", err)
		}
		defer ln.Close()
	}

	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start monitor: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	if v.GetBool("events") {
		s := sink.New(cmd.OutOrStdout(), log)
		m.AddListener(s)
		g.Go(func() error { return s.Run(ctx) })
	}

	if ln != nil {
		g.Go(func() error { return ipc.Serve(ctx, ln, newDaemon(m), log) })
	}

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		return nil
	})

	return g.Wait()
}
