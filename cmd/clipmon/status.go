package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmon/internal/content"
	"go.klb.dev/clipmon/internal/ipc"
	"go.klb.dev/clipmon/internal/message"
)

func newStatusCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the running daemon's state",
		Long: `Asks the running clipmon watch daemon over the IPC socket for its
detector, backend, listener count and notification counters.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runStatus(cmd, v) },
	}

	f := cmd.Flags()
	f.Bool("json", false, "output raw JSON")
	addConfigFlag(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, v *viper.Viper) error {
	if !ipc.IsRunning() {
		return fmt.Errorf("no clipmon daemon listening on %s", ipc.SocketPath())
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	resp, err := ipc.Request(ctx, &message.Message{Type: message.TypeStatus})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if resp.Status == nil {
		return fmt.Errorf("status: daemon sent %s without a status", resp.Type)
	}

	if v.GetBool("json") {
		enc, _ := json.MarshalIndent(resp.Status, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(enc))
		return nil
	}

	printStatus(cmd.OutOrStdout(), resp.Status, ipc.SocketPath())
	return nil
}

func printStatus(out io.Writer, st *message.StatusInfo, socket string) {
	w := tabwriter.NewWriter(out, 1, 0, 2, ' ', 0)
	state := "stopped"
	if st.Running {
		state = "running"
	}
	last := "-"
	if st.LastNotifiedHash != "" {
		last = content.Short(st.LastNotifiedHash)
	}

	fmt.Fprintf(w, "State:\t%s (pid %d)\n", state, st.PID)
	fmt.Fprintf(w, "Socket:\t%s\n", socket)
	fmt.Fprintf(w, "Backend:\t%s\n", st.Backend)
	fmt.Fprintf(w, "Detector:\t%s\n", st.Detector)
	fmt.Fprintf(w, "Uptime:\t%s\n", fmtAge(st.Uptime))
	fmt.Fprintf(w, "Listeners:\t%d\n", st.Listeners)
	fmt.Fprintf(w, "Notifications:\t%d\n", st.Notifications)
	fmt.Fprintf(w, "Errors:\t%d\n", st.Errors)
	fmt.Fprintf(w, "Own entries:\t%d\n", st.OwnEntries)
	fmt.Fprintf(w, "Pending:\t%t\n", st.Pending)
	fmt.Fprintf(w, "Last hash:\t%s\n", last)
	_ = w.Flush()
}
