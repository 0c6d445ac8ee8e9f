// clipmon: clipboard change monitor.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipmon",
		Short: "Clipboard change monitor",
		Long: `clipmon watches the system clipboard and reports every change once the
clipboard has settled. Content written through clipmon itself is recognised
and never reported back, so clipmon can sit on both ends of a sync loop.

Run "clipmon watch" to start the daemon. Use "clipmon copy/paste/status" as
CLI tools; they talk to the daemon over a local Unix socket when it is
running and to the clipboard directly otherwise.

Config file search order (first found wins):
  /etc/clipmon/clipmon.toml
  $HOME/.config/clipmon/clipmon.toml
  path supplied via --config

All flags can be set via CLIPMON_<FLAG> env vars or config-file keys.
See "clipmon watch --help" for the full flag reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newWatchCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clipmon %s\n", Version)
		},
	}
}
