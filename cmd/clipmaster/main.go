// clipmaster: a clipboard history overlay.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

// envKeyReplacer maps flag names like join-timeout to CLIPMASTER_JOIN_TIMEOUT.
var envKeyReplacer = strings.NewReplacer("-", "_")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "clipmaster",
		Short: "Clipboard history overlay",
		Long: `clipmaster watches the system clipboard and keeps a most-recent-first,
duplicate-free history of everything copied as text, shown in an overlay window
with Clear History, Stop Manager and Shrink controls.

Run "clipmaster run" to start a session. While it runs, "clipmaster history",
"clear", "watch" and "stop" talk to it over the local control socket.

Config file search order (first found wins):
  /etc/clipmaster/clipmaster.toml
  $HOME/.config/clipmaster/clipmaster.toml
  path supplied via --config

All flags can be set via CLIPMASTER_<FLAG> env vars (also read from a .env
file) or config-file keys. See "clipmaster run --help" for the full flag
reference.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newHistoryCmd(),
		newClearCmd(),
		newWatchCmd(),
		newStopCmd(),
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
			fmt.Fprintf(cmd.OutOrStdout(), "clipmaster %s\n", Version)
		},
	}
}
