package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmaster/internal/control"
	"go.klb.dev/clipmaster/internal/history"
)

func newWatchCmd() *cobra.Command {
	cmd, _ := newClientCmd("watch", "Stream new history entries as they are copied",
		`Prints every new entry the running clipmaster session records, one per line,
until interrupted or the session stops.`,
		func(cmd *cobra.Command, _ *viper.Viper, c *control.Client) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			out := cmd.OutOrStdout()
			err := c.Watch(ctx, func(e history.Entry) error {
				_, err := fmt.Fprintf(out, "%s\t%s\n", e.CopiedAt.Local().Format("15:04:05"), oneLine(history.Preview(e.Text)))
				return err
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return friendly(err)
		})
	return cmd
}
