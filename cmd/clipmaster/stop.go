package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmaster/internal/control"
	"go.klb.dev/clipmaster/internal/history"
)

func newStopCmd() *cobra.Command {
	cmd, _ := newClientCmd("stop", "Stop the running session and print its history",
		`Ends the running clipmaster session, the same as its Stop Manager button,
and prints the final history, most recent first.`,
		func(cmd *cobra.Command, _ *viper.Viper, c *control.Client) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			final, err := c.Stop(ctx)
			if err != nil {
				return friendly(err)
			}
			return history.WriteReport(cmd.OutOrStdout(), final)
		})
	return cmd
}
