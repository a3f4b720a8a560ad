package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmaster/internal/control"
)

func newClearCmd() *cobra.Command {
	cmd, _ := newClientCmd("clear", "Clear the running session's history",
		`Empties the history of the running clipmaster session, the same as its
Clear History button. The system clipboard itself is not touched.`,
		func(cmd *cobra.Command, _ *viper.Viper, c *control.Client) error {
			ctx, cancel := requestContext(cmd)
			defer cancel()
			return friendly(c.Clear(ctx))
		})
	return cmd
}
