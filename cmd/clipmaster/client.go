package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmaster/internal/control"
	"go.klb.dev/clipmaster/internal/ipc"
)

const requestTimeout = 5 * time.Second

// newClientCmd builds a command that talks to a running session over the
// control socket.
func newClientCmd(use, short, long string, run func(cmd *cobra.Command, v *viper.Viper, c *control.Client) error) (*cobra.Command, *viper.Viper) {
	v := viper.New()
	cmd := &cobra.Command{
		Use:     use,
		Short:   short,
		Long:    long,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(v)
			c, err := dialSession(v)
			if err != nil {
				return err
			}
			defer c.Close()
			return run(cmd, v, c)
		},
	}
	addSocketFlag(cmd)
	addConfigFlag(cmd)
	cmd.Flags().String("log-level", "warn", "log level: debug|info|warn|error")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	return cmd, v
}

// dialSession connects to the session serving the configured socket.
func dialSession(v *viper.Viper) (*control.Client, error) {
	path := socketPath(v)
	if !ipc.IsRunning(path) {
		return nil, fmt.Errorf("%w (socket %s); start one with \"clipmaster run\"", control.ErrNotRunning, path)
	}
	return control.Dial(path)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), requestTimeout)
}

// friendly rewrites the errors a user is most likely to see.
func friendly(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("clipmaster did not answer within %s", requestTimeout)
	default:
		return err
	}
}
