package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"

	"go.klb.dev/clipmaster/internal/clip"
	"go.klb.dev/clipmaster/internal/control"
	"go.klb.dev/clipmaster/internal/ipc"
	"go.klb.dev/clipmaster/internal/manager"
	"go.klb.dev/clipmaster/internal/ui"
	"go.klb.dev/clipmaster/internal/watch"
)

const appID = "dev.klb.clipmaster"

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the clipboard and show the history overlay",
		Long: `Starts a clipboard manager session. The clipboard is polled for text; every
new value is added to the top of the history, and values already in the history
are ignored. The session ends on Stop Manager, "clipmaster stop", closing the
window, or SIGINT/SIGTERM, after which the final history is printed to stderr.

Config file search order:
  /etc/clipmaster/clipmaster.toml
  $HOME/.config/clipmaster/clipmaster.toml
  path supplied via --config

Precedence (lowest → highest): defaults → config file → CLIPMASTER_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(_ *cobra.Command, _ []string) error { return runSession(v) },
	}

	f := cmd.Flags()
	f.Duration("interval", watch.DefaultInterval, "clipboard poll interval")
	f.Duration("settle", watch.DefaultSettle, "extra pause after a new value is seen (negative disables)")
	f.Duration("join-timeout", manager.DefaultJoinTimeout, "how long Stop waits for the watcher to exit")
	f.String("backend", string(clip.KindAuto), "clipboard backend: auto|native|cli|headless|memory")
	f.Bool("clear-on-start", true, "empty the system clipboard before watching")
	f.Bool("headless", false, "run without the overlay window")
	f.Bool("no-ipc", false, "do not serve the control socket")
	f.Float32("width", ui.DefaultWidth, "overlay width")
	f.Float32("height", ui.DefaultHeight, "overlay height")
	f.Bool("frameless", false, "borderless overlay window")
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

// displayFunc adapts a function to manager.Display.
type displayFunc func(string)

func (f displayFunc) Render(text string) { f(text) }

func runSession(v *viper.Viper) error {
	setupLogging(v)

	kind, err := clip.ParseKind(v.GetString("backend"))
	if err != nil {
		return err
	}
	headless := v.GetBool("headless")
	path := socketPath(v)

	// Claim the socket before touching the clipboard so a second instance
	// leaves the first one's clipboard alone.
	var ln net.Listener
	if !v.GetBool("no-ipc") {
		ln, err = ipc.Listen(path)
		switch {
		case errors.Is(err, ipc.ErrRunning):
			return err
		case err != nil:
			slog.Warn("control socket unavailable", "path", path, "err", err)
			ln = nil
		}
	}

	backend, err := clip.New(kind)
	if err != nil {
		if ln != nil {
			_ = ln.Close()
		}
		return fmt.Errorf("clipboard: %w", err)
	}
	defer backend.Close()

	if v.GetBool("clear-on-start") {
		if err := backend.WriteText(""); err != nil {
			slog.Warn("could not clear clipboard on start", "err", err)
		}
	}

	slog.Info("clipmaster starting",
		"version", Version,
		"backend", backend.Name(),
		"headless", headless,
		"interval", v.GetDuration("interval"),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watch.Start(ctx, backend, watch.Config{
		Interval: v.GetDuration("interval"),
		Settle:   v.GetDuration("settle"),
	})

	var (
		overlay *ui.Overlay
		display manager.Display
	)
	if !headless {
		display = displayFunc(func(text string) { overlay.Render(text) })
	}
	m := manager.New(w, display, manager.WithJoinTimeout(v.GetDuration("join-timeout")))

	var srv *grpc.Server
	if ln != nil {
		srv = grpc.NewServer()
		control.Register(srv, control.New(m))
		slog.Info("control socket listening", "path", path)
		go func() {
			if err := srv.Serve(ln); err != nil {
				slog.Warn("control server exited", "err", err)
			}
		}()
	}

	if headless {
		err = m.Run(ctx)
	} else {
		a := app.NewWithID(appID)
		overlay = ui.New(a, m, ui.Options{
			Width:     float32(v.GetFloat64("width")),
			Height:    float32(v.GetFloat64("height")),
			Frameless: v.GetBool("frameless"),
		})
		go func() {
			if err := m.Run(ctx); err != nil {
				slog.Error("manager exited", "err", err)
			}
		}()
		overlay.QuitWhenDone(m.Done())
		overlay.Show()
		a.Run()

		// The app can also quit on its own (tray Quit); end the session too.
		stopSession(m)
	}

	if srv != nil {
		srv.GracefulStop()
	}
	return err
}

// stopSession stops m if it is still running and waits for shutdown.
func stopSession(m *manager.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), manager.DefaultJoinTimeout+time.Second)
	defer cancel()
	if _, err := m.Stop(ctx); err != nil && !errors.Is(err, manager.ErrStopped) {
		slog.Warn("stop manager failed", "err", err)
	}
	<-m.Done()
}
