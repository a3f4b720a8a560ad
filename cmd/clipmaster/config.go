package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipmaster/internal/ipc"
	"go.klb.dev/clipmaster/internal/logging"
)

const envPrefix = "CLIPMASTER"

// loadDotEnv loads a .env file from the working directory, falling back to
// the executable's directory. Variables already set are left alone.
func loadDotEnv() {
	candidates := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), ".env"))
	}
	for _, p := range candidates {
		if err := godotenv.Load(p); err == nil {
			slog.Debug("loaded env file", "path", p)
			return
		} else if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("env file unreadable", "path", p, "err", err)
		}
	}
}

// bindViper wires a command's flags into a viper instance with the standard
// config file search order and CLIPMASTER_* env var prefix.
//
// Precedence (lowest → highest): defaults → config file → .env / CLIPMASTER_* env vars → flags
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	loadDotEnv()

	configFlag, _ := cmd.Flags().GetString("config")
	if configFlag != "" {
		v.SetConfigFile(configFlag)
	} else {
		v.SetConfigName("clipmaster")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc/clipmaster/")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "clipmaster"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

// addLoggingFlags adds the standard logging flags to a command.
func addLoggingFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-background", false, "run interactively: tinter logs + debug level")
	cmd.Flags().String("log-format", "auto", "log format: auto|text|json")
	cmd.Flags().String("log-level", "", "log level: debug|info|warn|error (default: info, debug when interactive)")
}

// addConfigFlag adds the --config flag to a command.
func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to config file (overrides auto-discovery)")
}

// addSocketFlag adds the --socket flag shared by the daemon and its clients.
func addSocketFlag(cmd *cobra.Command) {
	cmd.Flags().String("socket", "", "control socket path (default: "+ipc.SocketPath()+")")
}

// socketPath returns the configured control socket, or the platform default.
func socketPath(v *viper.Viper) string {
	if p := v.GetString("socket"); p != "" {
		return p
	}
	return ipc.SocketPath()
}

// setupLogging reads logging flags from viper and configures slog.
func setupLogging(v *viper.Viper) {
	logging.Setup(logging.Options{
		Interactive: v.GetBool("no-background") || logging.IsTTY(os.Stderr),
		Format:      v.GetString("log-format"),
		Level:       v.GetString("log-level"),
	})
}
