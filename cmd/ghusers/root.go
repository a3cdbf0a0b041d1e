package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/github-users/internal/app"
	"github.com/sakif/github-users/internal/config"
)

// globalFlags are shared by every command that builds the app.
type globalFlags struct {
	offline bool
	noCache bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "ghusers",
		Short:         "Browse GitHub users",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVar(&flags.offline, "offline", false, "pretend the network is down")
	root.PersistentFlags().BoolVar(&flags.noCache, "no-cache", false, "keep the user cache in memory for this run")

	root.AddCommand(
		newServeCmd(&flags),
		newBrowseCmd(&flags),
		newListCmd(&flags),
		newTokenCmd(),
	)
	return root
}

// loadApp loads the configuration (.env included) and wires the app,
// logging to logw.
func loadApp(flags *globalFlags, logw io.Writer) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildApp(cfg, flags, logw)
}

// buildApp wires the app from an already loaded configuration.
func buildApp(cfg config.Config, flags *globalFlags, logw io.Writer) (*app.App, error) {
	logger := app.NewLogger(cfg.LogLevel, logw)
	return app.New(cfg, app.Options{Offline: flags.offline, NoCache: flags.noCache}, logger)
}

// closeApp is deferred by every command; a close error only gets logged.
func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		a.Logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
}
