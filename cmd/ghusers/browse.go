package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sakif/github-users/internal/app"
	"github.com/sakif/github-users/internal/config"
	"github.com/sakif/github-users/internal/tui"
)

func newBrowseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse users in a terminal UI",
		Long: `Opens the terminal UI. The terminal owns stdout, so logs go to
GHUSERS_LOG_FILE, from the environment or .env (discarded when unset).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, closeLog, err := browseApp(flags)
			if err != nil {
				return err
			}
			defer closeLog()
			defer closeApp(a)

			p := tea.NewProgram(tui.New(a.Users, a.Logger),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running terminal UI: %w", err)
			}
			return nil
		},
	}
}

// browseApp loads the configuration first, so a log file named only in .env
// is honoured, then builds the app logging into it. The returned func closes
// the log file; call it after closing the app.
func browseApp(flags *globalFlags) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logw, closeLog, err := openLogFile(cfg.LogFile)
	if err != nil {
		return nil, nil, err
	}

	a, err := buildApp(cfg, flags, logw)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, closeLog, nil
}

func openLogFile(path string) (io.Writer, func(), error) {
	if path == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
