package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/caevv/storewatch/internal/logging"
	"github.com/caevv/storewatch/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Run storewatch with a terminal UI dashboard",
	Long: `Trigger and browse reports from an interactive terminal UI.

Navigation:
  ↑/↓ or k/j  - Navigate report list / scroll rows
  enter       - View report rows
  esc         - Go back to report list
  t           - Trigger a new report
  g/G         - Jump to top/bottom
  r           - Refresh data
  q           - Quit

Example:
  storewatch tui --config ./storewatch.yaml`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Logs would draw over the interface
	if cfg.Logging.Output == "stderr" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "discard"
	}
	debug, _ := cmd.Flags().GetBool("debug")
	closeLog, err := applyLogging(cfg.Logging, debug)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := setupSignalHandler()

	a, err := newApp(ctx, cfg, logger, appOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(context.Background()); err != nil {
			logger.Error("failed to release resources", "error", err)
		}
	}()

	sched, err := a.scheduler(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up schedule: %w", err)
	}
	var schedules tui.Schedules
	if sched != nil {
		sched.Start()
		defer sched.Stop(context.Background())
		schedules = sched
	}

	model := tui.New(a.manager, schedules, logging.Component(logger, "tui"))

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := finalModel.(tui.Model); ok && m.Quitting() {
		logger.Info("shutting down gracefully...")
	}
	return nil
}
