package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/kwdl/internal/shared"
	"github.com/desertthunder/kwdl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive queue and run view for one title file.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}

	if r.dryRunPerformer(cmd.String("performer")) {
		return fmt.Errorf("%w: the dryrun performer does not save progress, use 'kwdl run --dry-run' to preview", shared.ErrInvalidConfig)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.config.Log.LogLevel())
	r.SetLogger(fileLogger)

	lock, err := shared.AcquireFileLock(r.config.Progress.LockDir, path)
	if err != nil {
		return err
	}
	defer lock.Release()

	processor, err := r.newProcessor(cmd.String("store"), cmd.String("performer"))
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, processor, path)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
