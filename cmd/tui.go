package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/tasks"
	"github.com/desertthunder/lyricsphere/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive player dashboard.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs go to a file so they do not interfere with rendering
	fileLogger, closer, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := r.startPlayer(ctx, st, cmd.Float("length"), fileLogger)
	if err != nil {
		return err
	}
	defer p.Close()

	if cmd.Bool("passive") {
		if err := p.session.SetPassive(ctx, true); err != nil {
			return err
		}
	} else {
		lib, err := r.loadLibrary(ctx, cmd.String("source"))
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		if err := p.session.SetLibrary(ctx, lib); err != nil {
			return err
		}
	}

	progress := make(chan tasks.ProgressUpdate, 8)
	syncer := r.synchronizer(ctx, st, p.loop, progress)
	if r.config.Backup.Auto {
		var startErr error
		if err := p.loop.Call(ctx, func() { startErr = syncer.Start(ctx) }); err != nil {
			return err
		}
		if startErr != nil {
			return fmt.Errorf("failed to start auto backup: %w", startErr)
		}
		defer p.loop.Call(context.Background(), syncer.Close)
	}

	model := ui.NewModel(ctx, p.session, st.library, syncer, progress)
	defer model.Close()

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
