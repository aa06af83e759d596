package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/urfave/cli/v3"
)

// SettingsShow prints the persisted display preferences.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	r.writeSettings(st.settings.UISettings())
	return nil
}

func (r *Runner) writeSettings(ui models.UISettings) {
	scale := ui.LyricScale
	if scale == 0 {
		scale = 1
	}
	r.writePlainHeader("Display")
	r.writePlain("Covers:       %s\n", onOff(!ui.DisableCovers && !r.config.Playback.DisableCovers))
	r.writePlain("Lyric scale:  %.2f\n", scale)
}

// SettingsSet updates the flags that were given.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	ui := st.settings.UISettings()
	if cmd.IsSet("disable-covers") {
		ui.DisableCovers = cmd.Bool("disable-covers")
	}
	if cmd.IsSet("lyric-scale") {
		scale := cmd.Float("lyric-scale")
		if scale <= 0 {
			return fmt.Errorf("%w: lyric scale must be positive", shared.ErrInvalidArgument)
		}
		ui.LyricScale = scale
	}
	if err := st.settings.SaveUISettings(ui); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	r.writeSettings(ui)
	return nil
}
