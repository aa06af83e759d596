package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/catalog"
	"github.com/desertthunder/lyricsphere/internal/formatter"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/urfave/cli/v3"
)

// lookup loads the catalog for display. A failed load degrades to raw ids.
func (r *Runner) lookup(ctx context.Context, source string) *catalog.Lookup {
	lib, err := r.loadLibrary(ctx, source)
	if err != nil {
		r.logger.Warn("catalog unavailable, showing raw ids", "error", err)
	}
	return catalog.NewLookup(lib)
}

// PlaylistList prints every playlist with its track count.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	playlists := st.library.Playlists()
	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, p := range playlists {
		r.writePlain("%-36s  %s (%d tracks)\n", p.ID, p.Name, len(p.Tracks))
	}
	return nil
}

// PlaylistShow prints a playlist's tracks resolved against the catalog.
func (r *Runner) PlaylistShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.library.Playlist(id)
	if err != nil {
		return err
	}

	lookup := r.lookup(ctx, cmd.String("source"))
	r.writePlainHeader(fmt.Sprintf("%s (%d tracks)", p.Name, len(p.Tracks)))
	for i, trackID := range p.Tracks {
		if t, ok := lookup.Track(trackID); ok {
			r.writePlain("%3d. %s - %s\n", i+1, t.DisplayTitle(), t.ArtistLine())
		} else {
			r.writePlain("%3d. %s (not in catalog)\n", i+1, trackID)
		}
	}
	return nil
}

// PlaylistCreate creates an empty playlist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.library.Create(cmd.StringArg("name"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Created playlist %s (%s)\n", p.Name, p.ID)
}

// PlaylistAdd appends tracks to a playlist, skipping ones already present.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	id := cmd.String("playlist")
	tracks := cmd.StringSlice("track")
	if err := st.library.AddTracks(id, tracks...); err != nil {
		return err
	}
	p, err := st.library.Playlist(id)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s now has %d tracks\n", p.Name, len(p.Tracks))
}

// PlaylistRemove removes one track from a playlist.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.library.RemoveTrack(cmd.String("playlist"), cmd.String("track")); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s\n", cmd.String("track"))
}

// PlaylistDelete deletes a user playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.library.Delete(id); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted playlist %s\n", id)
}

// PlaylistLike toggles a track in the liked playlist.
func (r *Runner) PlaylistLike(ctx context.Context, cmd *cli.Command) error {
	trackID := strings.TrimSpace(cmd.StringArg("track"))
	if trackID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	liked, err := st.library.ToggleLike(trackID)
	if err != nil {
		return err
	}
	if liked {
		return r.writePlain("♥ Added %s to liked\n", trackID)
	}
	return r.writePlain("Removed %s from liked\n", trackID)
}

// PlaylistExport renders a playlist as a Markdown table.
func (r *Runner) PlaylistExport(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.library.Playlist(cmd.String("id"))
	if err != nil {
		return err
	}

	data, err := formatter.ExportPlaylistMarkdown(p, r.lookup(ctx, cmd.String("source")))
	if err != nil {
		return fmt.Errorf("failed to export playlist: %w", err)
	}
	return r.emit(cmd.String("output"), data)
}

// emit writes data to path, or to the runner output when path is empty.
func (r *Runner) emit(path string, data []byte) error {
	if path == "" {
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := formatter.WriteToFile(path, data); err != nil {
		return err
	}
	r.logger.Info("export written", "path", path, "bytes", len(data))
	return r.writePlain("✓ Written to %s\n", path)
}

// HistoryList prints recently played tracks.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	history := st.library.History()
	if limit := int(cmd.Int("limit")); limit > 0 && len(history) > limit {
		history = history[:limit]
	}
	if len(history) == 0 {
		return r.writePlain("Nothing played yet\n")
	}

	lookup := r.lookup(ctx, cmd.String("source"))
	r.writePlainHeader("Recently played")
	for i, id := range history {
		if t, ok := lookup.Track(id); ok {
			r.writePlain("%3d. %s - %s\n", i+1, t.DisplayTitle(), t.ArtistLine())
		} else {
			r.writePlain("%3d. %s\n", i+1, id)
		}
	}
	return nil
}
