package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/catalog"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/urfave/cli/v3"
)

// LibraryList prints every catalog track.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(ctx, cmd.String("source"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lib.Tracks(), true)
	}

	r.writePlainHeader(fmt.Sprintf("Catalog (%d tracks)", lib.Len()))
	for _, t := range lib.Tracks() {
		r.writeTrackLine(t)
	}
	return nil
}

func (r *Runner) writeTrackLine(t models.Track) {
	flags := ""
	if t.HasLyrics() {
		flags += " [lyrics]"
	}
	if t.HasDuet {
		flags += " [duet]"
	}
	r.writePlain("%s - %s%s\n    %s\n", t.DisplayTitle(), t.ArtistLine(), flags, t.ID)
}

// LibraryStats summarizes the catalog.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(ctx, cmd.String("source"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	var withAudio, withLyrics, ttml, duets, backing int
	artists := map[string]struct{}{}
	for _, t := range lib.Tracks() {
		if t.HasAudio || t.Media != "" {
			withAudio++
		}
		if t.HasLyrics() {
			withLyrics++
		}
		if strings.HasSuffix(strings.ToLower(t.LyricsSource()), ".ttml") {
			ttml++
		}
		if t.HasDuet {
			duets++
		}
		if t.HasBackgroundVocals {
			backing++
		}
		for _, a := range t.Artists {
			artists[strings.ToLower(a)] = struct{}{}
		}
	}

	r.writePlainHeader("Catalog summary")
	r.writePlain("Tracks:            %d\n", lib.Len())
	r.writePlain("Artists:           %d\n", len(artists))
	r.writePlain("With audio:        %d\n", withAudio)
	r.writePlain("With lyrics:       %d (%d TTML)\n", withLyrics, ttml)
	r.writePlain("Duets:             %d\n", duets)
	r.writePlain("Background vocals: %d\n", backing)
	return nil
}

// LibrarySearch filters the catalog by title or artist and records the query. Without a query it lists recent
// searches.
func (r *Runner) LibrarySearch(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		recent := st.settings.RecentSearches()
		if len(recent) == 0 {
			return r.writePlain("No recent searches\n")
		}
		r.writePlainHeader("Recent searches")
		for _, term := range recent {
			r.writePlain("  %s\n", term)
		}
		return nil
	}

	if _, err := st.settings.AddRecentSearch(query); err != nil {
		r.logger.Warn("failed to save search", "error", err)
	}

	lib, err := r.loadLibrary(ctx, cmd.String("source"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	matches := SearchTracks(lib, query)
	r.writePlainHeader(fmt.Sprintf("%d matches for %q", len(matches), query))
	for _, t := range matches {
		r.writeTrackLine(t)
	}
	return nil
}

// SearchTracks returns the tracks whose title, artists or id contain query, case-insensitively.
func SearchTracks(lib models.Library, query string) []models.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.Track
	for _, t := range lib.Tracks() {
		haystack := strings.ToLower(t.Title + " " + strings.Join(t.Artists, " ") + " " + t.ID)
		if strings.Contains(haystack, q) {
			out = append(out, t)
		}
	}
	return out
}

// LibraryNormalize canonicalizes stored ids against the catalog.
func (r *Runner) LibraryNormalize(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.loadLibrary(ctx, cmd.String("source"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	changed, err := st.library.Normalize(catalog.NewLookup(lib))
	if err != nil {
		return fmt.Errorf("failed to normalize library: %w", err)
	}
	if !changed {
		return r.writePlain("Playlists and history already use catalog ids\n")
	}
	return r.writePlain("✓ Playlists and history rewritten to catalog ids\n")
}
