package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/formatter"
	"github.com/urfave/cli/v3"
)

// resolveFormat picks the explicit format, else the output extension, else fallback.
func resolveFormat(explicit, output string, fallback formatter.Format) (formatter.Format, error) {
	if explicit != "" {
		return formatter.ParseFormat(explicit)
	}
	if ext := filepath.Ext(output); ext != "" {
		return formatter.ParseFormat(ext)
	}
	return fallback, nil
}

// StatsShow prints summaries for every tracked id, or the detail of one track.
func (r *Runner) StatsShow(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	if trackID := strings.TrimSpace(cmd.StringArg("track")); trackID != "" {
		summary := st.stats.Summary(trackID)
		if cmd.Bool("json") {
			return r.writeJSON(summary, true)
		}
		r.writePlainHeader(trackID)
		r.writePlain("Listens:        %d\n", summary.Listens)
		r.writePlain("Completion:     %d%%\n", summary.CompletionRate)
		r.writePlain("Trend:          %v\n", summary.Trend)
		if !summary.LastListened.IsZero() {
			r.writePlain("Last listened:  %s\n", summary.LastListened.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	summaries := st.stats.Summaries()
	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}
	if len(summaries) == 0 {
		return r.writePlain("No listens recorded yet\n")
	}

	r.writePlainHeader(fmt.Sprintf("Listening statistics (%d tracks)", len(summaries)))
	for _, s := range summaries {
		r.writePlain("%4d listens  %3d%%  %s\n", s.Listens, s.CompletionRate, s.TrackID)
	}
	return nil
}

// StatsExport writes summaries as CSV, Markdown or JSON.
func (r *Runner) StatsExport(ctx context.Context, cmd *cli.Command) error {
	output := cmd.String("output")
	format, err := resolveFormat(cmd.String("format"), output, formatter.FormatMarkdown)
	if err != nil {
		return err
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	data, err := formatter.ExportStats(st.stats.Summaries(), r.lookup(ctx, cmd.String("source")), format)
	if err != nil {
		return err
	}
	return r.emit(output, data)
}
