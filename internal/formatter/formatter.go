// package formatter exports listen stats, playlists and backup snapshots to files (CSV, Markdown, JSON, YAML)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/stats"
	"gopkg.in/yaml.v3"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// TrackResolver looks up display metadata for a stored id.
type TrackResolver interface {
	Track(id string) (models.Track, bool)
}

func resolve(r TrackResolver, id string) (title, artists string) {
	if r != nil {
		if t, ok := r.Track(id); ok {
			return t.DisplayTitle(), t.ArtistLine()
		}
	}
	return id, ""
}

// FormatDuration renders seconds as m:ss, or h:mm:ss past an hour.
func FormatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}

// ExportStatsCSV converts summaries to CSV with columns: ID, Title, Artists, Listens, Completion, Trend, Last Listened
func ExportStatsCSV(summaries []stats.Summary, tracks TrackResolver) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artists", "Listens", "Completion", "Trend", "Last Listened"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, s := range summaries {
		title, artists := resolve(tracks, s.TrackID)
		record := []string{
			s.TrackID,
			title,
			artists,
			strconv.Itoa(s.Listens),
			strconv.Itoa(s.CompletionRate),
			joinInts(s.Trend),
			formatTime(s.LastListened),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportStatsMarkdown renders summaries as a Markdown table.
func ExportStatsMarkdown(summaries []stats.Summary, tracks TrackResolver) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Listening Stats\n\n")
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(summaries)))
	if len(summaries) == 0 {
		buf.WriteString("_No listens recorded yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Track | Listens | Completion | Trend |\n")
	buf.WriteString("|---|-------|---------|------------|-------|\n")
	for i, s := range summaries {
		title, artists := resolve(tracks, s.TrackID)
		if artists != "" {
			title = fmt.Sprintf("%s - %s", artists, title)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %d | %d%% | %s |\n",
			i+1, escapeCell(title), s.Listens, s.CompletionRate, joinInts(s.Trend)))
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ExportPlaylistMarkdown renders a playlist as a numbered Markdown list. Unresolved ids are listed verbatim.
func ExportPlaylistMarkdown(p models.Playlist, tracks TrackResolver) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Name))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(p.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, id := range p.Tracks {
		title, artists := resolve(tracks, id)
		if artists == "" {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, artists, title))
	}

	return buf.Bytes(), nil
}

// ExportBackupJSON encodes a payload as indented JSON, the shape the backup service accepts.
func ExportBackupJSON(payload models.BackupPayload) ([]byte, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportBackupYAML encodes a payload as YAML.
func ExportBackupYAML(payload models.BackupPayload) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode backup YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode backup YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportBackup encodes a payload in the given format.
func ExportBackup(payload models.BackupPayload, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return ExportBackupJSON(payload)
	case FormatYAML:
		return ExportBackupYAML(payload)
	default:
		return nil, fmt.Errorf("unsupported backup format %q", format)
	}
}

// ExportStats encodes summaries in the given format.
func ExportStats(summaries []stats.Summary, tracks TrackResolver, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportStatsCSV(summaries, tracks)
	case FormatMarkdown:
		return ExportStatsMarkdown(summaries, tracks)
	case FormatJSON:
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode stats JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported stats format %q", format)
	}
}

// WriteToFile writes data to path, creating parent directories.
func WriteToFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
