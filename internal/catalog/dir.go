package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/dhowden/tag"
)

var audioExts = map[string]bool{".mp3": true, ".flac": true, ".m4a": true, ".ogg": true, ".wav": true}

var lyricExts = []string{".ttml", ".lys", ".lrc"}

// DirSource builds a library from tagged audio files under a directory. Track ids are slash separated paths relative
// to the root.
type DirSource struct {
	root   string
	logger *log.Logger
}

func NewDirSource(root string, logger *log.Logger) *DirSource {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &DirSource{root: root, logger: logger}
}

func (s *DirSource) Load(ctx context.Context) (models.Library, error) {
	if s.root == "" {
		return models.Library{}, fmt.Errorf("%w: catalog music_dir", shared.ErrMissingConfig)
	}

	var tracks []models.Track
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !audioExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		tracks = append(tracks, s.scanTrack(path))
		return nil
	})
	if err != nil {
		return models.Library{}, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })
	s.logger.Info("scanned music directory", "root", s.root, "tracks", len(tracks))
	return models.NewLibrary(tracks), nil
}

func (s *DirSource) scanTrack(path string) models.Track {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	track := models.Track{ID: rel, Media: "/songs/" + rel, HasAudio: true}

	if f, err := os.Open(path); err == nil {
		m, err := tag.ReadFrom(f)
		if err == nil {
			track.Title = m.Title()
			track.Artists = models.SplitArtists(m.Artist())
		} else {
			s.logger.Debug("tag read failed", "path", rel, "error", err)
		}
		f.Close()
	}

	if track.Title == "" {
		track.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	dir := filepath.Dir(path)
	for _, name := range []string{"cover.jpg", "cover.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			if coverRel, err := filepath.Rel(s.root, filepath.Join(dir, name)); err == nil {
				track.Cover = "/songs/" + filepath.ToSlash(coverRel)
			}
			break
		}
	}

	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range lyricExts {
		if _, err := os.Stat(stem + ext); err == nil {
			lyricRel, _ := filepath.Rel(s.root, stem+ext)
			track.LyricsPath = "/songs/" + filepath.ToSlash(lyricRel)
			break
		}
	}
	return track
}
