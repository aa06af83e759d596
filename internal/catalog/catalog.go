// Package catalog loads the song library and resolves stored track identifiers against it.
package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/services"
)

// Source loads a library.
type Source interface {
	Load(ctx context.Context) (models.Library, error)
}

// HTTPSource loads the library from the backend's song summary.
type HTTPSource struct {
	svc *services.CatalogService
}

func NewHTTPSource(svc *services.CatalogService) *HTTPSource {
	return &HTTPSource{svc: svc}
}

func (s *HTTPSource) Load(ctx context.Context) (models.Library, error) {
	tracks, err := s.svc.Songs(ctx)
	if err != nil {
		return models.Library{}, fmt.Errorf("failed to load catalog: %w", err)
	}
	return models.NewLibrary(tracks), nil
}

// Lookup resolves identifiers, cover and background references to catalog tracks.
type Lookup struct {
	lib   models.Library
	index map[string]string
}

// NewLookup indexes every candidate form of each track's id, cover and background. The first track to claim a
// candidate keeps it.
func NewLookup(lib models.Library) *Lookup {
	l := &Lookup{lib: lib, index: make(map[string]string)}
	for _, t := range lib.Tracks() {
		for _, v := range []string{t.ID, t.Cover, t.Background} {
			for _, c := range Candidates(v) {
				if _, taken := l.index[c]; !taken {
					l.index[c] = t.ID
				}
			}
		}
	}
	return l
}

// Resolve maps a stored identifier to a catalog id.
func (l *Lookup) Resolve(id string) (string, bool) {
	if _, ok := l.lib.Get(id); ok {
		return id, true
	}
	for _, c := range Candidates(id) {
		if found, ok := l.index[c]; ok {
			return found, true
		}
	}
	return "", false
}

// Track resolves id and returns its track.
func (l *Lookup) Track(id string) (models.Track, bool) {
	resolved, ok := l.Resolve(id)
	if !ok {
		return models.Track{}, false
	}
	return l.lib.Get(resolved)
}

// Canonicalize maps resolvable ids to catalog ids and keeps the rest verbatim, then removes duplicates keeping the
// first occurrence.
func (l *Lookup) Canonicalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if resolved, ok := l.Resolve(id); ok {
			out = append(out, resolved)
			continue
		}
		out = append(out, id)
	}
	return models.Dedupe(out)
}

// Library returns the indexed library.
func (l *Lookup) Library() models.Library {
	return l.lib
}

// Candidates returns the normalized forms a reference may be stored under.
func Candidates(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	forms := []string{value}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		if u, err := url.Parse(value); err == nil && u.Path != "" {
			forms = append(forms, u.Path)
		}
	}

	for _, f := range forms {
		add(f)
		lower := strings.ToLower(f)
		add(lower)

		for _, base := range []string{f, lower} {
			p := strings.TrimPrefix(base, "/")
			if decoded, err := url.PathUnescape(p); err == nil {
				add(decoded)
				p = decoded
			}
			add(p)
			if strings.HasPrefix(strings.ToLower(p), "songs/") {
				p = p[len("songs/"):]
				add(p)
			}
			add(strings.TrimSuffix(p, ".json"))
			add(strings.ToLower(strings.TrimSuffix(p, ".json")))
		}
	}
	return out
}
