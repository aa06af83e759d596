package services

import (
	"context"
	"encoding/json"
	"fmt"
)

// AuthorityService polls an external playback authority.
type AuthorityService struct {
	api *APIService
}

func NewAuthorityService(api *APIService) *AuthorityService {
	return &AuthorityService{api: api}
}

// AuthoritySong is the song the authority reports.
type AuthoritySong struct {
	Title   string   `json:"musicName"`
	Artists []string `json:"-"`
	Album   string   `json:"album"`
	Cover   string   `json:"cover"`
	// Duration is in seconds; 0 when unknown.
	Duration float64 `json:"-"`
}

// AuthorityState is one snapshot of the authority.
type AuthorityState struct {
	Song AuthoritySong
	// Position is in seconds.
	Position float64
}

type authorityStateResponse struct {
	Song       map[string]any `json:"song"`
	ProgressMS float64        `json:"progress_ms"`
}

// State fetches the authority snapshot.
func (s *AuthorityService) State(ctx context.Context) (AuthorityState, error) {
	resp, err := s.api.Get(ctx, "/amll/state")
	if err != nil {
		return AuthorityState{}, err
	}
	if err := resp.Err(); err != nil {
		return AuthorityState{}, err
	}

	var out authorityStateResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return AuthorityState{}, fmt.Errorf("failed to decode authority state: %w", err)
	}

	return AuthorityState{Song: parseAuthoritySong(out.Song), Position: out.ProgressMS / 1000}, nil
}

func parseAuthoritySong(raw map[string]any) AuthoritySong {
	song := AuthoritySong{
		Title: stringField(raw, "musicName", "title", "name"),
		Album: stringField(raw, "album"),
		Cover: stringField(raw, "cover"),
	}

	switch v := raw["artists"].(type) {
	case []any:
		for _, a := range v {
			switch a := a.(type) {
			case string:
				song.Artists = append(song.Artists, a)
			case map[string]any:
				if name := stringField(a, "name"); name != "" {
					song.Artists = append(song.Artists, name)
				}
			}
		}
	case string:
		if v != "" {
			song.Artists = []string{v}
		}
	}

	for _, key := range []string{"duration_ms", "duration", "length"} {
		if d, ok := raw[key].(float64); ok && d > 0 {
			song.Duration = NormalizeDuration(d)
			break
		}
	}
	return song
}

// NormalizeDuration treats values above 1000 as milliseconds and everything else as seconds.
func NormalizeDuration(d float64) float64 {
	if d > 1000 {
		return d / 1000
	}
	return d
}

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
