package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/lyricsphere/internal/models"
)

// CatalogService reads the song catalog.
type CatalogService struct {
	api *APIService
}

func NewCatalogService(api *APIService) *CatalogService {
	return &CatalogService{api: api}
}

type songsSummaryResponse struct {
	Status string            `json:"status"`
	Songs  []json.RawMessage `json:"songs"`
}

// Songs fetches the catalog summary. Entries that fail to decode or carry no filename are skipped.
func (s *CatalogService) Songs(ctx context.Context) ([]models.Track, error) {
	var out songsSummaryResponse
	if _, err := s.api.GetJSON(ctx, "/songs/summary", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch songs: %w", err)
	}

	tracks := make([]models.Track, 0, len(out.Songs))
	for _, raw := range out.Songs {
		var t models.Track
		if err := json.Unmarshal(raw, &t); err != nil || t.ID == "" {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}
