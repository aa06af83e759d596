package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/lyricsphere/internal/shared"
)

// LyricsService converts lyric files on the backend.
type LyricsService struct {
	api *APIService
}

func NewLyricsService(api *APIService) *LyricsService {
	return &LyricsService{api: api}
}

type convertTTMLResponse struct {
	Status    string `json:"status"`
	LyricPath string `json:"lyricPath"`
	TransPath string `json:"transPath"`
	Message   string `json:"message"`
}

// ConvertTTML converts a TTML file, given relative to the songs directory, and returns the converted lyric path and
// the translation path, which may be empty.
func (s *LyricsService) ConvertTTML(ctx context.Context, path string) (string, string, error) {
	if path == "" {
		return "", "", fmt.Errorf("%w: ttml path", shared.ErrMissingArgument)
	}

	var out convertTTMLResponse
	if _, err := s.api.PostJSON(ctx, "/convert_ttml_by_path", map[string]string{"path": path}, &out); err != nil {
		return "", "", fmt.Errorf("failed to convert %s: %w", path, err)
	}
	if out.LyricPath == "" {
		return "", "", fmt.Errorf("%w: conversion returned no lyric path", shared.ErrAPIRequest)
	}
	return out.LyricPath, out.TransPath, nil
}
