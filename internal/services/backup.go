package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// DownloadKind selects the snapshot a download link points at.
type DownloadKind string

const (
	DownloadClient DownloadKind = "client"
	DownloadAnchor DownloadKind = "anchor"
)

// BackupService talks to the snapshot endpoints.
type BackupService struct {
	api *APIService
}

func NewBackupService(api *APIService) *BackupService {
	return &BackupService{api: api}
}

// Submit uploads a payload and returns the server's message, or "done".
func (s *BackupService) Submit(ctx context.Context, payload models.BackupPayload) (string, error) {
	resp, err := s.api.PostJSON(ctx, "/backup_client_state", payload, nil)
	if err != nil {
		return "", fmt.Errorf("failed to submit backup: %w", err)
	}
	return resp.Message("done"), nil
}

// ResolveAnchor exchanges an account and password for an anchor id.
func (s *BackupService) ResolveAnchor(ctx context.Context, account, password string) (string, error) {
	account = strings.TrimSpace(account)
	if account == "" || password == "" {
		return "", fmt.Errorf("%w: account and password are required", shared.ErrMissingCredentials)
	}

	var out struct {
		AnchorID string `json:"anchorId"`
	}
	body := map[string]string{"account": account, "password": password}
	if _, err := s.api.PostJSON(ctx, "/anchor_backup", body, &out); err != nil {
		return "", fmt.Errorf("failed to resolve anchor: %w", err)
	}
	if out.AnchorID == "" {
		return "", fmt.Errorf("%w: response has no anchorId", shared.ErrAPIRequest)
	}
	return out.AnchorID, nil
}

// FetchAnchor returns the raw snapshot stored under an anchor.
func (s *BackupService) FetchAnchor(ctx context.Context, anchorID string) ([]byte, error) {
	if anchorID == "" {
		return nil, fmt.Errorf("%w: anchor id", shared.ErrMissingArgument)
	}
	resp, err := s.api.GetJSON(ctx, "/get_anchor_backup", url.Values{"anchor_id": {anchorID}}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch anchor backup: %w", err)
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%w: anchor backup is not JSON", shared.ErrInvalidBackup)
	}
	return resp.Body, nil
}

// Download returns the raw snapshot for a client or anchor id.
func (s *BackupService) Download(ctx context.Context, kind DownloadKind, id string) ([]byte, error) {
	path, query, err := downloadTarget(kind, id)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.GetJSON(ctx, path, query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to download backup: %w", err)
	}
	return resp.Body, nil
}

// DownloadURL returns the absolute download link for a client or anchor id.
func (s *BackupService) DownloadURL(kind DownloadKind, id string) (string, error) {
	path, query, err := downloadTarget(kind, id)
	if err != nil {
		return "", err
	}
	return s.api.URL(path, query), nil
}

func downloadTarget(kind DownloadKind, id string) (string, url.Values, error) {
	if id == "" {
		return "", nil, fmt.Errorf("%w: %s id", shared.ErrMissingArgument, kind)
	}
	switch kind {
	case DownloadClient:
		return "/download_client_backup", url.Values{"client_id": {id}}, nil
	case DownloadAnchor:
		return "/download_anchor_backup", url.Values{"anchor_id": {id}}, nil
	default:
		return "", nil, fmt.Errorf("%w: download kind %q", shared.ErrInvalidArgument, kind)
	}
}
