package services

import (
	"context"
	"net/http"
	"time"

	"github.com/desertthunder/lyricsphere/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Backend bundles the endpoint groups of one lyrics backend.
type Backend struct {
	API       *APIService
	Catalog   *CatalogService
	Backup    *BackupService
	Authority *AuthorityService
	Lyrics    *LyricsService
}

// NewBackend wires every endpoint group onto one rate limited [APIService].
func NewBackend(ctx context.Context, cfg shared.RemoteConfig) *Backend {
	api := NewAPIService(cfg.BaseURL, NewHTTPClient(ctx, cfg)).WithRateLimit(cfg.RequestsPerSecond, cfg.Burst)
	return &Backend{
		API:       api,
		Catalog:   NewCatalogService(api),
		Backup:    NewBackupService(api),
		Authority: NewAuthorityService(api),
		Lyrics:    NewLyricsService(api),
	}
}

// NewHTTPClient returns a client with the configured timeout. When OAuth client credentials are configured the
// client attaches and refreshes bearer tokens.
func NewHTTPClient(ctx context.Context, cfg shared.RemoteConfig) *http.Client {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	if !cfg.OAuth.Enabled() {
		return &http.Client{Timeout: timeout}
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		TokenURL:     cfg.OAuth.TokenURL,
		Scopes:       cfg.OAuth.Scopes,
	}
	base := &http.Client{Timeout: timeout}
	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), cc.TokenSource(ctx))
	client.Timeout = timeout
	return client
}
