package repositories

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// Persisted keys.
const (
	KeyLibrary        = "lyricSpherePlaylistsV1"
	KeyListenStats    = "lyricSphereListenStatsV1"
	KeyUISettings     = "lyricSphereUiSettingsV1"
	KeyAnchorSettings = "lyricSphereAnchorSettingsV1"
	KeyBackupSettings = "lyricSphereBackupSettingsV1"
	KeyRecentSearches = "lyricSphereRecentSearchesV1"
	KeyClientID       = "lyricSphereClientIdV1"
)

// SyncedKeys are the keys whose changes schedule an automatic backup.
var SyncedKeys = []string{KeyLibrary, KeyListenStats}

// StateRepository reads and writes typed client state over a [Store].
//
// Reads never fail: absent or malformed values degrade to defaults and are logged.
type StateRepository struct {
	store  Store
	logger *log.Logger
	idMu   sync.Mutex
}

// NewStateRepository wraps store. A nil logger discards warnings.
func NewStateRepository(store Store, logger *log.Logger) *StateRepository {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &StateRepository{store: store, logger: logger}
}

// Store exposes the underlying store for subscriptions.
func (r *StateRepository) Store() Store { return r.store }

func (r *StateRepository) read(key string) (map[string]json.RawMessage, bool) {
	raw, ok := r.readRaw(key)
	if !ok {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		r.logger.Warn("ignoring malformed stored value", "key", key, "error", err)
		return nil, false
	}
	return obj, true
}

func (r *StateRepository) readRaw(key string) ([]byte, bool) {
	raw, ok, err := r.store.Get(key)
	if err != nil {
		r.logger.Warn("failed to read stored value", "key", key, "error", err)
		return nil, false
	}
	if !ok || len(raw) == 0 {
		return nil, false
	}
	return raw, true
}

func (r *StateRepository) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return r.store.Set(key, data)
}

// LibraryState returns playlists and history. The liked playlist is always present.
func (r *StateRepository) LibraryState() models.LibraryState {
	state := models.LibraryState{Playlists: models.DefaultPlaylists(), History: []string{}}

	obj, ok := r.read(KeyLibrary)
	if !ok {
		return state
	}

	if raw, ok := obj["playlists"]; ok {
		playlists, skipped := models.DecodePlaylists(raw)
		if skipped > 0 {
			r.logger.Warn("skipped malformed playlists", "count", skipped)
		}
		if playlists != nil {
			state.Playlists = models.EnsureLiked(playlists)
		}
	}
	if raw, ok := obj["history"]; ok {
		state.History = models.DecodeStrings(raw)
	}
	return state
}

// SaveLibraryState persists playlists and history together.
func (r *StateRepository) SaveLibraryState(state models.LibraryState) error {
	if state.Playlists == nil {
		state.Playlists = []models.Playlist{}
	}
	if state.History == nil {
		state.History = []string{}
	}
	return r.write(KeyLibrary, state)
}

// ListenStats returns the durable stats map.
func (r *StateRepository) ListenStats() models.StatsMap {
	raw, ok := r.readRaw(KeyListenStats)
	if !ok {
		return models.StatsMap{}
	}
	stats, skipped := models.DecodeStats(raw)
	if skipped > 0 {
		r.logger.Warn("skipped malformed stats entries", "count", skipped)
	}
	return stats
}

// SaveListenStats persists the stats map.
func (r *StateRepository) SaveListenStats(stats models.StatsMap) error {
	if stats == nil {
		stats = models.StatsMap{}
	}
	return r.write(KeyListenStats, stats)
}

func (r *StateRepository) UISettings() models.UISettings {
	var settings models.UISettings
	obj, ok := r.read(KeyUISettings)
	if !ok {
		return settings
	}
	r.decodeField(KeyUISettings, obj, "disableCovers", &settings.DisableCovers)
	r.decodeField(KeyUISettings, obj, "lyricScale", &settings.LyricScale)
	return settings
}

func (r *StateRepository) SaveUISettings(settings models.UISettings) error {
	return r.write(KeyUISettings, settings)
}

func (r *StateRepository) AnchorSettings() models.AnchorSettings {
	var settings models.AnchorSettings
	obj, ok := r.read(KeyAnchorSettings)
	if !ok {
		return settings
	}
	r.decodeField(KeyAnchorSettings, obj, "anchorAccount", &settings.Account)
	r.decodeField(KeyAnchorSettings, obj, "anchorId", &settings.AnchorID)
	return settings
}

func (r *StateRepository) SaveAnchorSettings(settings models.AnchorSettings) error {
	return r.write(KeyAnchorSettings, settings)
}

// BackupSettings defaults to auto backup enabled.
func (r *StateRepository) BackupSettings() models.BackupSettings {
	settings := models.BackupSettings{AutoBackupEnabled: true}
	obj, ok := r.read(KeyBackupSettings)
	if !ok {
		return settings
	}
	r.decodeField(KeyBackupSettings, obj, "autoBackupEnabled", &settings.AutoBackupEnabled)
	r.decodeField(KeyBackupSettings, obj, "lastBackupAt", &settings.LastBackupAt)
	return settings
}

func (r *StateRepository) SaveBackupSettings(settings models.BackupSettings) error {
	return r.write(KeyBackupSettings, settings)
}

// RecentSearches returns trimmed, non-empty terms, newest first.
func (r *StateRepository) RecentSearches() []string {
	raw, ok := r.readRaw(KeyRecentSearches)
	if !ok {
		return []string{}
	}
	terms := models.DecodeStrings(raw)
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
		if len(out) == models.MaxRecentSearches {
			break
		}
	}
	return out
}

// AddRecentSearch moves term to the front, replacing any case-insensitive match.
func (r *StateRepository) AddRecentSearch(term string) ([]string, error) {
	term = strings.TrimSpace(term)
	current := r.RecentSearches()
	if term == "" {
		return current, nil
	}

	next := []string{term}
	for _, t := range current {
		if !strings.EqualFold(t, term) {
			next = append(next, t)
		}
	}
	if len(next) > models.MaxRecentSearches {
		next = next[:models.MaxRecentSearches]
	}
	return next, r.write(KeyRecentSearches, next)
}

// ClientID returns the durable client id, generating and persisting it on first use.
func (r *StateRepository) ClientID() (string, error) {
	r.idMu.Lock()
	defer r.idMu.Unlock()

	if raw, ok := r.readRaw(KeyClientID); ok {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			return id, nil
		}
		if s := strings.TrimSpace(string(raw)); s != "" && !strings.ContainsAny(s, "\"{[") {
			return s, nil
		}
	}

	id := shared.GenerateID()
	if err := r.write(KeyClientID, id); err != nil {
		return "", fmt.Errorf("failed to persist client id: %w", err)
	}
	return id, nil
}

// decodeField fills dst from obj[field]. A wrong-typed field leaves dst at its default.
func (r *StateRepository) decodeField(key string, obj map[string]json.RawMessage, field string, dst any) {
	raw, ok := obj[field]
	if !ok {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn("ignoring malformed stored field", "key", key, "field", field, "error", err)
	}
}
