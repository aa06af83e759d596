package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// Source loads the library to publish.
type Source interface {
	Load(ctx context.Context) (models.Library, error)
}

// LibraryHandler publishes a catalog summary and the files behind it.
type LibraryHandler struct {
	source Source
	files  http.Handler
	logger *log.Logger
}

// NewLibraryHandler serves source's summary and the files under root.
func NewLibraryHandler(source Source, root string, logger *log.Logger) *LibraryHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &LibraryHandler{
		source: source,
		files:  http.StripPrefix("/songs/", http.FileServer(http.Dir(root))),
		logger: logger,
	}
}

func (h *LibraryHandler) Routes() []string {
	return []string{"GET /songs/summary", "GET /songs/"}
}

func (h *LibraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/songs/summary" {
		h.summary(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

type summaryResponse struct {
	Status  string         `json:"status"`
	Songs   []models.Track `json:"songs,omitempty"`
	Message string         `json:"message,omitempty"`
}

func (h *LibraryHandler) summary(w http.ResponseWriter, r *http.Request) {
	lib, err := h.source.Load(r.Context())
	if err != nil {
		h.logger.Error("failed to load library", "error", err)
		writeJSON(w, http.StatusInternalServerError, summaryResponse{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Status: "success", Songs: lib.Tracks()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
