package models

import (
	"time"
)

const (
	// MaxStatsEntries bounds each per-track stats sequence.
	MaxStatsEntries = 50
	// MaxHistory bounds the play history.
	MaxHistory = 50
	// MaxRecentSearches bounds the recent search list.
	MaxRecentSearches = 8
	// LikedPlaylistID is the reserved id of the built-in liked playlist.
	LikedPlaylistID = "like"
	// LikedPlaylistName is the display name given to a freshly created liked playlist.
	LikedPlaylistName = "喜欢"
)

// Model defines the base interface for persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// TailInts keeps the last n values of s in a new slice.
func TailInts(s []int, n int) []int {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	out := make([]int, len(s))
	copy(out, s)
	return out
}

// TailInt64s keeps the last n values of s in a new slice.
func TailInt64s(s []int64, n int) []int64 {
	if len(s) > n {
		s = s[len(s)-n:]
	}
	out := make([]int64, len(s))
	copy(out, s)
	return out
}
