// Package stats records per-track listen starts and completion percentages.
//
// The durable copy is authoritative: every record reads the persisted map, appends, caps and writes it back before
// updating the in-memory mirror used for display.
package stats

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// TrendLength is the number of recent completions reported by [Summary].
const TrendLength = 12

// Persister loads and saves the durable stats map.
type Persister interface {
	ListenStats() models.StatsMap
	SaveListenStats(models.StatsMap) error
}

// Store implements the stats operations over a [Persister].
type Store struct {
	persist Persister
	now     func() time.Time
	logger  *log.Logger

	mu     sync.Mutex
	mirror models.StatsMap
}

// StoreOpts configures a [Store].
type StoreOpts struct {
	Now    func() time.Time
	Logger *log.Logger
}

// NewStore creates a store and primes the mirror from the durable copy.
func NewStore(p Persister, opts StoreOpts) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Store{persist: p, now: opts.Now, logger: opts.Logger, mirror: p.ListenStats()}
}

// RecordListenStart appends the current time to the track's listens.
func (s *Store) RecordListenStart(trackID string) error {
	if trackID == "" {
		return nil
	}
	ts := s.now().UnixMilli()
	return s.update(trackID, func(e *models.ListenStats) {
		e.Listens = append(e.Listens, ts)
	})
}

// RecordCompletion clamps percent to [0,100], rounds it and appends it to the track's completions.
func (s *Store) RecordCompletion(trackID string, percent float64) error {
	if trackID == "" {
		return nil
	}
	value := models.ClampPercent(percent)
	return s.update(trackID, func(e *models.ListenStats) {
		e.Completions = append(e.Completions, value)
	})
}

func (s *Store) update(trackID string, fn func(*models.ListenStats)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.persist.ListenStats()
	if all == nil {
		all = models.StatsMap{}
	}
	entry := all[trackID]
	fn(&entry)
	entry = entry.Capped()
	all[trackID] = entry

	if err := s.persist.SaveListenStats(all); err != nil {
		s.logger.Warn("failed to persist listen stats", "track", trackID, "error", err)
		return fmt.Errorf("failed to record stats for %s: %w", trackID, err)
	}
	s.mirror = all
	return nil
}

// Read returns the durable entry for a track. Unknown tracks yield empty sequences.
func (s *Store) Read(trackID string) models.ListenStats {
	entry := s.persist.ListenStats()[trackID]
	return models.ListenStats{
		Completions: append([]int{}, entry.Completions...),
		Listens:     append([]int64{}, entry.Listens...),
	}
}

// ReadAll returns the durable snapshot.
func (s *Store) ReadAll() models.StatsMap {
	return s.persist.ListenStats()
}

// Mirror returns the in-memory copy as of the last write or refresh.
func (s *Store) Mirror() models.StatsMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.Clone()
}

// Refresh reloads the mirror from the durable copy.
func (s *Store) Refresh() {
	all := s.persist.ListenStats()
	s.mu.Lock()
	s.mirror = all
	s.mu.Unlock()
}

// Replace overwrites the durable map, capping every entry.
func (s *Store) Replace(all models.StatsMap) error {
	capped := make(models.StatsMap, len(all))
	for id, entry := range all {
		capped[id] = entry.Capped()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist.SaveListenStats(capped); err != nil {
		return fmt.Errorf("failed to replace listen stats: %w", err)
	}
	s.mirror = capped
	return nil
}

// Summary is the display digest of one track's stats.
type Summary struct {
	TrackID        string    `json:"track_id"`
	Listens        int       `json:"listens"`
	CompletionRate int       `json:"completion_rate"`
	Trend          []int     `json:"trend"`
	LastListened   time.Time `json:"last_listened,omitzero"`
}

// Summarize builds the digest for one entry.
func Summarize(trackID string, entry models.ListenStats) Summary {
	listens := len(entry.Listens)
	if listens == 0 {
		listens = len(entry.Completions)
	}
	summary := Summary{
		TrackID:        trackID,
		Listens:        listens,
		CompletionRate: Median(entry.Completions),
		Trend:          models.TailInts(entry.Completions, TrendLength),
	}
	if n := len(entry.Listens); n > 0 {
		summary.LastListened = time.UnixMilli(entry.Listens[n-1])
	}
	return summary
}

// Summary returns the digest for a track from the durable copy.
func (s *Store) Summary(trackID string) Summary {
	return Summarize(trackID, s.Read(trackID))
}

// Summaries returns digests for every tracked id, most listened first.
func (s *Store) Summaries() []Summary {
	all := s.ReadAll()
	out := make([]Summary, 0, len(all))
	for id, entry := range all {
		out = append(out, Summarize(id, entry))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Listens != out[j].Listens {
			return out[i].Listens > out[j].Listens
		}
		return out[i].TrackID < out[j].TrackID
	})
	return out
}

// Median returns the rounded median, or 0 for no values.
func Median(values []int) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int{}, values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		sum := sorted[mid-1] + sorted[mid]
		return (sum + 1) / 2
	}
	return sorted[mid]
}
