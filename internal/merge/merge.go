// Package merge combines two versions of synchronized state.
//
// Every function takes a primary and a secondary side. The functions are pure and total: nil inputs are treated as empty
// and outputs never alias inputs. Primary order wins ties; merging with an empty secondary returns primary (normalized).
package merge

import (
	"github.com/desertthunder/lyricsphere/internal/models"
)

// History concatenates primary then secondary, keeps the first occurrence of each id and truncates to [models.MaxHistory].
func History(primary, secondary []string) []string {
	merged := make([]string, 0, len(primary)+len(secondary))
	seen := make(map[string]struct{}, len(primary)+len(secondary))
	for _, list := range [][]string{primary, secondary} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, id)
		}
	}
	if len(merged) > models.MaxHistory {
		merged = merged[:models.MaxHistory]
	}
	return merged
}

// ListenStats starts from secondary's sequences, appends primary's, and keeps the last [models.MaxStatsEntries] of each.
func ListenStats(primary, secondary models.StatsMap) models.StatsMap {
	merged := make(models.StatsMap, len(primary)+len(secondary))
	for id, entry := range secondary {
		merged[id] = models.ListenStats{
			Completions: append([]int{}, entry.Completions...),
			Listens:     append([]int64{}, entry.Listens...),
		}
	}
	for id, entry := range primary {
		base := merged[id]
		merged[id] = models.ListenStats{
			Completions: append(append([]int{}, base.Completions...), entry.Completions...),
			Listens:     append(append([]int64{}, base.Listens...), entry.Listens...),
		}
	}
	for id, entry := range merged {
		merged[id] = entry.Capped()
	}
	return merged
}

// Playlists matches playlists by id. Primary is indexed first, so its order and names win.
//
// Shared playlists keep primary's tracks followed by secondary's unseen tracks. An empty name is filled from the other side.
// Playlists without an id are dropped; a repeated id within one side is folded into the first occurrence.
func Playlists(primary, secondary []models.Playlist) []models.Playlist {
	merged := make([]models.Playlist, 0, len(primary)+len(secondary))
	index := make(map[string]int, len(primary)+len(secondary))

	for _, list := range [][]models.Playlist{primary, secondary} {
		for _, p := range list {
			if p.ID == "" {
				continue
			}
			i, ok := index[p.ID]
			if !ok {
				index[p.ID] = len(merged)
				merged = append(merged, models.Playlist{ID: p.ID, Name: p.Name, Tracks: models.Dedupe(p.Tracks)})
				continue
			}

			existing := &merged[i]
			existing.Tracks = models.Dedupe(append(existing.Tracks, p.Tracks...))
			if existing.Name == "" && p.Name != "" {
				existing.Name = p.Name
			}
		}
	}
	return merged
}

// Data merges every part of a backup.
func Data(primary, secondary models.BackupData) models.BackupData {
	return models.BackupData{
		Playlists:   Playlists(primary.Playlists, secondary.Playlists),
		History:     History(primary.History, secondary.History),
		ListenStats: ListenStats(primary.ListenStats, secondary.ListenStats),
	}
}

// DropIdentical returns secondary without the entries that equal primary's entry for the same track.
//
// Importing a backup of unchanged local state would otherwise double every stats sequence.
func DropIdentical(primary, secondary models.StatsMap) models.StatsMap {
	out := make(models.StatsMap, len(secondary))
	for id, entry := range secondary {
		if local, ok := primary[id]; ok && equalInts(local.Completions, entry.Completions) && equalInt64s(local.Listens, entry.Listens) {
			continue
		}
		out[id] = entry
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInt64s(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
