package models

// ListenStats is the bounded listen record for one track.
type ListenStats struct {
	Completions []int   `json:"completions" yaml:"completions"` // completion percentages 0-100
	Listens     []int64 `json:"listens" yaml:"listens"`         // playback start times, unix milliseconds
}

// Capped returns a copy with each sequence trimmed to its last [MaxStatsEntries] values.
func (s ListenStats) Capped() ListenStats {
	return ListenStats{
		Completions: TailInts(s.Completions, MaxStatsEntries),
		Listens:     TailInt64s(s.Listens, MaxStatsEntries),
	}
}

// StatsMap keys [ListenStats] by track id.
type StatsMap map[string]ListenStats

// Clone deep-copies the map.
func (m StatsMap) Clone() StatsMap {
	out := make(StatsMap, len(m))
	for id, s := range m {
		out[id] = ListenStats{
			Completions: append([]int{}, s.Completions...),
			Listens:     append([]int64{}, s.Listens...),
		}
	}
	return out
}
