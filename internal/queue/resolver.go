package queue

import (
	"github.com/desertthunder/lyricsphere/internal/models"
)

// Input is everything a [Snapshot] is derived from.
type Input struct {
	Library   models.Library
	Selection []string
	CurrentID string
	Mode      models.Mode
}

// Snapshot is a derived view of the play queue.
type Snapshot struct {
	Active   []models.Track
	Current  int
	Upcoming []models.Track
	// NextUp is the track shown as next: the current one in single mode, the head of the shuffled upcoming list in
	// shuffle mode, the following one otherwise.
	NextUp *models.Track
}

// Resolver derives snapshots and advancement targets with a fixed randomness source.
type Resolver struct {
	rand Rand
}

// NewResolver creates a resolver. A nil source uses a randomly seeded PCG.
func NewResolver(r Rand) *Resolver {
	return &Resolver{rand: orDefault(r)}
}

// Resolve derives the snapshot for in.
func (r *Resolver) Resolve(in Input) Snapshot {
	active := ActiveQueue(in.Library, in.Selection)
	current := CurrentIndex(active, in.CurrentID)
	s := Snapshot{
		Active:   active,
		Current:  current,
		Upcoming: Upcoming(active, current, in.Mode, r.rand),
	}

	if current >= 0 {
		switch in.Mode {
		case models.ModeSingle:
			t := active[current]
			s.NextUp = &t
		case models.ModeShuffle:
			if len(s.Upcoming) > 0 {
				t := s.Upcoming[0]
				s.NextUp = &t
			}
		default:
			t := active[(current+1)%len(active)]
			s.NextUp = &t
		}
	}
	return s
}

// Next returns the track to advance to from in, or false when the queue is empty.
func (r *Resolver) Next(in Input) (models.Track, bool) {
	return r.step(in, NextIndex)
}

// Previous returns the track to step back to from in, or false when the queue is empty.
func (r *Resolver) Previous(in Input) (models.Track, bool) {
	return r.step(in, PreviousIndex)
}

func (r *Resolver) step(in Input, pick func(models.Mode, int, int, Rand) int) (models.Track, bool) {
	active := ActiveQueue(in.Library, in.Selection)
	current := CurrentIndex(active, in.CurrentID)
	i := pick(in.Mode, current, len(active), r.rand)
	if i < 0 {
		return models.Track{}, false
	}
	return active[i], true
}
