// Package queue derives the active play queue and advancement indices from a library, an optional sub-selection,
// the current track and the playback mode.
//
// Every function is pure given its inputs; randomness comes from an injected source.
package queue

import (
	"math/rand/v2"

	"github.com/desertthunder/lyricsphere/internal/models"
)

// Rand is the randomness the resolver needs.
type Rand interface {
	IntN(n int) int
}

// ActiveQueue resolves selection against lib, preserving selection order and skipping unresolved ids.
// An empty selection yields the full library in catalog order.
func ActiveQueue(lib models.Library, selection []string) []models.Track {
	if len(selection) == 0 {
		return lib.Tracks()
	}
	out := make([]models.Track, 0, len(selection))
	for _, id := range selection {
		if t, ok := lib.Get(id); ok {
			out = append(out, t)
		}
	}
	return out
}

// CurrentIndex returns the first index whose id matches currentID, 0 when absent, and -1 for an empty queue.
func CurrentIndex(active []models.Track, currentID string) int {
	if len(active) == 0 {
		return -1
	}
	for i, t := range active {
		if t.ID == currentID {
			return i
		}
	}
	return 0
}

// Upcoming returns the queue without the current element. In shuffle mode the remainder is
// permuted with a uniform Fisher–Yates shuffle on every call; the order is for display only.
func Upcoming(active []models.Track, current int, mode models.Mode, r Rand) []models.Track {
	out := make([]models.Track, 0, len(active))
	for i, t := range active {
		if i != current {
			out = append(out, t)
		}
	}
	if mode == models.ModeShuffle {
		Shuffle(out, r)
	}
	return out
}

// Shuffle permutes tracks in place.
func Shuffle(tracks []models.Track, r Rand) {
	r = orDefault(r)
	for i := len(tracks) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		tracks[i], tracks[j] = tracks[j], tracks[i]
	}
}

// NextIndex returns the index to advance to, or -1 when the queue is empty.
func NextIndex(mode models.Mode, current, n int, r Rand) int {
	if n <= 0 {
		return -1
	}
	switch mode {
	case models.ModeSingle:
		return current
	case models.ModeShuffle:
		return drawOther(current, n, r)
	default:
		return (current + 1) % n
	}
}

// PreviousIndex mirrors [NextIndex]. In shuffle mode it draws independently and keeps no history.
func PreviousIndex(mode models.Mode, current, n int, r Rand) int {
	if n <= 0 {
		return -1
	}
	switch mode {
	case models.ModeSingle:
		return current
	case models.ModeShuffle:
		return drawOther(current, n, r)
	default:
		return ((current-1)%n + n) % n
	}
}

// drawOther rejection-samples [0,n) until the value differs from current.
func drawOther(current, n int, r Rand) int {
	if n <= 1 {
		return current
	}
	r = orDefault(r)
	next := current
	for next == current {
		next = r.IntN(n)
	}
	return next
}

func orDefault(r Rand) Rand {
	if r == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r
}
