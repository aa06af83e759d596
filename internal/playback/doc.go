// Package playback runs the play session.
//
// An [Engine] derives the queue from the library, drives the two-slot surface controller and keeps position,
// duration and the playing flag in sync with the media element through a [SyncLoop]. The loop is adapter
// agnostic: [LocalAdapter] reads the element of the active surface slot, [PassiveAdapter] mirrors an external
// playback authority over HTTP.
//
// Every track switch is a statistics event. A natural end records a full completion; leaving a track early records
// the listened share when at least half a second was tracked and the duration is known.
package playback
