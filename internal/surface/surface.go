// Package surface owns the two interchangeable rendering slots that display lyrics and host the media element.
//
// # Handoff
//
// A [Controller] keeps one slot active and loads new content into the other. When the loading slot reports
// readiness a fixed-length crossfade starts; when it completes the old slot's media is paused and the slots swap.
// A content reference that arrives mid-load or mid-fade overwrites the loading slot, so only the latest reference
// ever becomes active.
//
// # Threading
//
// Every method must run on the [clock.Scheduler] thread the controller was built with. Hosts deliver readiness by
// posting [Controller.SlotReady] onto that scheduler.
package surface

import "fmt"

// SlotID names one of the two slots.
type SlotID int

const (
	SlotA SlotID = iota
	SlotB
)

// Other returns the opposite slot.
func (s SlotID) Other() SlotID {
	if s == SlotA {
		return SlotB
	}
	return SlotA
}

func (s SlotID) String() string {
	if s == SlotA {
		return "A"
	}
	return "B"
}

// Phase is the controller state.
type Phase int

const (
	// Idle means no content was assigned to either slot.
	Idle Phase = iota
	// SingleLoaded means the active slot holds content and nothing is pending.
	SingleLoaded
	// PendingLoad means the inactive slot is loading newer content.
	PendingLoad
	// Swapping means the pending slot is ready and the crossfade is running.
	Swapping
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case SingleLoaded:
		return "single_loaded"
	case PendingLoad:
		return "pending_load"
	case Swapping:
		return "swapping"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Media is the externally owned playable element inside a slot.
type Media interface {
	CurrentTime() float64
	// Duration returns 0 when unknown.
	Duration() float64
	Paused() bool
	Ended() bool
	Seek(t float64) error
	Play() error
	Pause() error
}

// Host performs the slot side effects the controller decides on.
type Host interface {
	// Load starts loading ref into slot. Completion is reported through [Controller.SlotReady].
	Load(slot SlotID, ref string)
	// SetOpacity sets the visibility and audibility of a slot in [0,1].
	SetOpacity(slot SlotID, opacity float64)
	// SetScale forwards a lyric scale change to the slot's font control.
	SetScale(slot SlotID, scale float64)
	// Media returns the slot's media element, or nil if it has none.
	Media(slot SlotID) Media
}

// NopHost is a [Host] with no slots, used when nothing renders locally.
type NopHost struct{}

func (NopHost) Load(SlotID, string)        {}
func (NopHost) SetOpacity(SlotID, float64) {}
func (NopHost) SetScale(SlotID, float64)   {}
func (NopHost) Media(SlotID) Media         { return nil }
