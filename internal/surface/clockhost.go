package surface

import (
	"github.com/desertthunder/lyricsphere/internal/clock"
)

// ClockHost is a headless [Host] for terminals. Loads become ready on the next scheduler turn and each slot holds a
// [ClockMedia] that advances with scheduler time.
type ClockHost struct {
	sched   clock.Scheduler
	length  float64
	ready   func(SlotID, string)
	slots   [2]*ClockMedia
	opacity [2]float64
	scale   [2]float64
}

// NewClockHost creates a host whose media all last length seconds. A length of 0 means unknown and never ends.
func NewClockHost(sched clock.Scheduler, length float64) *ClockHost {
	return &ClockHost{sched: sched, length: max(length, 0)}
}

// OnReady sets the readiness callback, usually [Controller.SlotReady].
func (h *ClockHost) OnReady(fn func(SlotID, string)) { h.ready = fn }

func (h *ClockHost) Load(slot SlotID, ref string) {
	h.slots[slot] = NewClockMedia(h.sched, h.length)
	h.sched.Post(func() {
		if h.ready != nil {
			h.ready(slot, ref)
		}
	})
}

func (h *ClockHost) SetOpacity(slot SlotID, v float64) { h.opacity[slot] = v }
func (h *ClockHost) SetScale(slot SlotID, v float64)   { h.scale[slot] = v }

// Opacity returns the last opacity set on slot.
func (h *ClockHost) Opacity(slot SlotID) float64 { return h.opacity[slot] }

func (h *ClockHost) Media(slot SlotID) Media {
	if h.slots[slot] == nil {
		return nil
	}
	return h.slots[slot]
}

// ClockMedia is a [Media] whose position is derived from the scheduler clock while playing.
type ClockMedia struct {
	sched     clock.Scheduler
	length    float64
	offset    float64
	startedAt float64
	playing   bool
}

// NewClockMedia returns paused media at position 0.
func NewClockMedia(sched clock.Scheduler, length float64) *ClockMedia {
	return &ClockMedia{sched: sched, length: length}
}

func (m *ClockMedia) now() float64 {
	return float64(m.sched.Now().UnixNano()) / 1e9
}

func (m *ClockMedia) CurrentTime() float64 {
	t := m.offset
	if m.playing {
		t += m.now() - m.startedAt
	}
	if m.length > 0 {
		t = min(t, m.length)
	}
	return t
}

func (m *ClockMedia) Duration() float64 { return m.length }

func (m *ClockMedia) Ended() bool {
	return m.length > 0 && m.CurrentTime() >= m.length
}

func (m *ClockMedia) Paused() bool { return !m.playing || m.Ended() }

func (m *ClockMedia) Seek(t float64) error {
	t = max(t, 0)
	if m.length > 0 {
		t = min(t, m.length)
	}
	m.offset = t
	m.startedAt = m.now()
	return nil
}

// Play resumes from the current position, restarting from 0 when ended.
func (m *ClockMedia) Play() error {
	if m.Ended() {
		m.offset = 0
	} else {
		m.offset = m.CurrentTime()
	}
	m.startedAt = m.now()
	m.playing = true
	return nil
}

func (m *ClockMedia) Pause() error {
	m.offset = m.CurrentTime()
	m.playing = false
	return nil
}
