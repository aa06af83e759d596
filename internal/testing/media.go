package testing

import (
	"sync"

	"github.com/desertthunder/lyricsphere/internal/surface"
)

// FakeMedia is a scriptable [surface.Media].
type FakeMedia struct {
	mu       sync.Mutex
	Time     float64
	Length   float64
	IsPaused bool
	HasEnded bool
	PlayErr  error
	PauseErr error
	Plays    int
	Pauses   int
	Seeks    []float64
}

// NewFakeMedia returns paused media of the given duration.
func NewFakeMedia(duration float64) *FakeMedia {
	return &FakeMedia{Length: duration, IsPaused: true}
}

func (m *FakeMedia) CurrentTime() float64 { m.mu.Lock(); defer m.mu.Unlock(); return m.Time }
func (m *FakeMedia) Duration() float64    { m.mu.Lock(); defer m.mu.Unlock(); return m.Length }
func (m *FakeMedia) Paused() bool         { m.mu.Lock(); defer m.mu.Unlock(); return m.IsPaused }
func (m *FakeMedia) Ended() bool          { m.mu.Lock(); defer m.mu.Unlock(); return m.HasEnded }

func (m *FakeMedia) Seek(t float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Time = t
	m.HasEnded = false
	m.Seeks = append(m.Seeks, t)
	return nil
}

func (m *FakeMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Plays++
	if m.PlayErr != nil {
		return m.PlayErr
	}
	m.IsPaused = false
	m.HasEnded = false
	return nil
}

func (m *FakeMedia) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pauses++
	if m.PauseErr != nil {
		return m.PauseErr
	}
	m.IsPaused = true
	return nil
}

// Set scripts the element state seen by the next poll.
func (m *FakeMedia) Set(t, duration float64, paused, ended bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Time, m.Length, m.IsPaused, m.HasEnded = t, duration, paused, ended
}

// FakeHost records slot side effects. Loads complete only when the test calls [FakeHost.Ready] or
// [FakeHost.CompleteAll].
type FakeHost struct {
	Loads     []string
	Opacity   [2]float64
	Scale     [2]float64
	Slots     [2]*FakeMedia
	NewMedia  func(ref string) *FakeMedia
	pending   [2]string
	readyFunc func(surface.SlotID, string)
}

// NewFakeHost creates a host whose loads produce fresh paused media.
func NewFakeHost() *FakeHost {
	return &FakeHost{NewMedia: func(string) *FakeMedia { return NewFakeMedia(180) }}
}

// OnReady sets the readiness callback, usually [surface.Controller.SlotReady].
func (h *FakeHost) OnReady(fn func(surface.SlotID, string)) { h.readyFunc = fn }

func (h *FakeHost) Load(slot surface.SlotID, ref string) {
	h.Loads = append(h.Loads, slot.String()+":"+ref)
	h.pending[slot] = ref
	h.Slots[slot] = h.NewMedia(ref)
}

func (h *FakeHost) SetOpacity(slot surface.SlotID, v float64) { h.Opacity[slot] = v }
func (h *FakeHost) SetScale(slot surface.SlotID, v float64)   { h.Scale[slot] = v }

func (h *FakeHost) Media(slot surface.SlotID) surface.Media {
	if h.Slots[slot] == nil {
		return nil
	}
	return h.Slots[slot]
}

// Ready signals readiness for whatever the slot is loading.
func (h *FakeHost) Ready(slot surface.SlotID) {
	if h.readyFunc != nil {
		h.readyFunc(slot, h.pending[slot])
	}
}

// LastLoad returns the most recently loaded slot and reference.
func (h *FakeHost) LastLoad() (surface.SlotID, string, bool) {
	if len(h.Loads) == 0 {
		return 0, "", false
	}
	last := h.Loads[len(h.Loads)-1]
	slot := surface.SlotA
	if last[0] == 'B' {
		slot = surface.SlotB
	}
	return slot, last[2:], true
}
