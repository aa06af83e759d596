package surface

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

const (
	// DefaultCrossfade is the fixed handoff duration.
	DefaultCrossfade = 320 * time.Millisecond
	// fadeStep is the opacity interpolation interval.
	fadeStep = 16 * time.Millisecond
)

type slot struct {
	ref   string
	ready bool
}

// Events are callbacks invoked on the scheduler thread.
type Events struct {
	// Ready fires when the slot that will end up active finishes loading.
	Ready func(slot SlotID, ref string)
	// Promoted fires when a pending slot becomes active.
	Promoted func(slot SlotID, ref string)
	// Playing fires when a requested autoplay starts.
	Playing func(ref string)
	// PlaybackDenied fires when a requested autoplay is rejected. It is not retried.
	PlaybackDenied func(ref string, err error)
}

// Options configures a [Controller].
type Options struct {
	Scheduler clock.Scheduler
	Host      Host
	// Crossfade defaults to [DefaultCrossfade] when zero. Negative values swap immediately.
	Crossfade time.Duration
	// Fade interpolates opacity over the crossfade; otherwise opacities jump when the fade starts.
	Fade   bool
	Events Events
	Logger *log.Logger
}

// Controller is the two-slot handoff state machine.
type Controller struct {
	sched     clock.Scheduler
	host      Host
	crossfade time.Duration
	fade      bool
	events    Events
	logger    *log.Logger

	slots      [2]slot
	active     SlotID
	pending    SlotID
	hasPending bool
	swapping   bool

	swapTimer clock.Timer
	fadeTimer clock.Timer
	fadeStart time.Time

	autoplay bool
}

// NewController creates an idle controller with slot A active.
func NewController(opts Options) *Controller {
	if opts.Host == nil {
		opts.Host = NopHost{}
	}
	if opts.Crossfade == 0 {
		opts.Crossfade = DefaultCrossfade
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Controller{
		sched:     opts.Scheduler,
		host:      opts.Host,
		crossfade: opts.Crossfade,
		fade:      opts.Fade,
		events:    opts.Events,
		logger:    opts.Logger,
		active:    SlotA,
	}
}

// Phase reports the current state.
func (c *Controller) Phase() Phase {
	switch {
	case c.swapping:
		return Swapping
	case c.hasPending:
		return PendingLoad
	case c.slots[c.active].ref == "":
		return Idle
	default:
		return SingleLoaded
	}
}

// Active returns the active slot and its reference.
func (c *Controller) Active() (SlotID, string) {
	return c.active, c.slots[c.active].ref
}

// Pending returns the pending slot and its reference, if any.
func (c *Controller) Pending() (SlotID, string, bool) {
	if !c.hasPending {
		return 0, "", false
	}
	return c.pending, c.slots[c.pending].ref, true
}

// Target returns the reference that will end up active: the pending one if any, else the active one.
func (c *Controller) Target() string {
	if c.hasPending {
		return c.slots[c.pending].ref
	}
	return c.slots[c.active].ref
}

// ActiveReady reports whether the active slot finished loading.
func (c *Controller) ActiveReady() bool {
	return c.slots[c.active].ready
}

// RequestAutoplay asks for playback to start once the target slot is ready. The request is consumed by the next
// readiness, whatever its outcome.
func (c *Controller) RequestAutoplay() {
	c.autoplay = true
}

// AutoplayRequested reports whether an autoplay request is outstanding.
func (c *Controller) AutoplayRequested() bool {
	return c.autoplay
}

// Assign routes a new content reference.
//
// A reference equal to the active one is a no-op for the slots, though it abandons any newer pending load.
// With nothing loaded the reference goes straight into the active slot. Otherwise it goes into the inactive slot,
// overwriting whatever was pending there and restarting any crossfade once that slot is ready.
func (c *Controller) Assign(ref string) {
	if ref == "" {
		return
	}

	if ref == c.slots[c.active].ref {
		if c.hasPending {
			c.logger.Debug("abandoning pending load", "slot", c.pending, "ref", c.slots[c.pending].ref)
			c.cancelSwap()
			c.hasPending = false
		}
		if c.autoplay && c.slots[c.active].ready {
			c.autoplay = false
			c.startPlayback(c.active, ref)
		}
		return
	}

	if c.hasPending && ref == c.slots[c.pending].ref {
		return
	}

	if c.slots[c.active].ref == "" && !c.hasPending {
		c.slots[c.active] = slot{ref: ref}
		c.host.SetOpacity(c.active, 1)
		c.host.SetOpacity(c.active.Other(), 0)
		c.logger.Debug("loading into active slot", "slot", c.active, "ref", ref)
		c.host.Load(c.active, ref)
		return
	}

	c.cancelSwap()

	target := c.active.Other()
	reuse := c.slots[target].ref == ref && c.slots[target].ready
	c.pending = target
	c.hasPending = true

	if reuse {
		c.logger.Debug("reusing loaded slot", "slot", target, "ref", ref)
		c.sched.Post(func() { c.SlotReady(target, ref) })
		return
	}

	c.slots[target] = slot{ref: ref}
	c.logger.Debug("loading into pending slot", "slot", target, "ref", ref)
	c.host.Load(target, ref)
}

// SlotReady records that a slot finished loading ref. Readiness for a reference the slot no longer holds is ignored.
func (c *Controller) SlotReady(id SlotID, ref string) {
	s := &c.slots[id]
	if s.ref != ref {
		c.logger.Debug("ignoring stale readiness", "slot", id, "ref", ref)
		return
	}
	s.ready = true

	isPending := c.hasPending && id == c.pending
	isActive := id == c.active && !c.hasPending
	if !isPending && !isActive {
		return
	}

	if c.events.Ready != nil {
		c.events.Ready(id, ref)
	}

	if isPending && !c.swapping {
		c.startSwap()
	}

	if c.autoplay {
		c.autoplay = false
		c.startPlayback(id, ref)
	}
}

func (c *Controller) startPlayback(id SlotID, ref string) {
	media := c.host.Media(id)
	if media == nil {
		c.logger.Debug("autoplay consumed without media", "slot", id, "ref", ref)
		return
	}
	if err := media.Play(); err != nil {
		c.logger.Warn("autoplay rejected", "slot", id, "ref", ref, "error", err)
		if c.events.PlaybackDenied != nil {
			c.events.PlaybackDenied(ref, fmt.Errorf("%w: %v", shared.ErrPlaybackDenied, err))
		}
		return
	}
	if c.events.Playing != nil {
		c.events.Playing(ref)
	}
}

func (c *Controller) startSwap() {
	c.swapping = true
	from, to := c.active, c.pending

	if c.crossfade < 0 {
		c.completeSwap()
		return
	}

	if !c.fade {
		c.host.SetOpacity(from, 0)
		c.host.SetOpacity(to, 1)
	} else {
		c.fadeStart = c.sched.Now()
		c.fadeTimer = clock.Every(c.sched, fadeStep, c.stepFade)
	}
	c.swapTimer = c.sched.AfterFunc(c.crossfade, c.completeSwap)
}

func (c *Controller) stepFade() {
	if !c.swapping {
		return
	}
	p := float64(c.sched.Now().Sub(c.fadeStart)) / float64(c.crossfade)
	p = min(max(p, 0), 1)
	c.host.SetOpacity(c.active, 1-p)
	c.host.SetOpacity(c.pending, p)
}

func (c *Controller) completeSwap() {
	c.stopTimers()
	old, next := c.active, c.pending

	if media := c.host.Media(old); media != nil && !media.Paused() {
		if err := media.Pause(); err != nil {
			c.logger.Warn("failed to pause outgoing slot", "slot", old, "error", err)
		}
	}

	c.host.SetOpacity(old, 0)
	c.host.SetOpacity(next, 1)
	c.active = next
	c.hasPending = false
	c.swapping = false

	ref := c.slots[next].ref
	c.logger.Debug("promoted slot", "slot", next, "ref", ref)
	if c.events.Promoted != nil {
		c.events.Promoted(next, ref)
	}
}

// cancelSwap invalidates an in-flight crossfade and restores full opacity to the active slot.
func (c *Controller) cancelSwap() {
	if !c.swapping {
		return
	}
	c.stopTimers()
	c.swapping = false
	c.host.SetOpacity(c.active, 1)
	c.host.SetOpacity(c.active.Other(), 0)
}

func (c *Controller) stopTimers() {
	if c.swapTimer != nil {
		c.swapTimer.Stop()
		c.swapTimer = nil
	}
	if c.fadeTimer != nil {
		c.fadeTimer.Stop()
		c.fadeTimer = nil
	}
}

// ActiveMedia returns the active slot's media element, or nil.
func (c *Controller) ActiveMedia() Media {
	if c.slots[c.active].ref == "" {
		return nil
	}
	return c.host.Media(c.active)
}

// SetScale forwards a lyric scale change to both slots so the next handoff keeps it.
func (c *Controller) SetScale(scale float64) {
	c.host.SetScale(c.active, scale)
	c.host.SetScale(c.active.Other(), scale)
}

// Close cancels outstanding timers.
func (c *Controller) Close() {
	c.stopTimers()
	c.swapping = false
}
