package playback

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

const (
	DefaultPollInterval = time.Second
	DefaultThreshold    = 0.2
)

// SyncEvents receive reconciled state on the scheduler thread.
type SyncEvents struct {
	// Ended fires once per false to true edge of the ended flag. Returning true means the track changed and the rest
	// of the reading is discarded.
	Ended func() bool
	// Progress fires when position or duration moved by at least the threshold.
	Progress func(position, duration float64)
	// Playing fires on every playing flag change.
	Playing func(playing bool)
	// Identity fires when a source that reports song identity switches songs.
	Identity func(state MediaState)
	// Error fires when a poll fails.
	Error func(err error)
}

// SyncOptions configures a [SyncLoop].
type SyncOptions struct {
	Scheduler clock.Scheduler
	Interval  time.Duration
	Threshold float64
	Events    SyncEvents
	Logger    *log.Logger
}

// SyncLoop periodically reconciles observable session state with an [Adapter].
//
// Within one reading the ended edge is handled first, then position and duration, then the playing flag.
type SyncLoop struct {
	sched     clock.Scheduler
	interval  time.Duration
	threshold float64
	events    SyncEvents
	logger    *log.Logger

	ctx     context.Context
	adapter Adapter
	ticker  clock.Timer
	gen     int
	busy    bool

	primed   bool
	position float64
	duration float64
	playing  bool
	ended    bool
	identity string
}

func NewSyncLoop(opts SyncOptions) *SyncLoop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &SyncLoop{
		sched:     opts.Scheduler,
		interval:  opts.Interval,
		threshold: opts.Threshold,
		events:    opts.Events,
		logger:    opts.Logger,
	}
}

// Start polls a on every interval, replacing any previous adapter.
func (l *SyncLoop) Start(ctx context.Context, a Adapter) {
	l.Stop()
	l.ctx = ctx
	l.adapter = a
	l.Reset()
	l.ended = false
	l.identity = ""
	l.ticker = clock.Every(l.sched, l.interval, l.Tick)
}

// Stop cancels polling. A remote poll already in flight is discarded when it returns.
func (l *SyncLoop) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
		l.ticker = nil
	}
	l.adapter = nil
	l.gen++
	l.busy = false
}

// Running reports whether the loop has an adapter.
func (l *SyncLoop) Running() bool {
	return l.adapter != nil
}

// Adapter returns the current adapter, or nil.
func (l *SyncLoop) Adapter() Adapter {
	return l.adapter
}

// Reset forgets the last propagated values so the next reading is propagated in full. Called on track change.
// The ended latch survives so a finished element that is still active cannot trigger a second advance.
func (l *SyncLoop) Reset() {
	l.primed = false
	l.position, l.duration = 0, 0
	l.playing = false
}

// Tick polls once. Remote adapters are polled off the scheduler thread with at most one poll in flight.
func (l *SyncLoop) Tick() {
	a := l.adapter
	if a == nil {
		return
	}
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if !a.Remote() {
		st, ok, err := a.Poll(ctx)
		l.apply(st, ok, err)
		return
	}

	if l.busy {
		return
	}
	l.busy = true
	gen := l.gen
	go func() {
		st, ok, err := a.Poll(ctx)
		l.sched.Post(func() {
			if gen != l.gen {
				return
			}
			l.busy = false
			l.apply(st, ok, err)
		})
	}()
}

func (l *SyncLoop) apply(st MediaState, ok bool, err error) {
	if err != nil {
		l.logger.Debug("poll failed", "error", err)
		if l.events.Error != nil {
			l.events.Error(err)
		}
		return
	}
	if !ok {
		return
	}

	if id := st.Identity(); id != "" && id != l.identity {
		l.identity = id
		l.Reset()
		if l.events.Identity != nil {
			l.events.Identity(st)
		}
	}

	if st.Ended {
		if !l.ended {
			l.ended = true
			if l.events.Ended != nil && l.events.Ended() {
				return
			}
		}
	} else {
		l.ended = false
	}

	if !l.primed || math.Abs(st.Position-l.position) >= l.threshold || math.Abs(st.Duration-l.duration) >= l.threshold {
		l.position, l.duration = st.Position, st.Duration
		if l.events.Progress != nil {
			l.events.Progress(st.Position, st.Duration)
		}
	}

	if !l.primed || st.Playing != l.playing {
		l.playing = st.Playing
		if l.events.Playing != nil {
			l.events.Playing(st.Playing)
		}
	}
	l.primed = true
}
