package playback

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/queue"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/surface"
)

// DefaultPassiveRef is the surface reference that mirrors the external authority.
const DefaultPassiveRef = "/lyrics-amll"

// minPartialPosition is the least tracked position that makes a track switch a completion event.
const minPartialPosition = 0.5

// RefBuilder turns a track into a surface content reference.
type RefBuilder interface {
	Build(ctx context.Context, t models.Track) (string, error)
}

// Recorder receives listen statistics.
type Recorder interface {
	RecordListenStart(trackID string) error
	RecordCompletion(trackID string, percent float64) error
}

// HistoryPusher records played tracks.
type HistoryPusher interface {
	PushHistory(trackID string) error
}

// Options configures an [Engine].
type Options struct {
	Scheduler clock.Scheduler
	Host      surface.Host
	Refs      RefBuilder
	Stats     Recorder
	History   HistoryPusher
	// Authority enables passive mode when set.
	Authority StateSource
	Resolver  *queue.Resolver

	Crossfade    time.Duration
	Fade         bool
	PollInterval time.Duration
	Threshold    float64
	PassiveRef   string

	Logger *log.Logger
}

// Snapshot is the observable session state.
type Snapshot struct {
	Track    *models.Track
	Mode     models.Mode
	Position float64
	Duration float64
	Playing  bool
	Phase    surface.Phase
	Queue    queue.Snapshot

	Passive        bool
	PassiveTitle   string
	PassiveArtists []string

	// Status is the latest user facing message, such as a blocked autoplay.
	Status string
}

// Engine owns the play session: the queue inputs, the two surface slots and the sync loop.
//
// Every method must run on the scheduler thread. Callers on other goroutines go through [clock.Loop.Call].
type Engine struct {
	sched      clock.Scheduler
	refs       RefBuilder
	stats      Recorder
	history    HistoryPusher
	authority  StateSource
	resolver   *queue.Resolver
	passiveRef string
	logger     *log.Logger

	ctrl *surface.Controller
	sync *SyncLoop
	ctx  context.Context

	lib       models.Library
	selection []string
	current   *models.Track
	mode      models.Mode
	position  float64
	duration  float64
	playing   bool
	recorded  bool

	passive        bool
	passiveTitle   string
	passiveArtists []string
	status         string

	queue      queue.Snapshot
	queueStale bool

	subscribers map[int]func(Snapshot)
	nextSub     int
}

// NewEngine builds an engine. Call [Engine.Start] to begin polling.
func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.Resolver == nil {
		opts.Resolver = queue.NewResolver(nil)
	}
	if opts.PassiveRef == "" {
		opts.PassiveRef = DefaultPassiveRef
	}

	e := &Engine{
		sched:       opts.Scheduler,
		refs:        opts.Refs,
		stats:       opts.Stats,
		history:     opts.History,
		authority:   opts.Authority,
		resolver:    opts.Resolver,
		passiveRef:  opts.PassiveRef,
		logger:      opts.Logger,
		ctx:         context.Background(),
		queueStale:  true,
		subscribers: map[int]func(Snapshot){},
	}

	e.ctrl = surface.NewController(surface.Options{
		Scheduler: opts.Scheduler,
		Host:      opts.Host,
		Crossfade: opts.Crossfade,
		Fade:      opts.Fade,
		Logger:    shared.WithLogger(opts.Logger, "component", "surface"),
		Events: surface.Events{
			Promoted:       func(surface.SlotID, string) { e.notify() },
			Playing:        func(string) { e.notify() },
			PlaybackDenied: e.onPlaybackDenied,
		},
	})

	e.sync = NewSyncLoop(SyncOptions{
		Scheduler: opts.Scheduler,
		Interval:  opts.PollInterval,
		Threshold: opts.Threshold,
		Logger:    shared.WithLogger(opts.Logger, "component", "sync"),
		Events: SyncEvents{
			Ended:    e.onEnded,
			Progress: e.onProgress,
			Playing:  e.onPlaying,
			Identity: e.onIdentity,
			Error:    e.onPollError,
		},
	})
	return e
}

// Controller exposes the surface controller so hosts can report slot readiness.
func (e *Engine) Controller() *surface.Controller {
	return e.ctrl
}

// Start begins polling the local surface.
func (e *Engine) Start(ctx context.Context) {
	e.ctx = ctx
	e.sync.Start(ctx, NewLocalAdapter(settledMedia{e.ctrl}))
}

// settledMedia hides the active element while newer content is loading, so the outgoing element's readings are
// never attributed to the incoming track.
type settledMedia struct {
	ctrl *surface.Controller
}

func (m settledMedia) ActiveMedia() surface.Media {
	if _, _, pending := m.ctrl.Pending(); pending {
		return nil
	}
	return m.ctrl.ActiveMedia()
}

// Close cancels every outstanding timer.
func (e *Engine) Close() {
	e.sync.Stop()
	e.ctrl.Close()
}

// SetLibrary replaces the library. When the current track is absent, the first track becomes current and is loaded
// without playing.
func (e *Engine) SetLibrary(lib models.Library) {
	e.lib = lib
	e.queueStale = true
	if e.current != nil {
		if _, ok := lib.Get(e.current.ID); ok {
			e.notify()
			return
		}
	}
	if lib.Len() == 0 {
		e.notify()
		return
	}
	if err := e.load(lib.At(0)); err != nil {
		e.logger.Warn("failed to load first track", "error", err)
	}
	e.notify()
}

// Library returns the current library.
func (e *Engine) Library() models.Library {
	return e.lib
}

// Play makes t current and starts it. selection restricts the queue to those ids, in order; nil uses the library.
func (e *Engine) Play(t models.Track, selection []string) error {
	if t.ID == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	e.selection = slices.Clone(selection)
	e.queueStale = true
	return e.start(t)
}

// Next advances according to the mode.
func (e *Engine) Next() error {
	t, ok := e.resolver.Next(e.input())
	if !ok {
		return shared.ErrEmptyQueue
	}
	return e.start(t)
}

// Previous steps back according to the mode.
func (e *Engine) Previous() error {
	t, ok := e.resolver.Previous(e.input())
	if !ok {
		return shared.ErrEmptyQueue
	}
	return e.start(t)
}

func (e *Engine) start(t models.Track) error {
	if e.passive {
		e.exitPassive()
	}

	if e.history != nil {
		if err := e.history.PushHistory(t.ID); err != nil {
			e.logger.Warn("failed to record history", "track", t.ID, "error", err)
		}
	}
	if e.stats != nil {
		if err := e.stats.RecordListenStart(t.ID); err != nil {
			e.logger.Warn("failed to record listen", "track", t.ID, "error", err)
		}
	}

	if e.current != nil && e.current.ID == t.ID && e.ctrl.Target() != "" {
		e.recorded = false
		e.position = 0
		e.sync.Reset()
		e.ctrl.RequestAutoplay()
		if a := e.sync.Adapter(); a != nil && e.ctrl.ActiveReady() {
			if err := a.Seek(0); err != nil {
				e.logger.Debug("failed to rewind", "error", err)
			}
		}
		e.assignCurrent()
		e.notify()
		return nil
	}

	e.ctrl.RequestAutoplay()
	err := e.load(t)
	e.notify()
	return err
}

// load switches the current track and assigns its reference.
func (e *Engine) load(t models.Track) error {
	e.changeTrack(t)
	return e.assignCurrent()
}

func (e *Engine) assignCurrent() error {
	if e.current == nil {
		return nil
	}
	ref, err := e.buildRef(*e.current)
	if err != nil {
		e.status = fmt.Sprintf("Could not load %s: %v", e.current.DisplayTitle(), err)
		e.logger.Warn("failed to build content reference", "track", e.current.ID, "error", err)
		return err
	}
	e.ctrl.Assign(ref)
	return nil
}

func (e *Engine) buildRef(t models.Track) (string, error) {
	if e.refs == nil {
		return t.ID, nil
	}
	return e.refs.Build(e.ctx, t)
}

// changeTrack records partial completion of the outgoing track and resets the observed position.
func (e *Engine) changeTrack(t models.Track) {
	if prev := e.current; prev != nil && prev.ID != t.ID && !e.recorded &&
		e.duration > 0 && e.position >= minPartialPosition && e.stats != nil {
		if err := e.stats.RecordCompletion(prev.ID, e.position/e.duration*100); err != nil {
			e.logger.Warn("failed to record partial completion", "track", prev.ID, "error", err)
		}
	}

	e.current = &t
	e.queueStale = true
	e.position, e.duration = 0, 0
	e.playing = false
	e.recorded = false
	e.status = ""
	e.sync.Reset()
}

func (e *Engine) input() queue.Input {
	in := queue.Input{Library: e.lib, Selection: e.selection, Mode: e.mode}
	if e.current != nil {
		in.CurrentID = e.current.ID
	}
	return in
}

// SetMode sets the playback mode.
func (e *Engine) SetMode(m models.Mode) {
	e.mode = m
	e.queueStale = true
	e.notify()
}

// ToggleMode switches between list and target.
func (e *Engine) ToggleMode(target models.Mode) {
	e.SetMode(e.mode.Toggle(target))
}

// CycleMode steps list, shuffle, single.
func (e *Engine) CycleMode() {
	e.SetMode(e.mode.Cycle())
}

// TogglePlay pauses a playing track or resumes a paused one.
func (e *Engine) TogglePlay() error {
	a := e.sync.Adapter()
	if a == nil {
		return shared.ErrNoMedia
	}
	if e.playing {
		return a.Pause()
	}
	if err := a.Play(); err != nil {
		if errors.Is(err, shared.ErrPlaybackDenied) {
			e.status = "Playback was blocked"
			e.notify()
		}
		return err
	}
	return nil
}

// Seek moves the playhead.
func (e *Engine) Seek(t float64) error {
	a := e.sync.Adapter()
	if a == nil {
		return shared.ErrNoMedia
	}
	return a.Seek(max(t, 0))
}

// SetScale forwards the lyric scale to both slots.
func (e *Engine) SetScale(scale float64) {
	e.ctrl.SetScale(scale)
}

// SetPassive switches between mirroring the external authority and local playback.
func (e *Engine) SetPassive(on bool) error {
	if on == e.passive {
		return nil
	}
	if !on {
		e.exitPassive()
		e.notify()
		return e.assignCurrent()
	}
	if e.authority == nil {
		return fmt.Errorf("%w: no playback authority configured", shared.ErrNotSupported)
	}

	e.passive = true
	e.passiveTitle, e.passiveArtists = "", nil
	e.position, e.duration, e.playing = 0, 0, false
	if a := e.sync.Adapter(); a != nil {
		if err := a.Pause(); err != nil {
			e.logger.Debug("failed to pause local media", "error", err)
		}
	}
	e.ctrl.Assign(e.passiveRef)
	e.sync.Start(e.ctx, NewPassiveAdapter(e.authority))
	e.notify()
	return nil
}

func (e *Engine) exitPassive() {
	e.passive = false
	e.passiveTitle, e.passiveArtists = "", nil
	e.position, e.duration, e.playing = 0, 0, false
	e.sync.Start(e.ctx, NewLocalAdapter(settledMedia{e.ctrl}))
}

// Queue returns the derived queue. The shuffled upcoming order is recomputed only after the library, selection,
// current track or mode changed.
func (e *Engine) Queue() queue.Snapshot {
	if e.queueStale {
		e.queue = e.resolver.Resolve(e.input())
		e.queueStale = false
	}
	return e.queue
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Mode:           e.mode,
		Position:       e.position,
		Duration:       e.duration,
		Playing:        e.playing,
		Phase:          e.ctrl.Phase(),
		Queue:          e.Queue(),
		Passive:        e.passive,
		PassiveTitle:   e.passiveTitle,
		PassiveArtists: slices.Clone(e.passiveArtists),
		Status:         e.status,
	}
	if e.current != nil {
		t := *e.current
		s.Track = &t
	}
	return s
}

// Subscribe registers fn for snapshots after every change and returns a function that removes it.
func (e *Engine) Subscribe(fn func(Snapshot)) func() {
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	return func() { delete(e.subscribers, id) }
}

func (e *Engine) notify() {
	if len(e.subscribers) == 0 {
		return
	}
	s := e.Snapshot()
	for _, fn := range e.subscribers {
		fn(s)
	}
}

func (e *Engine) onEnded() bool {
	if e.current == nil {
		return false
	}
	if e.mode == models.ModeSingle {
		a := e.sync.Adapter()
		if err := a.Seek(0); err != nil {
			e.logger.Warn("failed to rewind", "error", err)
		}
		if err := a.Play(); err != nil {
			e.logger.Warn("failed to loop track", "error", err)
		}
		return false
	}

	if e.stats != nil {
		if err := e.stats.RecordCompletion(e.current.ID, 100); err != nil {
			e.logger.Warn("failed to record completion", "track", e.current.ID, "error", err)
		}
	}
	e.recorded = true

	if err := e.Next(); err != nil {
		e.logger.Debug("no track to advance to", "error", err)
		return false
	}
	return true
}

func (e *Engine) onProgress(position, duration float64) {
	e.position, e.duration = position, duration
	e.notify()
}

func (e *Engine) onPlaying(playing bool) {
	e.playing = playing
	e.notify()
}

func (e *Engine) onIdentity(st MediaState) {
	if !e.passive {
		return
	}
	e.passiveTitle = st.Title
	e.passiveArtists = slices.Clone(st.Artists)
	e.notify()
}

func (e *Engine) onPollError(err error) {
	if e.passive {
		e.status = fmt.Sprintf("Playback authority unavailable: %v", err)
		e.notify()
	}
}

func (e *Engine) onPlaybackDenied(_ string, err error) {
	e.playing = false
	e.status = "Playback was blocked, press play to start"
	e.logger.Info("autoplay denied", "error", err)
	e.notify()
}
