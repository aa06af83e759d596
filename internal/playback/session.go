package playback

import (
	"context"
	"fmt"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// Caller runs a function on the scheduler thread and waits for it. [clock.Loop] implements it.
type Caller interface {
	Call(ctx context.Context, f func()) error
}

// Session exposes an [Engine] to goroutines other than the scheduler's, such as a terminal UI.
type Session struct {
	loop   Caller
	engine *Engine
}

func NewSession(loop Caller, engine *Engine) *Session {
	return &Session{loop: loop, engine: engine}
}

func (s *Session) call(ctx context.Context, f func() error) error {
	var err error
	if cerr := s.loop.Call(ctx, func() { err = f() }); cerr != nil {
		return fmt.Errorf("failed to reach playback loop: %w", cerr)
	}
	return err
}

func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.call(ctx, func() error {
		snap = s.engine.Snapshot()
		return nil
	})
	return snap, err
}

// Play starts the track with the given id. selection restricts the queue as in [Engine.Play].
func (s *Session) Play(ctx context.Context, id string, selection []string) error {
	return s.call(ctx, func() error {
		t, ok := s.engine.Library().Get(id)
		if !ok {
			return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, id)
		}
		return s.engine.Play(t, selection)
	})
}

func (s *Session) SetLibrary(ctx context.Context, lib models.Library) error {
	return s.call(ctx, func() error {
		s.engine.SetLibrary(lib)
		return nil
	})
}

func (s *Session) Next(ctx context.Context) error {
	return s.call(ctx, s.engine.Next)
}

func (s *Session) Previous(ctx context.Context) error {
	return s.call(ctx, s.engine.Previous)
}

func (s *Session) TogglePlay(ctx context.Context) error {
	return s.call(ctx, s.engine.TogglePlay)
}

func (s *Session) CycleMode(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.engine.CycleMode()
		return nil
	})
}

func (s *Session) SetMode(ctx context.Context, m models.Mode) error {
	return s.call(ctx, func() error {
		s.engine.SetMode(m)
		return nil
	})
}

func (s *Session) SetScale(ctx context.Context, scale float64) error {
	return s.call(ctx, func() error {
		s.engine.SetScale(scale)
		return nil
	})
}

func (s *Session) Seek(ctx context.Context, t float64) error {
	return s.call(ctx, func() error { return s.engine.Seek(t) })
}

func (s *Session) SetPassive(ctx context.Context, on bool) error {
	return s.call(ctx, func() error { return s.engine.SetPassive(on) })
}

// Subscribe registers fn and immediately delivers the current snapshot. fn runs on the scheduler thread.
func (s *Session) Subscribe(ctx context.Context, fn func(Snapshot)) (func(), error) {
	var unsubscribe func()
	err := s.call(ctx, func() error {
		unsubscribe = s.engine.Subscribe(fn)
		fn(s.engine.Snapshot())
		return nil
	})
	if err != nil {
		return func() {}, err
	}
	return func() {
		_ = s.loop.Call(context.Background(), unsubscribe)
	}, nil
}
