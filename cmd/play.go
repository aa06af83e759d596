package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/formatter"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/playback"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/surface"
	"github.com/urfave/cli/v3"
)

// defaultHeadlessLength is the track length assumed by the headless surface, which has no audio to measure.
const defaultHeadlessLength = 240.0

// player is an engine running on its own loop goroutine.
type player struct {
	loop    *clock.Loop
	engine  *playback.Engine
	session *playback.Session
	done    chan error
}

// startPlayer builds the engine over st and starts its loop. Close must be called to stop it.
func (r *Runner) startPlayer(ctx context.Context, st *state, length float64, logger *log.Logger) (*player, error) {
	cfg := r.config.Playback
	backend := r.remote(ctx)
	ui := st.settings.UISettings()

	loop := clock.NewLoop(0)
	host := surface.NewClockHost(loop, length)
	refs := surface.NewFrameBuilder(surface.FrameOptions{
		FramePath:     cfg.FramePath,
		Style:         cfg.LyricsStyle,
		DisableCovers: cfg.DisableCovers || ui.DisableCovers,
	}, backend.Lyrics, backend.API.BaseURL())

	engine := playback.NewEngine(playback.Options{
		Scheduler:    loop,
		Host:         host,
		Refs:         refs,
		Stats:        st.stats,
		History:      st.library,
		Authority:    backend.Authority,
		Crossfade:    cfg.Crossfade(),
		Fade:         cfg.Fade,
		PollInterval: cfg.PollInterval(),
		Threshold:    cfg.PositionThreshold,
		PassiveRef:   cfg.PassiveRef,
		Logger:       shared.WithLogger(logger, "component", "playback"),
	})
	host.OnReady(engine.Controller().SlotReady)

	p := &player{loop: loop, engine: engine, session: playback.NewSession(loop, engine), done: make(chan error, 1)}
	// The loop outlives ctx so Close can still stop the engine on it.
	go func() { p.done <- loop.Run(context.WithoutCancel(ctx)) }()

	err := loop.Call(ctx, func() {
		engine.Start(ctx)
		if ui.LyricScale > 0 {
			engine.SetScale(ui.LyricScale)
		}
	})
	if err != nil {
		loop.Close()
		<-p.done
		return nil, fmt.Errorf("failed to start playback: %w", err)
	}
	return p, nil
}

// Close stops every engine timer and then the loop.
func (p *player) Close() {
	_ = p.loop.Call(context.Background(), p.engine.Close)
	p.loop.Close()
	<-p.done
}

func interruptible(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// PlayWatch follows the external playback authority and prints each new track.
func (r *Runner) PlayWatch(ctx context.Context, cmd *cli.Command) error {
	ctx, cancel := interruptible(ctx)
	defer cancel()

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := r.startPlayer(ctx, st, 0, r.logger)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.session.SetPassive(ctx, true); err != nil {
		return err
	}

	r.writePlain("Following the external player, Ctrl+C to stop\n")
	printer := &snapshotPrinter{r: r}
	unsubscribe, err := p.session.Subscribe(ctx, printer.passive)
	if err != nil {
		return err
	}
	defer unsubscribe()

	<-ctx.Done()
	return nil
}

// PlayTrack plays through the queue from a track on the headless surface, printing each track and mode change.
func (r *Runner) PlayTrack(ctx context.Context, cmd *cli.Command) error {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	mode, err := models.ParseMode(cmd.String("mode"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	ctx, cancel := interruptible(ctx)
	defer cancel()

	lib, err := r.loadLibrary(ctx, cmd.String("source"))
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	st, err := r.openState()
	if err != nil {
		return err
	}
	defer st.Close()

	var selection []string
	if playlistID := cmd.String("playlist"); playlistID != "" {
		pl, err := st.library.Playlist(playlistID)
		if err != nil {
			return err
		}
		selection = pl.Tracks
	}

	p, err := r.startPlayer(ctx, st, cmd.Float("length"), r.logger)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.session.SetLibrary(ctx, lib); err != nil {
		return err
	}
	if err := p.session.SetMode(ctx, mode); err != nil {
		return err
	}

	printer := &snapshotPrinter{r: r}
	unsubscribe, err := p.session.Subscribe(ctx, printer.local)
	if err != nil {
		return err
	}
	defer unsubscribe()

	if err := p.session.Play(ctx, id, selection); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// snapshotPrinter prints a line whenever the playing track or a status message changes. It runs on the loop.
type snapshotPrinter struct {
	r      *Runner
	last   string
	status string
}

func (p *snapshotPrinter) local(s playback.Snapshot) {
	if s.Track != nil && s.Track.ID != p.last {
		p.last = s.Track.ID
		p.r.writePlain("▶ %s - %s [%s]\n", s.Track.DisplayTitle(), s.Track.ArtistLine(), s.Mode)
		if next := s.Queue.NextUp; next != nil {
			p.r.writePlain("  next: %s\n", next.DisplayTitle())
		}
	}
	p.printStatus(s.Status)
}

func (p *snapshotPrinter) passive(s playback.Snapshot) {
	identity := s.PassiveTitle + "\x00" + strings.Join(s.PassiveArtists, ",")
	if s.PassiveTitle != "" && identity != p.last {
		p.last = identity
		artists := strings.Join(s.PassiveArtists, ", ")
		p.r.writePlain("▶ %s - %s (%s)\n", s.PassiveTitle, artists, formatter.FormatDuration(s.Duration))
	}
	p.printStatus(s.Status)
}

func (p *snapshotPrinter) printStatus(status string) {
	if status != "" && status != p.status {
		p.status = status
		p.r.writePlain("  %s\n", status)
	}
}
