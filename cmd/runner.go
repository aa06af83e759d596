package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/catalog"
	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/playlists"
	"github.com/desertthunder/lyricsphere/internal/repositories"
	"github.com/desertthunder/lyricsphere/internal/services"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/stats"
	"github.com/desertthunder/lyricsphere/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	backend    *services.Backend
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Backend    *services.Backend
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		backend:    opts.Backend,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, libraryCommand, playlistCommand, historyCommand, statsCommand, backupCommand,
		settingsCommand, playCommand, serveCommand, apiCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig runs before every command: it reads --config and applies the log level.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.LoadConfigOrDefault(path)
	if err != nil {
		return ctx, err
	}

	r.config = config
	r.configPath = path
	level := shared.ParseLogLevel(config.Log.Level)
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// remote returns the backend clients, building them from config on first use.
func (r *Runner) remote(ctx context.Context) *services.Backend {
	if r.backend == nil {
		r.backend = services.NewBackend(ctx, r.config.Remote)
	}
	return r.backend
}

// state is the local persisted state shared by most commands.
type state struct {
	db       *sql.DB
	store    *repositories.KVRepository
	settings *repositories.StateRepository
	journal  *repositories.BackupLogRepository
	library  *playlists.Collection
	stats    *stats.Store
}

func (s *state) Close() error {
	return s.db.Close()
}

// openState opens the database, applies pending migrations and loads the collections.
func (r *Runner) openState() (*state, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if r.config.Database.Path != ":memory:" {
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store := repositories.NewKVRepository(db)
	settings := repositories.NewStateRepository(store, shared.WithLogger(r.logger, "component", "store"))
	return &state{
		db:       db,
		store:    store,
		settings: settings,
		journal:  repositories.NewBackupLogRepository(db),
		library:  playlists.New(settings, playlists.Options{Logger: shared.WithLogger(r.logger, "component", "playlists")}),
		stats:    stats.NewStore(settings, stats.StoreOpts{Logger: shared.WithLogger(r.logger, "component", "stats")}),
	}, nil
}

// synchronizer builds the backup synchronizer over st. sched and progress may be nil for one-shot commands.
func (r *Runner) synchronizer(ctx context.Context, st *state, sched clock.Scheduler, progress chan<- tasks.ProgressUpdate) *tasks.Synchronizer {
	return tasks.NewSynchronizer(tasks.Options{
		Scheduler: sched,
		Settings:  st.settings,
		Library:   st.library,
		Stats:     st.stats,
		Remote:    r.remote(ctx).Backup,
		Journal:   st.journal,
		Debounce:  r.config.Backup.Debounce(),
		Period:    r.config.Backup.Period(),
		Progress:  progress,
		Logger:    shared.WithLogger(r.logger, "component", "backup"),
	})
}

// Catalog sources accepted by --source.
const (
	sourceAuto   = "auto"
	sourceRemote = "remote"
	sourceDir    = "dir"
)

// loadLibrary loads the catalog. The auto source tries the remote host first and falls back to the music directory.
func (r *Runner) loadLibrary(ctx context.Context, source string) (models.Library, error) {
	dir := catalog.NewDirSource(r.config.Catalog.MusicDir, shared.WithLogger(r.logger, "component", "catalog"))
	remote := catalog.NewHTTPSource(r.remote(ctx).Catalog)

	switch source {
	case sourceRemote:
		return remote.Load(ctx)
	case sourceDir:
		return dir.Load(ctx)
	case sourceAuto, "":
		lib, err := remote.Load(ctx)
		if err == nil || r.config.Catalog.MusicDir == "" {
			return lib, err
		}
		r.logger.Warn("remote catalog unavailable, scanning music directory", "error", err)
		lib, dirErr := dir.Load(ctx)
		if dirErr != nil {
			return models.Library{}, errors.Join(err, dirErr)
		}
		return lib, nil
	default:
		return models.Library{}, fmt.Errorf("%w: unknown source %q", shared.ErrInvalidArgument, source)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
