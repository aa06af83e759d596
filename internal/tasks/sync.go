package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/merge"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/repositories"
	"github.com/desertthunder/lyricsphere/internal/services"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

const (
	DefaultDebounce = 2 * time.Second
	DefaultPeriod   = 300 * time.Second
)

// Reason names what triggered an upload.
type Reason string

const (
	ReasonManual   Reason = "manual"
	ReasonChange   Reason = "change"
	ReasonPeriodic Reason = "periodic"
)

// Automatic reports whether an unchanged payload may be skipped.
func (r Reason) Automatic() bool { return r != ReasonManual }

// Remote is the snapshot service.
type Remote interface {
	Submit(ctx context.Context, payload models.BackupPayload) (string, error)
	ResolveAnchor(ctx context.Context, account, password string) (string, error)
	FetchAnchor(ctx context.Context, anchorID string) ([]byte, error)
	Download(ctx context.Context, kind services.DownloadKind, id string) ([]byte, error)
	DownloadURL(kind services.DownloadKind, id string) (string, error)
}

// LibraryState is the in-memory playlists and history.
type LibraryState interface {
	State() models.LibraryState
	Replace(models.LibraryState) error
}

// StatsState is the listen stats store.
type StatsState interface {
	ReadAll() models.StatsMap
	Replace(models.StatsMap) error
}

// Journal records upload attempts.
type Journal interface {
	Create(entry *models.BackupLogEntry) error
}

// Options configures a [Synchronizer].
type Options struct {
	// Scheduler runs the debounce and periodic timers. Only [Synchronizer.Start] requires it.
	Scheduler clock.Scheduler
	Settings  *repositories.StateRepository
	Library   LibraryState
	Stats     StatsState
	Remote    Remote
	Journal   Journal
	Debounce  time.Duration
	Period    time.Duration
	Progress  chan<- ProgressUpdate
	// OnStatus receives every user-visible status message. It may be called from any goroutine.
	OnStatus func(string)
	Now      func() time.Time
	Logger   *log.Logger
}

// Result describes one upload attempt.
type Result struct {
	Reason    Reason
	Signature string
	Skipped   bool
	Message   string
}

// Synchronizer owns backup identity and the upload/import policy.
type Synchronizer struct {
	sched    clock.Scheduler
	settings *repositories.StateRepository
	library  LibraryState
	stats    StatsState
	remote   Remote
	journal  Journal
	debounce time.Duration
	period   time.Duration
	progress chan<- ProgressUpdate
	onStatus func(string)
	now      func() time.Time
	logger   *log.Logger

	mu            sync.Mutex
	lastSignature string
	status        string

	// Touched only on the scheduler thread.
	ctx           context.Context
	cancel        context.CancelFunc
	unsubscribe   func()
	debounceTimer clock.Timer
	periodTimer   clock.Timer
	busy          bool
	again         bool
}

// NewSynchronizer creates an idle synchronizer.
func NewSynchronizer(opts Options) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Now == nil {
		if opts.Scheduler != nil {
			opts.Now = opts.Scheduler.Now
		} else {
			opts.Now = time.Now
		}
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	return &Synchronizer{
		sched:    opts.Scheduler,
		settings: opts.Settings,
		library:  opts.Library,
		stats:    opts.Stats,
		remote:   opts.Remote,
		journal:  opts.Journal,
		debounce: opts.Debounce,
		period:   opts.Period,
		progress: opts.Progress,
		onStatus: opts.OnStatus,
		now:      opts.Now,
		logger:   opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (s *Synchronizer) sendProgress(update ProgressUpdate) {
	if s.progress == nil {
		return
	}
	select {
	case s.progress <- update:
	default:
	}
}

// report publishes update as the current status.
func (s *Synchronizer) report(update ProgressUpdate) {
	s.mu.Lock()
	s.status = update.Message
	s.mu.Unlock()
	if s.onStatus != nil {
		s.onStatus(update.Message)
	}
	s.sendProgress(update)
}

func (s *Synchronizer) fail(action string, err error) {
	s.logger.Warn(strings.ToLower(action)+" failed", "error", err)
	s.report(failedUpdate(action, err))
}

// Status returns the latest user-visible message.
func (s *Synchronizer) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastSignature returns the signature of the last successful upload in this session.
func (s *Synchronizer) LastSignature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSignature
}

// ClientID returns the durable client id.
func (s *Synchronizer) ClientID() (string, error) {
	return s.settings.ClientID()
}

// AnchorID returns the persisted anchor id, if any.
func (s *Synchronizer) AnchorID() string {
	return s.settings.AnchorSettings().AnchorID
}

// AutoBackupEnabled reports the persisted auto backup switch.
func (s *Synchronizer) AutoBackupEnabled() bool {
	return s.settings.BackupSettings().AutoBackupEnabled
}

// SetAutoBackup persists the auto backup switch.
func (s *Synchronizer) SetAutoBackup(enabled bool) error {
	settings := s.settings.BackupSettings()
	settings.AutoBackupEnabled = enabled
	return s.settings.SaveBackupSettings(settings)
}

// LastBackupAt returns the time of the last successful upload, or the zero time.
func (s *Synchronizer) LastBackupAt() time.Time {
	ms := s.settings.BackupSettings().LastBackupAt
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Data snapshots the synced local state.
func (s *Synchronizer) Data() models.BackupData {
	state := s.library.State()
	return models.BackupData{
		Playlists:   state.Playlists,
		History:     state.History,
		ListenStats: s.stats.ReadAll(),
	}
}

// Payload builds the upload envelope from current state.
func (s *Synchronizer) Payload() (models.BackupPayload, error) {
	clientID, err := s.settings.ClientID()
	if err != nil {
		return models.BackupPayload{}, fmt.Errorf("failed to resolve client id: %w", err)
	}
	return models.BackupPayload{
		ClientID:  clientID,
		AnchorID:  s.AnchorID(),
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Data:      s.Data(),
	}, nil
}

// Signature fingerprints backup content. Map keys are encoded in sorted order, so equal content signs equally.
func Signature(data models.BackupData) (string, error) {
	if data.Playlists == nil {
		data.Playlists = []models.Playlist{}
	}
	if data.History == nil {
		data.History = []string{}
	}
	if data.ListenStats == nil {
		data.ListenStats = models.StatsMap{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode backup data: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// Upload submits the current state.
//
// Automatic reasons skip the request when the content signature equals the last successful one.
// The signature and last backup time only change on success.
func (s *Synchronizer) Upload(ctx context.Context, reason Reason) (Result, error) {
	result := Result{Reason: reason}

	payload, err := s.Payload()
	if err != nil {
		s.fail("Backup", err)
		return result, err
	}
	signature, err := Signature(payload.Data)
	if err != nil {
		s.fail("Backup", err)
		return result, err
	}
	result.Signature = signature

	if reason.Automatic() && signature == s.LastSignature() {
		s.logger.Debug("skipping unchanged backup", "reason", reason)
		s.sendProgress(skippedUpdate(signature))
		result.Skipped = true
		return result, nil
	}

	s.report(uploadingUpdate(reason))
	message, err := s.remote.Submit(ctx, payload)
	s.record(reason, signature, message, err)
	if err != nil {
		s.fail("Backup", err)
		return result, err
	}

	s.mu.Lock()
	s.lastSignature = signature
	s.mu.Unlock()

	settings := s.settings.BackupSettings()
	settings.LastBackupAt = s.now().UnixMilli()
	if err := s.settings.SaveBackupSettings(settings); err != nil {
		s.logger.Warn("failed to save backup time", "error", err)
	}

	s.logger.Info("backup uploaded", "reason", reason, "client", payload.ClientID, "anchor", payload.AnchorID)
	result.Message = message
	s.report(uploadedUpdate(message))
	return result, nil
}

func (s *Synchronizer) record(reason Reason, signature, message string, err error) {
	if s.journal == nil {
		return
	}
	status := models.BackupSucceeded
	if err != nil {
		status, message = models.BackupFailed, err.Error()
	}
	if jerr := s.journal.Create(models.NewBackupLogEntry(string(reason), signature, status, message)); jerr != nil {
		s.logger.Warn("failed to journal backup", "error", jerr)
	}
}

// Import merges a remote backup document into local state and returns the merged content.
func (s *Synchronizer) Import(raw []byte) (models.BackupData, error) {
	remote, err := models.DecodeBackupData(raw)
	if err != nil {
		err = fmt.Errorf("%w: %v", shared.ErrInvalidBackup, err)
		s.fail("Import", err)
		return models.BackupData{}, err
	}
	return s.Merge(remote)
}

// Merge folds remote into local state, local first, and writes the result back.
//
// Remote stats entries identical to the local ones are dropped before merging so that re-importing an unchanged
// backup leaves the stats untouched.
func (s *Synchronizer) Merge(remote models.BackupData) (models.BackupData, error) {
	local := s.Data()
	remote.ListenStats = merge.DropIdentical(local.ListenStats, remote.ListenStats)
	merged := merge.Data(local, remote)

	// Stats go first; a failed library write then restores them so a failed merge leaves local state as it was.
	statsWritten := false
	if len(merged.ListenStats) > 0 {
		if err := s.stats.Replace(merged.ListenStats); err != nil {
			s.fail("Import", err)
			return merged, err
		}
		statsWritten = true
	}
	if len(merged.Playlists) > 0 || len(merged.History) > 0 {
		state := models.LibraryState{Playlists: merged.Playlists, History: merged.History}
		if err := s.library.Replace(state); err != nil {
			if statsWritten {
				if rerr := s.stats.Replace(local.ListenStats); rerr != nil {
					s.logger.Warn("failed to restore listen stats", "error", rerr)
				}
			}
			s.fail("Import", err)
			return merged, err
		}
	}

	s.report(mergedUpdate(merged))
	return merged, nil
}

// Restore fetches the anchored backup, or this client's backup when no anchor is set, and merges it.
func (s *Synchronizer) Restore(ctx context.Context) (models.BackupData, error) {
	var (
		raw []byte
		err error
	)
	if anchorID := s.AnchorID(); anchorID != "" {
		s.report(fetchingRemoteUpdate("anchor"))
		raw, err = s.remote.FetchAnchor(ctx, anchorID)
	} else {
		var clientID string
		if clientID, err = s.settings.ClientID(); err == nil {
			s.report(fetchingRemoteUpdate("client"))
			raw, err = s.remote.Download(ctx, services.DownloadClient, clientID)
		}
	}
	if err != nil {
		s.fail("Restore", err)
		return models.BackupData{}, err
	}
	return s.Import(raw)
}

// Anchor binds this client to an account: it resolves and persists the anchor id, merges any backup already stored
// under it and uploads the result.
func (s *Synchronizer) Anchor(ctx context.Context, account, password string) (string, error) {
	account = strings.TrimSpace(account)
	s.report(resolvingAnchorUpdate(account))

	anchorID, err := s.remote.ResolveAnchor(ctx, account, password)
	if err != nil {
		s.fail("Anchor", err)
		return "", err
	}
	if err := s.settings.SaveAnchorSettings(models.AnchorSettings{Account: account, AnchorID: anchorID}); err != nil {
		return "", fmt.Errorf("failed to save anchor settings: %w", err)
	}

	if raw, err := s.remote.FetchAnchor(ctx, anchorID); err != nil {
		s.logger.Info("no anchor backup to merge", "anchor", anchorID, "error", err)
	} else if _, err := s.Import(raw); err != nil {
		s.logger.Warn("failed to merge anchor backup", "anchor", anchorID, "error", err)
	}

	if _, err := s.Upload(ctx, ReasonManual); err != nil {
		return anchorID, err
	}
	return anchorID, nil
}

// DownloadURL returns the link to the anchored backup, or to this client's backup.
func (s *Synchronizer) DownloadURL() (string, error) {
	if anchorID := s.AnchorID(); anchorID != "" {
		return s.remote.DownloadURL(services.DownloadAnchor, anchorID)
	}
	clientID, err := s.settings.ClientID()
	if err != nil {
		return "", err
	}
	return s.remote.DownloadURL(services.DownloadClient, clientID)
}

// Start subscribes to synced key changes and arms the periodic re-check. It must run on the scheduler thread.
func (s *Synchronizer) Start(ctx context.Context) error {
	if s.sched == nil {
		return fmt.Errorf("%w: synchronizer has no scheduler", shared.ErrInvalidConfig)
	}
	if s.cancel != nil {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.unsubscribe = s.settings.Store().Subscribe(func(key string) {
		if slices.Contains(repositories.SyncedKeys, key) {
			s.sched.Post(s.scheduleDebounce)
		}
	})
	s.periodTimer = clock.Every(s.sched, s.period, func() { s.trigger(ReasonPeriodic) })
	return nil
}

// scheduleDebounce restarts the change debounce.
func (s *Synchronizer) scheduleDebounce() {
	if s.cancel == nil || s.ctx.Err() != nil {
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = s.sched.AfterFunc(s.debounce, func() {
		s.debounceTimer = nil
		s.trigger(ReasonChange)
	})
}

// trigger starts an automatic upload off the scheduler thread. One upload runs at a time; a trigger that arrives
// meanwhile re-arms the debounce once the running upload finishes.
func (s *Synchronizer) trigger(reason Reason) {
	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}
	if !s.AutoBackupEnabled() {
		return
	}
	if s.busy {
		s.again = true
		return
	}
	s.busy = true

	ctx := s.ctx
	go func() {
		if _, err := s.Upload(ctx, reason); err != nil {
			s.logger.Debug("automatic backup failed", "reason", reason, "error", err)
		}
		s.sched.Post(s.finishUpload)
	}()
}

func (s *Synchronizer) finishUpload() {
	s.busy = false
	if s.again {
		s.again = false
		s.scheduleDebounce()
	}
}

// Close unsubscribes, stops the timers and cancels a running automatic upload. It must run on the scheduler thread.
func (s *Synchronizer) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	if s.periodTimer != nil {
		s.periodTimer.Stop()
		s.periodTimer = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
}
