package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/playlists"
	"github.com/desertthunder/lyricsphere/internal/repositories"
	"github.com/desertthunder/lyricsphere/internal/services"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/stats"
)

type backupServer struct {
	mu       sync.Mutex
	payloads []models.BackupPayload
	failing  bool
	anchor   string
	client   string
}

func (b *backupServer) submits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.payloads)
}

func (b *backupServer) last() models.BackupPayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.payloads[len(b.payloads)-1]
}

func (b *backupServer) setFailing(v bool) {
	b.mu.Lock()
	b.failing = v
	b.mu.Unlock()
}

func (b *backupServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /backup_client_state", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.failing {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"status":"error","message":"disk full"}`))
			return
		}
		var p models.BackupPayload
		json.NewDecoder(r.Body).Decode(&p)
		b.payloads = append(b.payloads, p)
		w.Write([]byte(`{"status":"success","message":"stored"}`))
	})
	mux.HandleFunc("POST /anchor_backup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":"error","message":"wrong password"}`))
			return
		}
		w.Write([]byte(`{"status":"success","anchorId":"anchor-` + body["account"] + `"}`))
	})
	mux.HandleFunc("GET /get_anchor_backup", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.anchor == "" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status":"error","message":"no backup"}`))
			return
		}
		w.Write([]byte(b.anchor))
	})
	mux.HandleFunc("GET /download_client_backup", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		w.Write([]byte(b.client))
	})
	return mux
}

type syncRig struct {
	s       *Synchronizer
	fake    *clock.Fake
	server  *backupServer
	repo    *repositories.StateRepository
	coll    *playlists.Collection
	stats   *stats.Store
	journal *repositories.BackupLogRepository
}

func newSyncRig(t *testing.T) *syncRig {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	server := &backupServer{}
	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)

	fake := clock.NewFake(time.Unix(1_700_000_000, 0))
	repo := repositories.NewStateRepository(repositories.NewMemoryStore(), nil)
	r := &syncRig{
		fake:    fake,
		server:  server,
		repo:    repo,
		coll:    playlists.New(repo, playlists.Options{}),
		stats:   stats.NewStore(repo, stats.StoreOpts{Now: fake.Now}),
		journal: repositories.NewBackupLogRepository(db),
	}
	r.s = NewSynchronizer(Options{
		Scheduler: fake,
		Settings:  repo,
		Library:   r.coll,
		Stats:     r.stats,
		Remote:    services.NewBackupService(services.NewAPIService(ts.URL, ts.Client())),
		Journal:   r.journal,
	})
	t.Cleanup(r.s.Close)
	return r
}

// settle waits for a background upload to post its completion and runs it.
func (r *syncRig) settle(t *testing.T) {
	t.Helper()
	if !r.fake.WaitPosted(2 * time.Second) {
		t.Fatal("background upload did not finish")
	}
	r.fake.Flush()
}

func TestSignature(t *testing.T) {
	t.Run("nil and empty sign equally", func(t *testing.T) {
		a, err := Signature(models.BackupData{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, _ := Signature(models.BackupData{Playlists: []models.Playlist{}, History: []string{}, ListenStats: models.StatsMap{}})
		if a != b {
			t.Errorf("expected equal signatures, got %s and %s", a, b)
		}
	})

	t.Run("any field change alters it", func(t *testing.T) {
		base := models.BackupData{History: []string{"a"}, ListenStats: models.StatsMap{"a": {Completions: []int{50}}}}
		sig, _ := Signature(base)

		changed := []models.BackupData{
			{History: []string{"b"}, ListenStats: base.ListenStats},
			{History: base.History, ListenStats: models.StatsMap{"a": {Completions: []int{51}}}},
			{History: base.History, ListenStats: base.ListenStats, Playlists: []models.Playlist{{ID: "p", Name: "p"}}},
		}
		for i, data := range changed {
			if other, _ := Signature(data); other == sig {
				t.Errorf("case %d: expected a different signature", i)
			}
		}
	})
}

func TestUpload(t *testing.T) {
	ctx := context.Background()

	t.Run("Manual Always Uploads", func(t *testing.T) {
		r := newSyncRig(t)
		r.coll.PushHistory("a.json")

		for range 2 {
			res, err := r.s.Upload(ctx, ReasonManual)
			if err != nil {
				t.Fatalf("upload failed: %v", err)
			}
			if res.Skipped || res.Message != "stored" {
				t.Errorf("unexpected result: %+v", res)
			}
		}
		if n := r.server.submits(); n != 2 {
			t.Fatalf("expected 2 submits, got %d", n)
		}

		p := r.server.last()
		clientID, _ := r.repo.ClientID()
		if p.ClientID != clientID || p.ClientID == "" {
			t.Errorf("expected client id %q, got %q", clientID, p.ClientID)
		}
		if len(p.Data.History) != 1 || p.Data.History[0] != "a.json" {
			t.Errorf("unexpected history in payload: %v", p.Data.History)
		}
		if len(p.Data.Playlists) != 1 || p.Data.Playlists[0].ID != models.LikedPlaylistID {
			t.Errorf("expected liked playlist in payload, got %+v", p.Data.Playlists)
		}
		if got := r.s.LastBackupAt(); !got.Equal(r.fake.Now().Truncate(time.Millisecond)) {
			t.Errorf("expected last backup at %v, got %v", r.fake.Now(), got)
		}
		if !strings.Contains(r.s.Status(), "stored") {
			t.Errorf("expected status to carry server message, got %q", r.s.Status())
		}

		entries, err := r.journal.List(map[string]any{"status": string(models.BackupSucceeded)})
		if err != nil {
			t.Fatalf("failed to list journal: %v", err)
		}
		if len(entries) != 2 || entries[0].Reason() != string(ReasonManual) {
			t.Errorf("expected 2 manual journal entries, got %d", len(entries))
		}
	})

	t.Run("Automatic Skips Unchanged", func(t *testing.T) {
		r := newSyncRig(t)

		if _, err := r.s.Upload(ctx, ReasonChange); err != nil {
			t.Fatalf("first upload failed: %v", err)
		}
		res, err := r.s.Upload(ctx, ReasonPeriodic)
		if err != nil {
			t.Fatalf("second upload failed: %v", err)
		}
		if !res.Skipped {
			t.Error("expected unchanged automatic upload to be skipped")
		}
		if n := r.server.submits(); n != 1 {
			t.Errorf("expected no request for skipped upload, got %d submits", n)
		}

		r.stats.RecordCompletion("a.json", 42)
		res, _ = r.s.Upload(ctx, ReasonChange)
		if res.Skipped || r.server.submits() != 2 {
			t.Errorf("expected changed data to upload, skipped=%v submits=%d", res.Skipped, r.server.submits())
		}
	})

	t.Run("Failure Keeps Signature", func(t *testing.T) {
		r := newSyncRig(t)
		r.server.setFailing(true)

		_, err := r.s.Upload(ctx, ReasonManual)
		if err == nil {
			t.Fatal("expected upload error")
		}
		if r.s.LastSignature() != "" {
			t.Error("expected signature to stay unset after failure")
		}
		if !r.s.LastBackupAt().IsZero() {
			t.Error("expected no last backup time after failure")
		}
		if !strings.Contains(r.s.Status(), "failed") {
			t.Errorf("expected failure status, got %q", r.s.Status())
		}

		entries, _ := r.journal.List(map[string]any{"status": string(models.BackupFailed)})
		if len(entries) != 1 || !strings.Contains(entries[0].Message(), "disk full") {
			t.Errorf("expected failed journal entry with server message, got %d entries", len(entries))
		}

		r.server.setFailing(false)
		res, err := r.s.Upload(ctx, ReasonChange)
		if err != nil || res.Skipped {
			t.Errorf("expected automatic retry to upload, err=%v skipped=%v", err, res.Skipped)
		}
	})

	t.Run("Progress Is Non-Blocking", func(t *testing.T) {
		r := newSyncRig(t)
		progress := make(chan ProgressUpdate, 1)
		r.s.progress = progress

		if _, err := r.s.Upload(ctx, ReasonManual); err != nil {
			t.Fatalf("upload failed: %v", err)
		}
		update := <-progress
		if update.Phase != Upload || update.Step != 1 {
			t.Errorf("expected first upload update, got %+v", update)
		}
	})
}

func TestAutomaticTriggers(t *testing.T) {
	ctx := context.Background()

	t.Run("Debounce Restarts On Change", func(t *testing.T) {
		r := newSyncRig(t)
		if err := r.s.Start(ctx); err != nil {
			t.Fatalf("failed to start: %v", err)
		}

		r.coll.PushHistory("a.json")
		r.fake.Advance(time.Second)
		r.coll.PushHistory("b.json")
		r.fake.Advance(1500 * time.Millisecond)
		if n := r.server.submits(); n != 0 {
			t.Fatalf("expected debounce to be restarted, got %d submits", n)
		}

		r.fake.Advance(500 * time.Millisecond)
		r.settle(t)
		if n := r.server.submits(); n != 1 {
			t.Fatalf("expected one debounced upload, got %d", n)
		}
		if h := r.server.last().Data.History; len(h) != 2 || h[0] != "b.json" {
			t.Errorf("expected latest history in payload, got %v", h)
		}
	})

	t.Run("Unsynced Keys Ignored", func(t *testing.T) {
		r := newSyncRig(t)
		r.s.Start(ctx)

		r.repo.SaveUISettings(models.UISettings{DisableCovers: true})
		r.fake.Advance(3 * time.Second)
		if n := r.server.submits(); n != 0 {
			t.Errorf("expected no upload for ui settings, got %d", n)
		}
	})

	t.Run("Disabled Auto Backup", func(t *testing.T) {
		r := newSyncRig(t)
		r.s.Start(ctx)
		if err := r.s.SetAutoBackup(false); err != nil {
			t.Fatalf("failed to disable: %v", err)
		}

		r.coll.PushHistory("a.json")
		r.fake.Advance(DefaultPeriod)
		if n := r.server.submits(); n != 0 {
			t.Errorf("expected no automatic uploads, got %d", n)
		}
	})

	t.Run("Periodic Recheck", func(t *testing.T) {
		r := newSyncRig(t)
		r.s.Start(ctx)

		r.fake.Advance(DefaultPeriod)
		r.settle(t)
		if n := r.server.submits(); n != 1 {
			t.Fatalf("expected first periodic upload, got %d", n)
		}

		r.fake.Advance(DefaultPeriod)
		r.settle(t)
		if n := r.server.submits(); n != 1 {
			t.Errorf("expected unchanged periodic upload to be skipped, got %d submits", n)
		}
	})

	t.Run("Close Cancels Timers", func(t *testing.T) {
		r := newSyncRig(t)
		r.s.Start(ctx)
		r.coll.PushHistory("a.json")
		r.fake.Flush()
		if r.fake.Pending() != 2 {
			t.Fatalf("expected debounce and period timers, got %d", r.fake.Pending())
		}

		r.s.Close()
		if r.fake.Pending() != 0 {
			t.Errorf("expected no armed timers after close, got %d", r.fake.Pending())
		}
		r.coll.PushHistory("b.json")
		r.fake.Advance(DefaultPeriod)
		if n := r.server.submits(); n != 0 {
			t.Errorf("expected no uploads after close, got %d", n)
		}
	})

	t.Run("Start Requires Scheduler", func(t *testing.T) {
		s := NewSynchronizer(Options{Settings: repositories.NewStateRepository(repositories.NewMemoryStore(), nil)})
		if err := s.Start(ctx); err == nil {
			t.Error("expected error without scheduler")
		}
	})
}

func TestImport(t *testing.T) {
	t.Run("Local Is Primary", func(t *testing.T) {
		r := newSyncRig(t)
		r.coll.PushHistory("b")
		r.coll.PushHistory("a")
		r.stats.Replace(models.StatsMap{"x": {Completions: []int{100}, Listens: []int64{3}}})
		r.coll.ToggleLike("a")

		raw := []byte(`{"payload":{"data":{
			"history":["c","a"],
			"listenStats":{"x":{"completions":[80,90],"listens":[1,2]}},
			"playlists":[{"id":"like","name":"Liked","tracks":["c","a"]},{"id":"p2","name":"Road","tracks":["d"]}]
		}}}`)
		merged, err := r.s.Import(raw)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}

		if h := r.coll.History(); strings.Join(h, ",") != "a,b,c" {
			t.Errorf("expected history a,b,c, got %v", h)
		}
		if c := r.stats.Read("x").Completions; len(c) != 3 || c[0] != 80 || c[2] != 100 {
			t.Errorf("expected completions [80 90 100], got %v", c)
		}
		liked, _ := r.coll.Playlist(models.LikedPlaylistID)
		if strings.Join(liked.Tracks, ",") != "a,c" {
			t.Errorf("expected liked a,c, got %v", liked.Tracks)
		}
		if _, err := r.coll.Playlist("p2"); err != nil {
			t.Errorf("expected remote-only playlist kept: %v", err)
		}
		if len(merged.Playlists) != 2 {
			t.Errorf("expected 2 merged playlists, got %d", len(merged.Playlists))
		}
	})

	t.Run("Round Trip Is No-Op", func(t *testing.T) {
		r := newSyncRig(t)
		r.coll.PushHistory("a")
		r.stats.RecordListenStart("a")
		r.stats.RecordCompletion("a", 75)

		before, _ := Signature(r.s.Data())
		payload, _ := r.s.Payload()
		raw, _ := json.Marshal(payload)

		if _, err := r.s.Import(raw); err != nil {
			t.Fatalf("import failed: %v", err)
		}
		after, _ := Signature(r.s.Data())
		if before != after {
			t.Errorf("expected unchanged content after importing own backup")
		}
	})

	t.Run("Malformed Document", func(t *testing.T) {
		r := newSyncRig(t)
		r.coll.PushHistory("a")

		if _, err := r.s.Import([]byte(`[1,2]`)); err == nil {
			t.Fatal("expected error for non-object document")
		}
		if h := r.coll.History(); len(h) != 1 {
			t.Errorf("expected local state untouched, got %v", h)
		}
	})
}

type failingStats struct {
	StatsState
	err error
}

func (f failingStats) Replace(models.StatsMap) error { return f.err }

type failingLibrary struct {
	LibraryState
	err error
}

func (f failingLibrary) Replace(models.LibraryState) error { return f.err }

func TestMergeFailures(t *testing.T) {
	remote := models.BackupData{
		Playlists:   []models.Playlist{{ID: "p2", Name: "Road", Tracks: []string{"x"}}},
		History:     []string{"x"},
		ListenStats: models.StatsMap{"x": {Completions: []int{90}, Listens: []int64{1}}},
	}

	t.Run("Stats Write Fails", func(t *testing.T) {
		r := newSyncRig(t)
		before := len(r.coll.Playlists())
		r.s.stats = failingStats{StatsState: r.stats, err: errors.New("disk full")}

		if _, err := r.s.Merge(remote); err == nil {
			t.Fatal("expected merge error")
		}
		if got := len(r.coll.Playlists()); got != before {
			t.Errorf("expected %d playlists after a failed merge, got %d", before, got)
		}
		if h := r.coll.History(); len(h) != 0 {
			t.Errorf("expected history untouched, got %v", h)
		}
		if !strings.Contains(r.s.Status(), "disk full") {
			t.Errorf("expected failure status, got %q", r.s.Status())
		}
	})

	t.Run("Library Write Fails", func(t *testing.T) {
		r := newSyncRig(t)
		r.stats.Replace(models.StatsMap{"y": {Completions: []int{50}}})
		r.s.library = failingLibrary{LibraryState: r.coll, err: errors.New("disk full")}

		if _, err := r.s.Merge(remote); err == nil {
			t.Fatal("expected merge error")
		}
		all := r.stats.ReadAll()
		if _, ok := all["x"]; ok {
			t.Errorf("expected merged stats rolled back, got %v", all)
		}
		if c := all["y"].Completions; len(c) != 1 || c[0] != 50 {
			t.Errorf("expected local stats restored, got %v", all)
		}
	})
}

func TestAnchor(t *testing.T) {
	ctx := context.Background()

	t.Run("Wrong Password", func(t *testing.T) {
		r := newSyncRig(t)
		if _, err := r.s.Anchor(ctx, "me", "nope"); err == nil {
			t.Fatal("expected anchor error")
		}
		if r.s.AnchorID() != "" {
			t.Error("expected anchor not persisted")
		}
		if r.server.submits() != 0 {
			t.Error("expected no upload after failed anchor")
		}
	})

	t.Run("Merges And Uploads", func(t *testing.T) {
		r := newSyncRig(t)
		r.server.anchor = `{"status":"success","data":{"history":["remote.json"]}}`
		r.coll.PushHistory("local.json")

		id, err := r.s.Anchor(ctx, " me ", "secret")
		if err != nil {
			t.Fatalf("anchor failed: %v", err)
		}
		if id != "anchor-me" || r.s.AnchorID() != id {
			t.Errorf("expected persisted anchor-me, got %q / %q", id, r.s.AnchorID())
		}
		if got := r.repo.AnchorSettings().Account; got != "me" {
			t.Errorf("expected trimmed account, got %q", got)
		}
		if h := r.coll.History(); strings.Join(h, ",") != "local.json,remote.json" {
			t.Errorf("expected merged history, got %v", h)
		}
		if r.server.submits() != 1 || r.server.last().AnchorID != id {
			t.Errorf("expected anchored upload")
		}
	})

	t.Run("No Existing Anchor Backup", func(t *testing.T) {
		r := newSyncRig(t)
		if _, err := r.s.Anchor(ctx, "me", "secret"); err != nil {
			t.Fatalf("anchor failed: %v", err)
		}
		if r.server.submits() != 1 {
			t.Error("expected upload even without an anchor backup")
		}
	})
}

func TestRestoreAndLinks(t *testing.T) {
	ctx := context.Background()

	t.Run("Restore Client Backup", func(t *testing.T) {
		r := newSyncRig(t)
		r.server.client = `{"client_id":"c","data":{"history":["z"]}}`

		if _, err := r.s.Restore(ctx); err != nil {
			t.Fatalf("restore failed: %v", err)
		}
		if h := r.coll.History(); len(h) != 1 || h[0] != "z" {
			t.Errorf("expected restored history, got %v", h)
		}
	})

	t.Run("Restore Anchor Failure", func(t *testing.T) {
		r := newSyncRig(t)
		r.repo.SaveAnchorSettings(models.AnchorSettings{Account: "me", AnchorID: "anchor-me"})

		if _, err := r.s.Restore(ctx); err == nil {
			t.Fatal("expected error for missing anchor backup")
		}
		if !strings.Contains(r.s.Status(), "Restore failed") {
			t.Errorf("expected restore failure status, got %q", r.s.Status())
		}
	})

	t.Run("Download URL", func(t *testing.T) {
		r := newSyncRig(t)
		clientID, _ := r.s.ClientID()

		link, err := r.s.DownloadURL()
		if err != nil || !strings.Contains(link, "/download_client_backup?client_id="+clientID) {
			t.Errorf("unexpected client link %q (%v)", link, err)
		}

		r.repo.SaveAnchorSettings(models.AnchorSettings{AnchorID: "anchor-me"})
		link, _ = r.s.DownloadURL()
		if !strings.Contains(link, "/download_anchor_backup?anchor_id=anchor-me") {
			t.Errorf("unexpected anchor link %q", link)
		}
	})
}
