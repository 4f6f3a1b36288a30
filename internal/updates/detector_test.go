package updates

import (
	"context"
	"errors"
	"testing"

	"ludo/internal/indexer"
	"ludo/internal/release"
	"ludo/internal/services"
	"ludo/internal/store"
	"ludo/internal/testsupport"
)

type fakeGateway struct {
	releases map[string][]indexer.Release
	err      error
}

func (f *fakeGateway) Search(ctx context.Context, q indexer.Query) ([]indexer.Release, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.releases[q.Text], nil
}

func (f *fakeGateway) TestConnection(ctx context.Context) error { return f.err }

type fakeGrabber struct {
	calls int
	err   error
}

func (f *fakeGrabber) Grab(ctx context.Context, gameID int64, rel release.Classified) (*store.GrabbedRelease, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &store.GrabbedRelease{ID: int64(f.calls), GameID: gameID, Status: store.GrabDownloading}, nil
}

func newDetector(t *testing.T, gateway indexer.Gateway, grabber Grabber) (*Detector, *Dispatcher, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	dispatcher := NewDispatcher(st, grabber, nil, nil)
	return NewDetector(st, gateway, dispatcher, nil), dispatcher, st
}

func downloadedGame(t *testing.T, st *store.Store, policy store.UpdatePolicy, version, quality string) *store.Game {
	t.Helper()
	game, err := st.CreateGame(context.Background(), &store.Game{
		IGDBID:           1030,
		Title:            "Hollow Knight",
		Status:           store.GameDownloaded,
		Monitored:        true,
		InstalledVersion: version,
		InstalledQuality: quality,
		UpdatePolicy:     policy,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func TestCheckDetectsNewerVersion(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight.v1.5.78-GOG", Seeders: 30, DownloadURL: "magnet:1"},
			{GUID: "g2", Title: "Hollow.Knight.v1.4.3.2-GOG", Seeders: 30, DownloadURL: "magnet:2"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	game := downloadedGame(t, st, store.PolicyNotify, "1.4.3.2", "gog")
	ctx := context.Background()

	found, err := detector.CheckForUpdates(ctx, game.ID)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if found != 1 {
		t.Fatalf("found = %d, want 1", found)
	}

	pending, err := st.PendingUpdatesForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].UpdateType != store.UpdateVersion || pending[0].Version != "1.5.78" {
		t.Errorf("pending = %+v, want one version update for 1.5.78", pending)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight.v1.5.78-GOG", Seeders: 30, DownloadURL: "magnet:1"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	game := downloadedGame(t, st, store.PolicyNotify, "1.0", "gog")
	ctx := context.Background()

	if _, err := detector.CheckForUpdates(ctx, game.ID); err != nil {
		t.Fatalf("first check: %v", err)
	}
	found, err := detector.CheckForUpdates(ctx, game.ID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if found != 0 {
		t.Errorf("second check found %d updates, want 0", found)
	}

	pending, err := st.PendingUpdatesForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending rows = %d, want 1", len(pending))
	}
}

func TestCheckDetectsDLC(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight.Godmaster.DLC-CODEX", Seeders: 12, DownloadURL: "magnet:1"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	game := downloadedGame(t, st, store.PolicyNotify, "1.5", "gog")

	found, err := detector.CheckForUpdates(context.Background(), game.ID)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if found != 1 {
		t.Fatalf("found = %d, want 1", found)
	}
	pending, _ := st.PendingUpdatesForGame(context.Background(), game.ID)
	if len(pending) != 1 || pending[0].UpdateType != store.UpdateDLC {
		t.Errorf("pending = %+v, want one dlc update", pending)
	}
}

func TestCheckDetectsBetterRelease(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight-GOG", Seeders: 8, DownloadURL: "magnet:1"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	game := downloadedGame(t, st, store.PolicyNotify, "", "scene")
	ctx := context.Background()

	found, err := detector.CheckForUpdates(ctx, game.ID)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if found != 1 {
		t.Fatalf("found = %d, want 1", found)
	}
	pending, _ := st.PendingUpdatesForGame(ctx, game.ID)
	if len(pending) != 1 || pending[0].UpdateType != store.UpdateBetterRelease {
		t.Errorf("pending = %+v, want one better_release update", pending)
	}

	// a second, equal-quality candidate is not recorded while one is pending
	gateway.releases["Hollow Knight"] = []indexer.Release{
		{GUID: "g2", Title: "Hollow.Knight.Anniversary-GOG", Seeders: 25, DownloadURL: "magnet:2"},
	}
	found, err = detector.CheckForUpdates(ctx, game.ID)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if found != 0 {
		t.Errorf("found = %d, want 0 while a better_release is pending", found)
	}
}

func TestCheckSkipsRiskySeeders(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight-GOG", Seeders: 2, DownloadURL: "magnet:1"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	game := downloadedGame(t, st, store.PolicyNotify, "", "scene")

	found, err := detector.CheckForUpdates(context.Background(), game.ID)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if found != 0 {
		t.Errorf("found = %d, want 0 for risky seeder health", found)
	}
	pending, _ := st.PendingUpdatesForGame(context.Background(), game.ID)
	if len(pending) != 0 {
		t.Errorf("pending = %+v, want none", pending)
	}
}

func TestCheckNotDownloadedIsInvalidState(t *testing.T) {
	detector, _, st := newDetector(t, &fakeGateway{}, &fakeGrabber{})
	game, err := st.CreateGame(context.Background(), &store.Game{
		IGDBID: 1, Title: "Celeste", Status: store.GameWanted,
		Monitored: true, UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if _, err := detector.CheckForUpdates(context.Background(), game.ID); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestAutoPolicyGrabsImmediately(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight.v2.0-GOG", Seeders: 30, DownloadURL: "magnet:1"},
		},
	}}
	grabber := &fakeGrabber{}
	detector, _, st := newDetector(t, gateway, grabber)
	game := downloadedGame(t, st, store.PolicyAuto, "1.0", "gog")
	ctx := context.Background()

	if _, err := detector.CheckForUpdates(ctx, game.ID); err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if grabber.calls != 1 {
		t.Fatalf("grabber calls = %d, want 1", grabber.calls)
	}

	grabbed, err := st.ListUpdates(ctx, store.UpdateGrabbed)
	if err != nil {
		t.Fatalf("list updates: %v", err)
	}
	if len(grabbed) != 1 {
		t.Errorf("grabbed updates = %d, want 1", len(grabbed))
	}
}

func TestAutoPolicyFailureLeavesPending(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight.v2.0-GOG", Seeders: 30, DownloadURL: "magnet:1"},
		},
	}}
	grabber := &fakeGrabber{err: services.Wrap(services.ErrAdapterUnavailable, "downloader", "add", "down", nil)}
	detector, _, st := newDetector(t, gateway, grabber)
	game := downloadedGame(t, st, store.PolicyAuto, "1.0", "gog")

	if _, err := detector.CheckForUpdates(context.Background(), game.ID); err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	pending, err := st.PendingUpdatesForGame(context.Background(), game.ID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("pending = %+v, want update kept pending after grab failure", pending)
	}
}

func TestCheckAllSkipsIgnoredGames(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Hollow Knight": {
			{GUID: "g1", Title: "Hollow.Knight.v2.0-GOG", Seeders: 30, DownloadURL: "magnet:1"},
		},
		"Celeste": {
			{GUID: "g2", Title: "Celeste.v2.0-GOG", Seeders: 30, DownloadURL: "magnet:2"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	downloadedGame(t, st, store.PolicyNotify, "1.0", "gog")
	ctx := context.Background()
	if _, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 2, Title: "Celeste", Status: store.GameDownloaded,
		Monitored: true, InstalledVersion: "1.0", UpdatePolicy: store.PolicyIgnore,
	}); err != nil {
		t.Fatalf("create ignored game: %v", err)
	}

	report, err := detector.CheckAll(ctx)
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if report.Checked != 1 || report.UpdatesFound != 1 {
		t.Errorf("report = %+v, want ignored game excluded", report)
	}
}

func TestUnmonitoredGameSkippedInBatchButDirectlyCheckable(t *testing.T) {
	gateway := &fakeGateway{releases: map[string][]indexer.Release{
		"Celeste": {
			{GUID: "g2", Title: "Celeste.v2.0-GOG", Seeders: 30, DownloadURL: "magnet:2"},
		},
	}}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	ctx := context.Background()
	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 2, Title: "Celeste", Status: store.GameDownloaded,
		Monitored: false, InstalledVersion: "1.0", InstalledQuality: "gog",
		UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	report, err := detector.CheckAll(ctx)
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if report.Checked != 0 || report.UpdatesFound != 0 {
		t.Errorf("report = %+v, want unmonitored game excluded from batch", report)
	}

	// A direct request names the game; operator intent wins over the flag.
	found, err := detector.CheckForUpdates(ctx, game.ID)
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if found != 1 {
		t.Fatalf("direct check found %d updates, want 1", found)
	}
}

func TestCheckAllToleratesIndexerOutage(t *testing.T) {
	gateway := &fakeGateway{err: services.Wrap(services.ErrAdapterUnavailable, "indexer", "search", "down", nil)}
	detector, _, st := newDetector(t, gateway, &fakeGrabber{})
	downloadedGame(t, st, store.PolicyNotify, "1.0", "gog")

	report, err := detector.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if report.Checked != 0 || report.UpdatesFound != 0 {
		t.Errorf("report = %+v, want outage skipped without failing", report)
	}
}

func TestDismissUpdateLifecycle(t *testing.T) {
	_, dispatcher, st := newDetector(t, &fakeGateway{}, &fakeGrabber{})
	game := downloadedGame(t, st, store.PolicyNotify, "1.0", "gog")
	ctx := context.Background()

	update, inserted, err := st.InsertUpdate(ctx, &store.GameUpdate{
		GameID: game.ID, UpdateType: store.UpdateVersion, Title: "Hollow.Knight.v2.0",
		Version: "2.0", DownloadURL: "magnet:1", Indexer: "idx", Status: store.UpdatePending,
	})
	if err != nil || !inserted {
		t.Fatalf("insert update: %v inserted=%v", err, inserted)
	}

	if err := dispatcher.DismissUpdate(ctx, update.ID); err != nil {
		t.Fatalf("DismissUpdate: %v", err)
	}
	if err := dispatcher.DismissUpdate(ctx, update.ID); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second dismiss, got %v", err)
	}
	if err := dispatcher.DismissUpdate(ctx, 999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	game2, err := st.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if game2.Status != store.GameDownloaded {
		t.Errorf("dismiss changed game status to %q", game2.Status)
	}
}

func TestGrabUpdateManually(t *testing.T) {
	grabber := &fakeGrabber{}
	_, dispatcher, st := newDetector(t, &fakeGateway{}, grabber)
	game := downloadedGame(t, st, store.PolicyNotify, "1.0", "gog")
	ctx := context.Background()

	update, _, err := st.InsertUpdate(ctx, &store.GameUpdate{
		GameID: game.ID, UpdateType: store.UpdateVersion, Title: "Hollow.Knight.v2.0",
		Version: "2.0", DownloadURL: "magnet:1", Indexer: "idx", Status: store.UpdatePending,
	})
	if err != nil {
		t.Fatalf("insert update: %v", err)
	}

	if _, err := dispatcher.GrabUpdate(ctx, update.ID); err != nil {
		t.Fatalf("GrabUpdate: %v", err)
	}
	got, err := st.GetUpdate(ctx, update.ID)
	if err != nil {
		t.Fatalf("get update: %v", err)
	}
	if got.Status != store.UpdateGrabbed {
		t.Errorf("status = %q, want grabbed", got.Status)
	}
	if _, err := dispatcher.GrabUpdate(ctx, update.ID); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on regrab, got %v", err)
	}
}
