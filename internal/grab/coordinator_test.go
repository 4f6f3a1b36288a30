package grab

import (
	"context"
	"errors"
	"testing"

	"ludo/internal/config"
	"ludo/internal/downloader"
	"ludo/internal/indexer"
	"ludo/internal/release"
	"ludo/internal/services"
	"ludo/internal/store"
	"ludo/internal/testsupport"
)

type fakeAdapter struct {
	addCalls int
	addErr   error
	hash     string
}

func (f *fakeAdapter) Add(ctx context.Context, locator, category, savePath string) (string, error) {
	f.addCalls++
	if f.addErr != nil {
		return "", f.addErr
	}
	if f.hash == "" {
		return "fakehash", nil
	}
	return f.hash, nil
}

func (f *fakeAdapter) List(ctx context.Context) ([]downloader.Download, error) { return nil, nil }
func (f *fakeAdapter) Pause(ctx context.Context, hash string) error            { return nil }
func (f *fakeAdapter) Resume(ctx context.Context, hash string) error           { return nil }
func (f *fakeAdapter) Cancel(ctx context.Context, hash string, deleteFiles bool) error {
	return nil
}
func (f *fakeAdapter) Categories(ctx context.Context) ([]string, error) { return nil, nil }

func testRelease() release.Classified {
	return release.Classified{
		Release: indexer.Release{
			GUID:        "guid-1",
			Title:       "Hollow.Knight.v1.5.78-GOG",
			Indexer:     "test-indexer",
			Size:        9 << 30,
			Seeders:     40,
			DownloadURL: "magnet:?xt=urn:btih:abc",
		},
		Quality: "gog",
	}
}

func newCoordinator(t *testing.T, adapter downloader.Adapter) (*Coordinator, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	coord := NewCoordinator(st, adapter, nil, config.DownloadClient{DefaultCategory: "games"}, nil)
	return coord, st
}

func createWantedGame(t *testing.T, st *store.Store) *store.Game {
	t.Helper()
	game, err := st.CreateGame(context.Background(), &store.Game{
		IGDBID:       1030,
		Title:        "Hollow Knight",
		Platform:     "PC",
		Status:       store.GameWanted,
		Monitored:    true,
		UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func TestGrabHappyPath(t *testing.T) {
	adapter := &fakeAdapter{hash: "abc123"}
	coord, st := newCoordinator(t, adapter)
	game := createWantedGame(t, st)
	ctx := context.Background()

	grabbed, err := coord.Grab(ctx, game.ID, testRelease())
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if grabbed.Status != store.GrabDownloading || grabbed.Hash != "abc123" {
		t.Errorf("grab = %+v, want downloading with hash abc123", grabbed)
	}

	got, err := st.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.Status != store.GameDownloading {
		t.Errorf("game status = %q, want %q", got.Status, store.GameDownloading)
	}

	hist, err := st.HistoryForRelease(ctx, grabbed.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if hist == nil || hist.Status != store.GrabDownloading {
		t.Errorf("history = %+v, want downloading entry", hist)
	}
}

func TestGrabDuplicateIsRejectedBeforeSubmission(t *testing.T) {
	adapter := &fakeAdapter{}
	coord, st := newCoordinator(t, adapter)
	game := createWantedGame(t, st)
	ctx := context.Background()

	if _, err := coord.Grab(ctx, game.ID, testRelease()); err != nil {
		t.Fatalf("first Grab: %v", err)
	}
	_, err := coord.Grab(ctx, game.ID, testRelease())
	if !errors.Is(err, services.ErrDuplicateGrab) {
		t.Fatalf("expected ErrDuplicateGrab, got %v", err)
	}
	if adapter.addCalls != 1 {
		t.Errorf("adapter called %d times, want 1", adapter.addCalls)
	}
}

func TestGrabSubmissionFailureMarksGrabFailed(t *testing.T) {
	adapter := &fakeAdapter{addErr: services.Wrap(services.ErrAdapterUnavailable, "downloader", "add", "down", nil)}
	coord, st := newCoordinator(t, adapter)
	game := createWantedGame(t, st)
	ctx := context.Background()

	_, err := coord.Grab(ctx, game.ID, testRelease())
	if !errors.Is(err, services.ErrAdapterUnavailable) {
		t.Fatalf("expected ErrAdapterUnavailable, got %v", err)
	}

	got, err := st.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.Status != store.GameWanted {
		t.Errorf("game status = %q, want unchanged %q", got.Status, store.GameWanted)
	}

	grabs, err := st.ListGrabs(ctx, game.ID)
	if err != nil {
		t.Fatalf("list grabs: %v", err)
	}
	if len(grabs) != 1 || grabs[0].Status != store.GrabFailed {
		t.Errorf("grabs = %+v, want one failed grab", grabs)
	}

	// failed is terminal, so a retry may grab the same release again
	adapter.addErr = nil
	if _, err := coord.Grab(ctx, game.ID, testRelease()); err != nil {
		t.Fatalf("retry Grab: %v", err)
	}
}

func TestGrabUnknownGame(t *testing.T) {
	coord, _ := newCoordinator(t, &fakeAdapter{})
	_, err := coord.Grab(context.Background(), 999, testRelease())
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGrabUsesLibraryCategory(t *testing.T) {
	var gotCategory string
	adapter := &categoryRecordingAdapter{category: &gotCategory}
	coord, st := newCoordinator(t, adapter)
	ctx := context.Background()

	lib, err := st.CreateLibrary(ctx, &store.Library{
		Name:             "PC Games",
		Path:             t.TempDir(),
		Platform:         "PC",
		Monitored:        true,
		DownloadEnabled:  true,
		DownloadCategory: "pc-games",
	})
	if err != nil {
		t.Fatalf("create library: %v", err)
	}
	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID:       1,
		Title:        "Celeste",
		Status:       store.GameWanted,
		Monitored:    true,
		LibraryID:    &lib.ID,
		UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if _, err := coord.Grab(ctx, game.ID, testRelease()); err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if gotCategory != "pc-games" {
		t.Errorf("category = %q, want %q", gotCategory, "pc-games")
	}
}

type categoryRecordingAdapter struct {
	fakeAdapter
	category *string
}

func (a *categoryRecordingAdapter) Add(ctx context.Context, locator, category, savePath string) (string, error) {
	*a.category = category
	return a.fakeAdapter.Add(ctx, locator, category, savePath)
}
