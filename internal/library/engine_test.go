package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ludo/internal/metadata"
	"ludo/internal/services"
	"ludo/internal/store"
	"ludo/internal/testsupport"
)

type fakeProvider struct {
	results map[string][]metadata.Candidate
	err     error
}

func (f *fakeProvider) Search(ctx context.Context, title string) ([]metadata.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[title], nil
}

func newEngine(t *testing.T, provider metadata.Provider, sources ...Source) (*Engine, *store.Store) {
	t.Helper()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	return NewEngine(st, provider, store.PolicyNotify, nil, sources...), st
}

func makeLibrary(t *testing.T, st *store.Store, folderNames ...string) *store.Library {
	t.Helper()
	root := t.TempDir()
	for _, name := range folderNames {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}
	lib, err := st.CreateLibrary(context.Background(), &store.Library{
		Name:      "PC Games",
		Path:      root,
		Platform:  "PC",
		Monitored: true,
	})
	if err != nil {
		t.Fatalf("create library: %v", err)
	}
	return lib
}

func TestScanAutoMatchesSingleExactCandidate(t *testing.T) {
	provider := &fakeProvider{results: map[string][]metadata.Candidate{
		"Hollow Knight": {{ID: 1030, Title: "Hollow Knight", Year: 2017, Platforms: []string{"PC"}}},
	}}
	engine, st := newEngine(t, provider)
	makeLibrary(t, st, "Hollow.Knight.v1.5.78-GOG")
	ctx := context.Background()

	report, err := engine.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Scanned != 1 || report.Matched != 1 || report.Unmatched != 0 {
		t.Errorf("report = %+v, want 1 scanned 1 matched", report)
	}

	game, err := st.FindGameByIGDBID(ctx, 1030)
	if err != nil {
		t.Fatalf("find game: %v", err)
	}
	if game == nil {
		t.Fatal("game not created by auto-match")
	}
	if game.Status != store.GameDownloaded || !game.Monitored {
		t.Errorf("game = %+v, want downloaded and monitored", game)
	}

	folders, err := st.FoldersForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	if len(folders) != 1 || !folders[0].IsPrimary {
		t.Errorf("folders = %+v, want one primary folder", folders)
	}
}

func TestScanLeavesAmbiguousUnmatched(t *testing.T) {
	provider := &fakeProvider{results: map[string][]metadata.Candidate{
		"Doom": {
			{ID: 1, Title: "Doom", Year: 1993},
			{ID: 2, Title: "Doom", Year: 2016},
		},
	}}
	engine, st := newEngine(t, provider)
	makeLibrary(t, st, "Doom-CODEX")
	ctx := context.Background()

	report, err := engine.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Unmatched != 1 {
		t.Errorf("report = %+v, want 1 unmatched", report)
	}

	games, err := st.ListGames(ctx)
	if err != nil {
		t.Fatalf("list games: %v", err)
	}
	if len(games) != 0 {
		t.Errorf("ambiguous match created games: %+v", games)
	}

	unmatched, err := st.ListUnmatchedScanEntries(ctx)
	if err != nil {
		t.Fatalf("unmatched: %v", err)
	}
	if len(unmatched) != 1 {
		t.Fatalf("got %d unmatched entries, want 1", len(unmatched))
	}
}

func TestScanSurvivesMetadataOutage(t *testing.T) {
	provider := &fakeProvider{err: services.Wrap(services.ErrAdapterUnavailable, "metadata", "search", "down", nil)}
	engine, st := newEngine(t, provider)
	makeLibrary(t, st, "Celeste")

	report, err := engine.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if report.Unmatched != 1 {
		t.Errorf("report = %+v, want entry left unmatched", report)
	}
}

func TestManualMatchResolvesEntry(t *testing.T) {
	provider := &fakeProvider{results: map[string][]metadata.Candidate{}}
	engine, st := newEngine(t, provider)
	makeLibrary(t, st, "Doom-CODEX")
	ctx := context.Background()

	if _, err := engine.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	unmatched, err := st.ListUnmatchedScanEntries(ctx)
	if err != nil || len(unmatched) != 1 {
		t.Fatalf("unmatched = %v, %v", unmatched, err)
	}

	game, err := engine.Match(ctx, MatchRequest{
		EntryID:   unmatched[0].ID,
		Candidate: metadata.Candidate{ID: 2, Title: "Doom", Year: 2016, Platforms: []string{"PC"}},
		Tags:      []string{"shooter"},
	})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if game.IGDBID != 2 {
		t.Errorf("game igdb id = %d, want 2", game.IGDBID)
	}

	left, err := st.ListUnmatchedScanEntries(ctx)
	if err != nil {
		t.Fatalf("unmatched: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("entry not resolved: %+v", left)
	}
}

func TestAutoMatchAlreadyMatchedIsInvalidState(t *testing.T) {
	provider := &fakeProvider{results: map[string][]metadata.Candidate{
		"Celeste": {{ID: 7, Title: "Celeste", Year: 2018}},
	}}
	engine, st := newEngine(t, provider)
	makeLibrary(t, st, "Celeste")
	ctx := context.Background()

	if _, err := engine.Scan(ctx); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	entries, err := st.ListUnmatchedScanEntries(ctx)
	if err != nil {
		t.Fatalf("unmatched: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected match during scan, unmatched: %+v", entries)
	}

	game, err := st.FindGameByIGDBID(ctx, 7)
	if err != nil || game == nil {
		t.Fatalf("game lookup: %v %v", game, err)
	}
	folders, err := st.FoldersForGame(ctx, game.ID)
	if err != nil || len(folders) != 1 {
		t.Fatalf("folders: %v %v", folders, err)
	}
	entry, err := st.FindScanEntryByPath(ctx, folders[0].FolderPath)
	if err != nil || entry == nil {
		t.Fatalf("entry lookup: %v %v", entry, err)
	}
	if _, err := engine.AutoMatch(ctx, entry.ID); !errors.Is(err, services.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSetPrimaryMovesFlagAndVersion(t *testing.T) {
	engine, st := newEngine(t, &fakeProvider{})
	ctx := context.Background()
	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 1, Title: "Celeste", Status: store.GameDownloaded,
		Monitored: true, UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	first, err := engine.AttachFolder(ctx, game.ID, "/games/celeste", "1.0", "scene")
	if err != nil {
		t.Fatalf("attach first: %v", err)
	}
	second, err := engine.AttachFolder(ctx, game.ID, "/games/celeste-gog", "1.4", "gog")
	if err != nil {
		t.Fatalf("attach second: %v", err)
	}
	if !first.IsPrimary || second.IsPrimary {
		t.Fatalf("first folder should be primary initially")
	}

	if err := engine.SetPrimary(ctx, game.ID, second.ID); err != nil {
		t.Fatalf("SetPrimary: %v", err)
	}
	got, err := st.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.InstalledVersion != "1.4" || got.InstalledQuality != "gog" {
		t.Errorf("game version/quality = %q/%q, want 1.4/gog", got.InstalledVersion, got.InstalledQuality)
	}

	folders, err := st.FoldersForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	primaries := 0
	for _, f := range folders {
		if f.IsPrimary {
			primaries++
		}
	}
	if primaries != 1 {
		t.Errorf("primary count = %d, want 1", primaries)
	}
}

func TestSetPrimaryWrongGameIsNotFound(t *testing.T) {
	engine, st := newEngine(t, &fakeProvider{})
	ctx := context.Background()
	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 1, Title: "Celeste", Status: store.GameDownloaded,
		Monitored: true, UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if err := engine.SetPrimary(ctx, game.ID, 999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePrimaryFolderPromotesNothing(t *testing.T) {
	engine, st := newEngine(t, &fakeProvider{})
	ctx := context.Background()
	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 1, Title: "Celeste", Status: store.GameDownloaded,
		Monitored: true, UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	primary, err := engine.AttachFolder(ctx, game.ID, "/games/celeste", "1.0", "")
	if err != nil {
		t.Fatalf("attach primary: %v", err)
	}
	if _, err := engine.AttachFolder(ctx, game.ID, "/games/celeste-gog", "1.4", ""); err != nil {
		t.Fatalf("attach second: %v", err)
	}

	if err := engine.DeleteFolder(ctx, primary.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	folders, err := st.FoldersForGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	for _, f := range folders {
		if f.IsPrimary {
			t.Errorf("folder %d promoted to primary after delete", f.ID)
		}
	}
}

func TestImportDownloadMarksGameDownloaded(t *testing.T) {
	engine, st := newEngine(t, &fakeProvider{})
	ctx := context.Background()
	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 1, Title: "Celeste", Status: store.GameDownloading,
		Monitored: true, UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	if _, err := engine.ImportDownload(ctx, game.ID, "/downloads/Celeste-GOG", "1.4", "gog"); err != nil {
		t.Fatalf("ImportDownload: %v", err)
	}
	got, err := st.GetGame(ctx, game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	if got.Status != store.GameDownloaded {
		t.Errorf("status = %q, want %q", got.Status, store.GameDownloaded)
	}
	if got.InstalledVersion != "1.4" || got.InstalledQuality != "gog" {
		t.Errorf("installed = %q/%q, want 1.4/gog", got.InstalledVersion, got.InstalledQuality)
	}
}
