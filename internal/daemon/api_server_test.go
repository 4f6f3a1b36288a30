package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ludo/internal/api"
	"ludo/internal/config"
	"ludo/internal/downloader"
	"ludo/internal/grab"
	"ludo/internal/indexer"
	"ludo/internal/library"
	"ludo/internal/metadata"
	"ludo/internal/store"
	"ludo/internal/testsupport"
	"ludo/internal/updates"
)

type stubGateway struct {
	releases []indexer.Release
}

func (s *stubGateway) Search(ctx context.Context, q indexer.Query) ([]indexer.Release, error) {
	return s.releases, nil
}

func (s *stubGateway) TestConnection(ctx context.Context) error { return nil }

type stubProvider struct{}

func (stubProvider) Search(ctx context.Context, title string) ([]metadata.Candidate, error) {
	return nil, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	adapter := downloader.NewDryRun()
	engine := library.NewEngine(st, stubProvider{}, store.PolicyNotify, nil)
	coordinator := grab.NewCoordinator(st, adapter, nil, config.DownloadClient{DefaultCategory: "games"}, nil)
	dispatcher := updates.NewDispatcher(st, coordinator, nil, nil)
	gateway := &stubGateway{releases: []indexer.Release{
		{GUID: "g1", Title: "Hollow.Knight.v1.5.78-GOG", Indexer: "idx", Seeders: 25, DownloadURL: "magnet:1"},
	}}
	detector := updates.NewDetector(st, gateway, dispatcher, nil)

	d, err := New(cfg, Deps{
		Store:       st,
		Gateway:     gateway,
		Adapter:     adapter,
		Engine:      engine,
		Coordinator: coordinator,
		Detector:    detector,
		Dispatcher:  dispatcher,
	}, nil)
	if err != nil {
		t.Fatalf("New daemon: %v", err)
	}

	server := httptest.NewServer(d.api.server.Handler)
	t.Cleanup(server.Close)
	return server, st
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, api.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var envelope api.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp, envelope
}

func decodeData(t *testing.T, envelope api.Response, dst any) {
	t.Helper()
	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("remarshal data: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestGameLifecycleOverAPI(t *testing.T) {
	server, _ := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodPost, server.URL+"/api/games", map[string]any{
		"igdbId": 1030, "title": "Hollow Knight", "platform": "PC",
	})
	if resp.StatusCode != http.StatusCreated || !envelope.Success {
		t.Fatalf("create game: status %d, envelope %+v", resp.StatusCode, envelope)
	}
	var created api.Game
	decodeData(t, envelope, &created)
	if created.Status != "wanted" || created.UpdatePolicy != "notify" {
		t.Errorf("created game = %+v, want wanted/notify defaults", created)
	}

	resp, envelope = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/games/%d", server.URL, created.ID), nil)
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Fatalf("get game: status %d", resp.StatusCode)
	}

	resp, envelope = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/games/%d/policy", server.URL, created.ID),
		map[string]string{"policy": "auto"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set policy: status %d, envelope %+v", resp.StatusCode, envelope)
	}
	var updated api.Game
	decodeData(t, envelope, &updated)
	if updated.UpdatePolicy != "auto" {
		t.Errorf("policy = %q, want auto", updated.UpdatePolicy)
	}

	resp, envelope = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/games/%d/policy", server.URL, created.ID),
		map[string]string{"policy": "sometimes"})
	if resp.StatusCode != http.StatusBadRequest || envelope.Success {
		t.Fatalf("unknown policy accepted: status %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/games/%d", server.URL, created.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete game: status %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/games/%d", server.URL, created.ID), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted game still present: status %d", resp.StatusCode)
	}
}

func TestGrabFlowOverAPI(t *testing.T) {
	server, st := newTestServer(t)
	ctx := context.Background()

	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 1030, Title: "Hollow Knight", Status: store.GameWanted,
		Monitored: true, UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	grabBody := map[string]any{
		"gameId": game.ID,
		"release": map[string]any{
			"guid": "g1", "title": "Hollow.Knight.v1.5.78-GOG", "indexer": "idx",
			"seeders": 25, "downloadUrl": "magnet:1",
		},
	}
	resp, envelope := doJSON(t, http.MethodPost, server.URL+"/api/search/grab", grabBody)
	if resp.StatusCode != http.StatusCreated || !envelope.Success {
		t.Fatalf("grab: status %d, envelope %+v", resp.StatusCode, envelope)
	}
	var grabbed api.Grab
	decodeData(t, envelope, &grabbed)
	if grabbed.Status != "downloading" || grabbed.Hash == "" {
		t.Errorf("grab = %+v, want downloading with hash", grabbed)
	}

	resp, envelope = doJSON(t, http.MethodPost, server.URL+"/api/search/grab", grabBody)
	if resp.StatusCode != http.StatusConflict || envelope.Success {
		t.Fatalf("duplicate grab: status %d, want 409", resp.StatusCode)
	}

	resp, envelope = doJSON(t, http.MethodGet, server.URL+"/api/downloads", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list downloads: status %d", resp.StatusCode)
	}
	var downloads []api.Download
	decodeData(t, envelope, &downloads)
	if len(downloads) != 1 {
		t.Fatalf("downloads = %+v, want one dry-run transfer", downloads)
	}
	if downloads[0].GameID == nil || *downloads[0].GameID != game.ID {
		t.Errorf("download not linked to game: %+v", downloads[0])
	}
}

func TestSearchReleasesClassifies(t *testing.T) {
	server, _ := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodGet, server.URL+"/api/search/releases?q=hollow", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: status %d", resp.StatusCode)
	}
	var releases []api.Release
	decodeData(t, envelope, &releases)
	if len(releases) != 1 {
		t.Fatalf("releases = %+v, want 1", releases)
	}
	rel := releases[0]
	if rel.Quality != "gog" || rel.Health != "healthy" || rel.Version != "1.5.78" {
		t.Errorf("classification = %+v, want gog/healthy/1.5.78", rel)
	}
}

func TestUpdateEndpoints(t *testing.T) {
	server, st := newTestServer(t)
	ctx := context.Background()

	game, err := st.CreateGame(ctx, &store.Game{
		IGDBID: 1030, Title: "Hollow Knight", Status: store.GameDownloaded,
		Monitored: true, InstalledVersion: "1.0", InstalledQuality: "gog",
		UpdatePolicy: store.PolicyNotify,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}

	resp, envelope := doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/updates/games/%d/check", server.URL, game.ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("check: status %d, envelope %+v", resp.StatusCode, envelope)
	}

	resp, envelope = doJSON(t, http.MethodGet, server.URL+"/api/updates?status=pending", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list updates: status %d", resp.StatusCode)
	}
	var pending []api.Update
	decodeData(t, envelope, &pending)
	if len(pending) != 1 || pending[0].UpdateType != "version" {
		t.Fatalf("pending = %+v, want one version update", pending)
	}

	resp, _ = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/updates/%d/dismiss", server.URL, pending[0].ID), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dismiss: status %d", resp.StatusCode)
	}
	resp, envelope = doJSON(t, http.MethodPost,
		fmt.Sprintf("%s/api/updates/%d/dismiss", server.URL, pending[0].ID), nil)
	if resp.StatusCode != http.StatusConflict || envelope.Success {
		t.Fatalf("second dismiss: status %d, want 409", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodGet, server.URL+"/api/status", nil)
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Fatalf("status: %d, envelope %+v", resp.StatusCode, envelope)
	}
	var status api.Status
	decodeData(t, envelope, &status)
	if status.DatabasePath == "" || status.LockPath == "" {
		t.Errorf("status = %+v, want paths populated", status)
	}
}

func TestUnmatchedEmptyList(t *testing.T) {
	server, _ := newTestServer(t)

	resp, envelope := doJSON(t, http.MethodGet, server.URL+"/api/library/unmatched", nil)
	if resp.StatusCode != http.StatusOK || !envelope.Success {
		t.Fatalf("unmatched: status %d", resp.StatusCode)
	}
}
