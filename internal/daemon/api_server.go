package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"ludo/internal/api"
	"ludo/internal/config"
	"ludo/internal/indexer"
	"ludo/internal/library"
	"ludo/internal/logging"
	"ludo/internal/release"
	"ludo/internal/scheduler"
	"ludo/internal/services"
	"ludo/internal/store"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger.With(logging.String("component", "api")),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/games", srv.handleGames)
	mux.HandleFunc("/api/games/", srv.handleGameItem)
	mux.HandleFunc("/api/libraries", srv.handleLibraries)
	mux.HandleFunc("/api/libraries/", srv.handleLibraryItem)
	mux.HandleFunc("/api/search/releases", srv.handleSearchReleases)
	mux.HandleFunc("/api/search/releases/", srv.handleSearchReleasesForGame)
	mux.HandleFunc("/api/search/grab", srv.handleGrab)
	mux.HandleFunc("/api/downloads", srv.handleDownloads)
	mux.HandleFunc("/api/downloads/history", srv.handleDownloadHistory)
	mux.HandleFunc("/api/downloads/", srv.handleDownloadItem)
	mux.HandleFunc("/api/library/scan", srv.handleLibraryScan)
	mux.HandleFunc("/api/library/auto-match", srv.handleAutoMatch)
	mux.HandleFunc("/api/library/match", srv.handleMatch)
	mux.HandleFunc("/api/library/unmatched", srv.handleUnmatched)
	mux.HandleFunc("/api/updates", srv.handleUpdates)
	mux.HandleFunc("/api/updates/check", srv.handleUpdatesCheck)
	mux.HandleFunc("/api/updates/games/", srv.handleUpdatesGameCheck)
	mux.HandleFunc("/api/updates/", srv.handleUpdateItem)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.Response{Success: true, Data: payload}); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(api.Response{Success: false, Error: message}); err != nil {
		s.logger.Error("failed to encode error response", logging.Error(err))
	}
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	s.writeError(w, services.HTTPStatus(err), err.Error())
}

func (s *apiServer) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func pathID(path, prefix string) (int64, bool) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || strings.Contains(rest, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := s.daemon.deps.Store.GameStats(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	games := make(map[string]int, len(stats))
	for status, count := range stats {
		games[string(status)] = count
	}
	var tasks []scheduler.TaskState
	if s.daemon.deps.Scheduler != nil {
		tasks = s.daemon.deps.Scheduler.States()
	}
	s.writeJSON(w, http.StatusOK, api.Status{
		Running:      s.daemon.Running(),
		PID:          os.Getpid(),
		DatabasePath: s.daemon.deps.Store.Path(),
		LockPath:     s.daemon.LockPath(),
		Tasks:        tasks,
		Games:        games,
	})
}

type gameRequest struct {
	IGDBID       int64    `json:"igdbId"`
	Title        string   `json:"title"`
	Platform     string   `json:"platform"`
	Monitored    *bool    `json:"monitored"`
	Tags         []string `json:"tags"`
	LibraryID    *int64   `json:"libraryId"`
	UpdatePolicy string   `json:"updatePolicy"`
}

func (s *apiServer) handleGames(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var statuses []store.GameStatus
		for _, value := range r.URL.Query()["status"] {
			status, ok := store.ParseGameStatus(value)
			if !ok {
				s.writeError(w, http.StatusBadRequest, "unknown game status: "+value)
				return
			}
			statuses = append(statuses, status)
		}
		games, err := s.daemon.deps.Store.ListGames(r.Context(), statuses...)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		out := make([]api.Game, 0, len(games))
		for _, game := range games {
			out = append(out, api.FromGame(game, nil))
		}
		s.writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req gameRequest
		if !s.decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			s.writeError(w, http.StatusBadRequest, "title is required")
			return
		}
		policy := store.UpdatePolicy(req.UpdatePolicy)
		if req.UpdatePolicy == "" {
			policy = store.UpdatePolicy(s.daemon.cfg.Updates.DefaultPolicy)
		} else if _, ok := store.ParseUpdatePolicy(req.UpdatePolicy); !ok {
			s.writeError(w, http.StatusBadRequest, "unknown update policy: "+req.UpdatePolicy)
			return
		}
		monitored := true
		if req.Monitored != nil {
			monitored = *req.Monitored
		}
		game, err := s.daemon.deps.Store.CreateGame(r.Context(), &store.Game{
			IGDBID:       req.IGDBID,
			Title:        req.Title,
			Platform:     req.Platform,
			Status:       store.GameWanted,
			Monitored:    monitored,
			Tags:         req.Tags,
			LibraryID:    req.LibraryID,
			UpdatePolicy: policy,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.FromGame(game, nil))

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleGameItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/games/")

	if strings.HasSuffix(rest, "/policy") {
		s.handleGamePolicy(w, r, strings.TrimSuffix(rest, "/policy"))
		return
	}
	if strings.HasSuffix(rest, "/folders/primary") {
		s.handleSetPrimary(w, r, strings.TrimSuffix(rest, "/folders/primary"))
		return
	}

	id, ok := pathID(r.URL.Path, "/api/games/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		game, err := s.daemon.deps.Store.GetGame(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if game == nil {
			s.writeError(w, http.StatusNotFound, "game not found")
			return
		}
		folders, err := s.daemon.deps.Store.FoldersForGame(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromGame(game, folders))

	case http.MethodPut:
		var req gameRequest
		if !s.decode(w, r, &req) {
			return
		}
		game, err := s.daemon.deps.Store.GetGame(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if game == nil {
			s.writeError(w, http.StatusNotFound, "game not found")
			return
		}
		if req.Title != "" {
			game.Title = req.Title
		}
		if req.Platform != "" {
			game.Platform = req.Platform
		}
		if req.Monitored != nil {
			game.Monitored = *req.Monitored
		}
		if req.Tags != nil {
			game.Tags = req.Tags
		}
		if req.LibraryID != nil {
			game.LibraryID = req.LibraryID
		}
		if err := s.daemon.deps.Store.UpdateGame(r.Context(), game); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromGame(game, nil))

	case http.MethodDelete:
		deleted, err := s.daemon.deps.Store.DeleteGame(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if !deleted {
			s.writeError(w, http.StatusNotFound, "game not found")
			return
		}
		s.writeJSON(w, http.StatusOK, nil)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleGamePolicy(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPut {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	var req struct {
		Policy string `json:"policy"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	policy, ok := store.ParseUpdatePolicy(req.Policy)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown update policy: "+req.Policy)
		return
	}
	game, err := s.daemon.deps.Store.GetGame(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if game == nil {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	game.UpdatePolicy = policy
	if err := s.daemon.deps.Store.UpdateGame(r.Context(), game); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromGame(game, nil))
}

func (s *apiServer) handleSetPrimary(w http.ResponseWriter, r *http.Request, idStr string) {
	if r.Method != http.MethodPut {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	gameID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	var req struct {
		FolderID int64 `json:"folderId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.daemon.deps.Engine.SetPrimary(r.Context(), gameID, req.FolderID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *apiServer) handleLibraries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		libs, err := s.daemon.deps.Store.ListLibraries(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		out := make([]api.Library, 0, len(libs))
		for _, lib := range libs {
			out = append(out, api.FromLibrary(lib))
		}
		s.writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req api.Library
		if !s.decode(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Path) == "" {
			s.writeError(w, http.StatusBadRequest, "name and path are required")
			return
		}
		lib, err := s.daemon.deps.Store.CreateLibrary(r.Context(), &store.Library{
			Name:             req.Name,
			Path:             req.Path,
			Platform:         req.Platform,
			Monitored:        req.Monitored,
			DownloadEnabled:  req.DownloadEnabled,
			DownloadCategory: req.DownloadCategory,
			Priority:         req.Priority,
		})
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.FromLibrary(lib))

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleLibraryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id, ok := pathID(r.URL.Path, "/api/libraries/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "library not found")
		return
	}
	deleted, err := s.daemon.deps.Store.DeleteLibrary(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if !deleted {
		s.writeError(w, http.StatusNotFound, "library not found")
		return
	}
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *apiServer) classify(releases []indexer.Release) []api.Release {
	classified := release.Classify(releases)
	out := make([]api.Release, 0, len(classified))
	for _, rel := range classified {
		out = append(out, api.FromClassified(rel))
	}
	return out
}

func (s *apiServer) handleSearchReleases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	releases, err := s.daemon.deps.Gateway.Search(r.Context(), indexer.Query{Text: query})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.classify(releases))
}

func (s *apiServer) handleSearchReleasesForGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	gameID, ok := pathID(r.URL.Path, "/api/search/releases/")
	if !ok {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	game, err := s.daemon.deps.Store.GetGame(r.Context(), gameID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if game == nil {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	releases, err := s.daemon.deps.Gateway.Search(r.Context(), indexer.Query{Text: game.Title})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.classify(releases))
}

func (s *apiServer) handleGrab(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		GameID  int64            `json:"gameId"`
		Release api.ReleaseInput `json:"release"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Release.GUID == "" || req.Release.DownloadURL == "" {
		s.writeError(w, http.StatusBadRequest, "release guid and downloadUrl are required")
		return
	}
	grabbed, err := s.daemon.deps.Coordinator.Grab(r.Context(), req.GameID, release.ClassifyOne(indexer.Release{
		GUID:        req.Release.GUID,
		Title:       req.Release.Title,
		Indexer:     req.Release.Indexer,
		Size:        req.Release.Size,
		Seeders:     req.Release.Seeders,
		Categories:  req.Release.Categories,
		PublishedAt: req.Release.PublishedAt,
		DownloadURL: req.Release.DownloadURL,
	}))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.FromGrab(grabbed))
}

func (s *apiServer) handleDownloads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	downloads, err := s.daemon.deps.Adapter.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.Download, 0, len(downloads))
	for _, d := range downloads {
		var gameID *int64
		if grab, err := s.daemon.deps.Store.FindGrabByHash(r.Context(), d.Hash); err == nil && grab != nil {
			gameID = &grab.GameID
		}
		out = append(out, api.FromDownload(d, gameID))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleDownloadHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.daemon.deps.Store.ListHistory(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		grab, err := s.daemon.deps.Store.GetGrab(r.Context(), entry.ReleaseID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		out = append(out, api.FromHistory(entry, grab))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleDownloadItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/downloads/")
	hash, action, _ := strings.Cut(rest, "/")
	if hash == "" {
		s.writeError(w, http.StatusNotFound, "download not found")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		deleteFiles := r.URL.Query().Get("deleteFiles") == "true"
		if err := s.daemon.deps.Adapter.Cancel(r.Context(), hash, deleteFiles); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)

	case action == "pause" && r.Method == http.MethodPost:
		if err := s.daemon.deps.Adapter.Pause(r.Context(), hash); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)

	case action == "resume" && r.Method == http.MethodPost:
		if err := s.daemon.deps.Adapter.Resume(r.Context(), hash); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)

	case action == "import" && r.Method == http.MethodPost:
		s.handleDownloadImport(w, r, hash)

	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleDownloadImport attaches an orphan transfer to a game by hand. The
// reconciler never touches downloads without a grab record, so this is the
// operator's path for externally added transfers.
func (s *apiServer) handleDownloadImport(w http.ResponseWriter, r *http.Request, hash string) {
	var req struct {
		GameID int64 `json:"gameId"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	downloads, err := s.daemon.deps.Adapter.List(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	for _, d := range downloads {
		if d.Hash != hash {
			continue
		}
		path := d.SavePath
		if d.Name != "" {
			path = path + "/" + d.Name
		}
		folder, err := s.daemon.deps.Engine.ImportDownload(r.Context(), req.GameID, path,
			release.ParseVersion(d.Name), "")
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromFolder(folder))
		return
	}
	s.writeError(w, http.StatusNotFound, "download not found")
}

func (s *apiServer) handleLibraryScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	report, err := s.daemon.deps.Engine.Scan(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *apiServer) handleAutoMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		EntryID int64 `json:"entryId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	game, err := s.daemon.deps.Engine.AutoMatch(r.Context(), req.EntryID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromGame(game, nil))
}

func (s *apiServer) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		EntryID   int64         `json:"entryId"`
		Candidate api.Candidate `json:"candidate"`
		Tags      []string      `json:"tags"`
		LibraryID *int64        `json:"libraryId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.Candidate.ID == 0 || req.Candidate.Title == "" {
		s.writeError(w, http.StatusBadRequest, "candidate id and title are required")
		return
	}
	game, err := s.daemon.deps.Engine.Match(r.Context(), library.MatchRequest{
		EntryID:   req.EntryID,
		Candidate: req.Candidate,
		Tags:      req.Tags,
		LibraryID: req.LibraryID,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromGame(game, nil))
}

func (s *apiServer) handleUnmatched(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	entries, err := s.daemon.deps.Store.ListUnmatchedScanEntries(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.ScanEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, api.FromScanEntry(entry))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleUpdates(w http.ResponseWriter, r *http.Request) {
	// POST triggers the batch check, same as /api/updates/check
	if r.Method == http.MethodPost {
		s.handleUpdatesCheck(w, r)
		return
	}
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []store.UpdateStatus
	for _, value := range r.URL.Query()["status"] {
		statuses = append(statuses, store.UpdateStatus(strings.TrimSpace(value)))
	}
	updates, err := s.daemon.deps.Store.ListUpdates(r.Context(), statuses...)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	out := make([]api.Update, 0, len(updates))
	for _, update := range updates {
		out = append(out, api.FromUpdate(update))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleUpdatesCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	report, err := s.daemon.deps.Detector.CheckAll(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *apiServer) handleUpdatesGameCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/updates/games/")
	idStr, action, _ := strings.Cut(rest, "/")
	if action != "check" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	gameID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "game not found")
		return
	}
	found, err := s.daemon.deps.Detector.CheckForUpdates(r.Context(), gameID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"updatesFound": found})
}

func (s *apiServer) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/updates/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "update not found")
		return
	}

	switch action {
	case "grab":
		grabbed, err := s.daemon.deps.Dispatcher.GrabUpdate(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.FromGrab(grabbed))
	case "dismiss":
		if err := s.daemon.deps.Dispatcher.DismissUpdate(r.Context(), id); err != nil {
			s.writeServiceError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nil)
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}
