package library

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"ludo/internal/logging"
	"ludo/internal/metadata"
	"ludo/internal/services"
	"ludo/internal/store"
	"ludo/internal/titles"
)

// DiscoveredFolder is one candidate folder produced by a scan source.
type DiscoveredFolder struct {
	Path    string
	Name    string
	Version string
}

// Source contributes folders to a library scan beyond the configured library
// roots, such as a Steam installation.
type Source interface {
	Discover(ctx context.Context) ([]DiscoveredFolder, error)
}

// ScanReport summarizes one scan pass.
type ScanReport struct {
	Scanned   int `json:"scanned"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Engine resolves on-disk folders and completed downloads to games. It owns
// the folder invariants: at most one primary folder per game, and folder
// deletion never promotes a replacement.
type Engine struct {
	store         *store.Store
	provider      metadata.Provider
	sources       []Source
	logger        *slog.Logger
	defaultPolicy store.UpdatePolicy
}

// NewEngine wires an import/match engine. Extra sources may be nil.
func NewEngine(st *store.Store, provider metadata.Provider, defaultPolicy store.UpdatePolicy, logger *slog.Logger, sources ...Source) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	if defaultPolicy == "" {
		defaultPolicy = store.PolicyNotify
	}
	return &Engine{
		store:         st,
		provider:      provider,
		sources:       sources,
		logger:        logger.With(logging.String("component", "library")),
		defaultPolicy: defaultPolicy,
	}
}

// Scan walks every monitored library root plus the extra sources, records
// each top-level folder as a scan entry, and attempts an automatic match for
// entries that are still unresolved. Metadata outages leave entries unmatched
// for the next pass instead of failing the scan.
func (e *Engine) Scan(ctx context.Context) (ScanReport, error) {
	var report ScanReport

	libs, err := e.store.ListLibraries(ctx)
	if err != nil {
		return report, err
	}
	for _, lib := range libs {
		if !lib.Monitored {
			continue
		}
		folders, err := readTopLevelDirs(lib.Path)
		if err != nil {
			e.logger.Warn("library root unreadable",
				logging.String("path", lib.Path), logging.Error(err))
			continue
		}
		for _, folder := range folders {
			e.scanOne(ctx, folder, &report)
		}
	}

	for _, source := range e.sources {
		discovered, err := source.Discover(ctx)
		if err != nil {
			e.logger.Warn("scan source failed", logging.Error(err))
			continue
		}
		for _, folder := range discovered {
			e.scanOne(ctx, folder, &report)
		}
	}
	return report, nil
}

func (e *Engine) scanOne(ctx context.Context, folder DiscoveredFolder, report *ScanReport) {
	report.Scanned++

	title, year := titles.ParseFolderName(folder.Name)
	entry, err := e.store.UpsertScanEntry(ctx, &store.ScanEntry{
		Path:        folder.Path,
		Name:        folder.Name,
		ParsedTitle: title,
		ParsedYear:  year,
	})
	if err != nil {
		e.logger.Error("record scan entry", logging.String("path", folder.Path), logging.Error(err))
		return
	}
	if entry.State == store.ScanMatched {
		report.Matched++
		return
	}

	if _, err := e.autoMatchEntry(ctx, entry, folder.Version); err != nil {
		report.Unmatched++
		if !services.IsRetryable(err) {
			e.logger.Debug("folder left unmatched",
				logging.String("name", folder.Name), logging.Error(err))
			return
		}
		e.logger.Warn("metadata unavailable during scan", logging.Error(err))
		return
	}
	report.Matched++
}

// AutoMatch resolves one unmatched scan entry against the metadata provider.
// It succeeds only on exactly one exact title-and-year candidate; zero or
// several candidates return ErrAmbiguousMatch and create nothing.
func (e *Engine) AutoMatch(ctx context.Context, entryID int64) (*store.Game, error) {
	entry, err := e.store.GetScanEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, services.Wrap(services.ErrNotFound, "library", "auto_match", "scan entry not found", nil)
	}
	if entry.State == store.ScanMatched {
		return nil, services.Wrap(services.ErrInvalidState, "library", "auto_match", "entry already matched", nil)
	}
	return e.autoMatchEntry(ctx, entry, "")
}

func (e *Engine) autoMatchEntry(ctx context.Context, entry *store.ScanEntry, version string) (*store.Game, error) {
	candidates, err := e.provider.Search(ctx, entry.ParsedTitle)
	if err != nil {
		return nil, err
	}

	var exact []metadata.Candidate
	for _, cand := range candidates {
		if !strings.EqualFold(cand.Title, entry.ParsedTitle) {
			continue
		}
		if entry.ParsedYear != 0 && cand.Year != 0 && cand.Year != entry.ParsedYear {
			continue
		}
		exact = append(exact, cand)
	}
	if len(exact) != 1 {
		return nil, services.Wrap(services.ErrAmbiguousMatch, "library", "auto_match",
			"no single exact candidate", nil)
	}
	return e.attach(ctx, entry, exact[0], nil, nil, version)
}

// MatchRequest is an explicit operator match of a scan entry to a candidate.
type MatchRequest struct {
	EntryID   int64
	Candidate metadata.Candidate
	Tags      []string
	LibraryID *int64
}

// Match applies an operator-chosen candidate to a scan entry, creating the
// game if it does not exist yet.
func (e *Engine) Match(ctx context.Context, req MatchRequest) (*store.Game, error) {
	entry, err := e.store.GetScanEntry(ctx, req.EntryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, services.Wrap(services.ErrNotFound, "library", "match", "scan entry not found", nil)
	}
	return e.attach(ctx, entry, req.Candidate, req.Tags, req.LibraryID, "")
}

// attach creates or reuses the game for a candidate, attaches the entry's
// folder, and marks the entry resolved.
func (e *Engine) attach(ctx context.Context, entry *store.ScanEntry, cand metadata.Candidate, tags []string, libraryID *int64, version string) (*store.Game, error) {
	game, err := e.store.FindGameByIGDBID(ctx, cand.ID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		platform := ""
		if len(cand.Platforms) > 0 {
			platform = cand.Platforms[0]
		}
		game, err = e.store.CreateGame(ctx, &store.Game{
			IGDBID:       cand.ID,
			Title:        cand.Title,
			Platform:     platform,
			Status:       store.GameDownloaded,
			Monitored:    true,
			Tags:         tags,
			LibraryID:    libraryID,
			UpdatePolicy: e.defaultPolicy,
		})
		if err != nil {
			return nil, err
		}
	}

	if _, err := e.AttachFolder(ctx, game.ID, entry.Path, version, ""); err != nil {
		return nil, err
	}
	if err := e.store.ResolveScanEntry(ctx, entry.ID, game.ID); err != nil {
		return nil, err
	}

	e.logger.Info("folder matched",
		logging.String("path", entry.Path),
		logging.Int64("game_id", game.ID),
		logging.String("title", game.Title))
	return e.store.GetGame(ctx, game.ID)
}

// AttachFolder records a folder for a game. The first folder of a game
// becomes primary and pushes its version/quality onto the game record.
func (e *Engine) AttachFolder(ctx context.Context, gameID int64, path, version, quality string) (*store.Folder, error) {
	existing, err := e.store.FoldersForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	for _, f := range existing {
		if f.FolderPath == path {
			return f, nil
		}
	}

	folder, err := e.store.CreateFolder(ctx, &store.Folder{
		GameID:     gameID,
		FolderPath: path,
		IsPrimary:  len(existing) == 0,
		Version:    version,
		Quality:    quality,
	})
	if err != nil {
		return nil, err
	}
	if folder.IsPrimary {
		if err := e.applyPrimary(ctx, gameID, folder); err != nil {
			return nil, err
		}
	}
	return folder, nil
}

// ImportDownload attaches a completed download's save path to its game and
// marks the game downloaded.
func (e *Engine) ImportDownload(ctx context.Context, gameID int64, path, version, quality string) (*store.Folder, error) {
	folder, err := e.AttachFolder(ctx, gameID, path, version, quality)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetGameStatus(ctx, gameID, store.GameDownloaded); err != nil {
		return nil, err
	}
	return folder, nil
}

// SetPrimary atomically moves the primary flag to folderID and refreshes the
// game's installed version/quality from it.
func (e *Engine) SetPrimary(ctx context.Context, gameID, folderID int64) error {
	if err := e.store.SetPrimaryFolder(ctx, gameID, folderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return services.Wrap(services.ErrNotFound, "library", "set_primary", "folder not found for game", nil)
		}
		return err
	}
	folder, err := e.store.GetFolder(ctx, folderID)
	if err != nil {
		return err
	}
	return e.applyPrimary(ctx, gameID, folder)
}

// applyPrimary copies the primary folder's version/quality to the game.
func (e *Engine) applyPrimary(ctx context.Context, gameID int64, folder *store.Folder) error {
	game, err := e.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return services.Wrap(services.ErrNotFound, "library", "set_primary", "game not found", nil)
	}
	game.InstalledVersion = folder.Version
	game.InstalledQuality = folder.Quality
	return e.store.UpdateGame(ctx, game)
}

// DeleteFolder removes the folder record only. Files on disk are never
// touched, and when the primary folder is deleted no sibling is promoted.
func (e *Engine) DeleteFolder(ctx context.Context, folderID int64) error {
	deleted, err := e.store.DeleteFolder(ctx, folderID)
	if err != nil {
		return err
	}
	if !deleted {
		return services.Wrap(services.ErrNotFound, "library", "delete_folder", "folder not found", nil)
	}
	return nil
}

func readTopLevelDirs(root string) ([]DiscoveredFolder, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var folders []DiscoveredFolder
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		folders = append(folders, DiscoveredFolder{
			Path: filepath.Join(root, entry.Name()),
			Name: entry.Name(),
		})
	}
	return folders, nil
}
