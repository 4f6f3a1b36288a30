// Package api defines the JSON surface shared by the daemon and the CLI.
package api

import (
	"time"

	"ludo/internal/downloader"
	"ludo/internal/metadata"
	"ludo/internal/release"
	"ludo/internal/scheduler"
	"ludo/internal/store"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Game mirrors a catalog record.
type Game struct {
	ID               int64    `json:"id"`
	IGDBID           int64    `json:"igdbId"`
	Title            string   `json:"title"`
	Platform         string   `json:"platform"`
	Status           string   `json:"status"`
	Monitored        bool     `json:"monitored"`
	Tags             []string `json:"tags,omitempty"`
	LibraryID        *int64   `json:"libraryId,omitempty"`
	InstalledVersion string   `json:"installedVersion,omitempty"`
	InstalledQuality string   `json:"installedQuality,omitempty"`
	UpdatePolicy     string   `json:"updatePolicy"`
	Folders          []Folder `json:"folders,omitempty"`
}

// Folder mirrors an on-disk location of a game.
type Folder struct {
	ID         int64     `json:"id"`
	GameID     int64     `json:"gameId"`
	Path       string    `json:"path"`
	IsPrimary  bool      `json:"isPrimary"`
	Version    string    `json:"version,omitempty"`
	Quality    string    `json:"quality,omitempty"`
	AddedAt    time.Time `json:"addedAt"`
}

// Library mirrors a configured library root.
type Library struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Path             string `json:"path"`
	Platform         string `json:"platform,omitempty"`
	Monitored        bool   `json:"monitored"`
	DownloadEnabled  bool   `json:"downloadEnabled"`
	DownloadCategory string `json:"downloadCategory,omitempty"`
	Priority         int    `json:"priority"`
}

// Release is a classified search result.
type Release struct {
	GUID         string    `json:"guid"`
	Title        string    `json:"title"`
	Indexer      string    `json:"indexer"`
	Size         int64     `json:"size"`
	Seeders      int       `json:"seeders"`
	Categories   []int     `json:"categories,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
	DownloadURL  string    `json:"downloadUrl"`
	Quality      string    `json:"quality,omitempty"`
	CategoryName string    `json:"categoryName,omitempty"`
	Health       string    `json:"health"`
	Version      string    `json:"version,omitempty"`
	IsDLC        bool      `json:"isDlc"`
}

// Grab mirrors a grab attempt.
type Grab struct {
	ID        int64     `json:"id"`
	GameID    int64     `json:"gameId"`
	GUID      string    `json:"guid"`
	Title     string    `json:"title"`
	Indexer   string    `json:"indexer"`
	Quality   string    `json:"quality,omitempty"`
	Size      int64     `json:"size"`
	Status    string    `json:"status"`
	Hash      string    `json:"hash,omitempty"`
	GrabbedAt time.Time `json:"grabbedAt"`
}

// Download is a live transfer, linked to its game once reconciled.
type Download struct {
	Hash          string  `json:"hash"`
	Name          string  `json:"name"`
	Size          int64   `json:"size"`
	Progress      float64 `json:"progress"`
	DownloadSpeed int64   `json:"downloadSpeed"`
	UploadSpeed   int64   `json:"uploadSpeed"`
	ETA           int64   `json:"eta"`
	State         string  `json:"state"`
	SavePath      string  `json:"savePath"`
	GameID        *int64  `json:"gameId,omitempty"`
}

// HistoryEntry mirrors one download history row with grab metadata attached.
type HistoryEntry struct {
	ID          int64      `json:"id"`
	ReleaseID   int64      `json:"releaseId"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	GameID      int64      `json:"gameId,omitempty"`
	Title       string     `json:"title,omitempty"`
	Indexer     string     `json:"indexer,omitempty"`
}

// Update mirrors a detected update candidate.
type Update struct {
	ID          int64     `json:"id"`
	GameID      int64     `json:"gameId"`
	UpdateType  string    `json:"updateType"`
	Title       string    `json:"title"`
	Version     string    `json:"version,omitempty"`
	Size        int64     `json:"size"`
	Quality     string    `json:"quality,omitempty"`
	Seeders     int       `json:"seeders"`
	DownloadURL string    `json:"downloadUrl"`
	Indexer     string    `json:"indexer"`
	DetectedAt  time.Time `json:"detectedAt"`
	Status      string    `json:"status"`
}

// ScanEntry mirrors a scanned folder awaiting resolution.
type ScanEntry struct {
	ID          int64     `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	ParsedTitle string    `json:"parsedTitle"`
	ParsedYear  int       `json:"parsedYear,omitempty"`
	State       string    `json:"state"`
	ScannedAt   time.Time `json:"scannedAt"`
}

// Candidate mirrors a metadata search result.
type Candidate = metadata.Candidate

// Status is the daemon status payload.
type Status struct {
	Running      bool                  `json:"running"`
	PID          int                   `json:"pid"`
	DatabasePath string                `json:"databasePath"`
	LockPath     string                `json:"lockPath"`
	Tasks        []scheduler.TaskState `json:"tasks"`
	Games        map[string]int        `json:"games"`
}

// FromGame converts a store game, optionally with its folders.
func FromGame(game *store.Game, folders []*store.Folder) Game {
	out := Game{
		ID:               game.ID,
		IGDBID:           game.IGDBID,
		Title:            game.Title,
		Platform:         game.Platform,
		Status:           string(game.Status),
		Monitored:        game.Monitored,
		Tags:             game.Tags,
		LibraryID:        game.LibraryID,
		InstalledVersion: game.InstalledVersion,
		InstalledQuality: game.InstalledQuality,
		UpdatePolicy:     string(game.UpdatePolicy),
	}
	for _, folder := range folders {
		out.Folders = append(out.Folders, FromFolder(folder))
	}
	return out
}

// FromFolder converts a store folder.
func FromFolder(folder *store.Folder) Folder {
	return Folder{
		ID:        folder.ID,
		GameID:    folder.GameID,
		Path:      folder.FolderPath,
		IsPrimary: folder.IsPrimary,
		Version:   folder.Version,
		Quality:   folder.Quality,
		AddedAt:   folder.AddedAt,
	}
}

// FromLibrary converts a store library.
func FromLibrary(lib *store.Library) Library {
	return Library{
		ID:               lib.ID,
		Name:             lib.Name,
		Path:             lib.Path,
		Platform:         lib.Platform,
		Monitored:        lib.Monitored,
		DownloadEnabled:  lib.DownloadEnabled,
		DownloadCategory: lib.DownloadCategory,
		Priority:         lib.Priority,
	}
}

// FromClassified converts a classified release.
func FromClassified(rel release.Classified) Release {
	return Release{
		GUID:         rel.GUID,
		Title:        rel.Title,
		Indexer:      rel.Indexer,
		Size:         rel.Size,
		Seeders:      rel.Seeders,
		Categories:   rel.Categories,
		PublishedAt:  rel.PublishedAt,
		DownloadURL:  rel.DownloadURL,
		Quality:      rel.Quality,
		CategoryName: rel.CategoryName,
		Health:       string(rel.Health),
		Version:      rel.Version,
		IsDLC:        rel.IsDLC,
	}
}

// FromGrab converts a grab record.
func FromGrab(grab *store.GrabbedRelease) Grab {
	return Grab{
		ID:        grab.ID,
		GameID:    grab.GameID,
		GUID:      grab.GUID,
		Title:     grab.Title,
		Indexer:   grab.Indexer,
		Quality:   grab.Quality,
		Size:      grab.Size,
		Status:    string(grab.Status),
		Hash:      grab.Hash,
		GrabbedAt: grab.GrabbedAt,
	}
}

// FromDownload converts a live transfer, linking the owning game when known.
func FromDownload(d downloader.Download, gameID *int64) Download {
	return Download{
		Hash:          d.Hash,
		Name:          d.Name,
		Size:          d.Size,
		Progress:      d.Progress,
		DownloadSpeed: d.DownloadSpeed,
		UploadSpeed:   d.UploadSpeed,
		ETA:           d.ETA,
		State:         d.State,
		SavePath:      d.SavePath,
		GameID:        gameID,
	}
}

// FromHistory converts a history row, attaching grab metadata when present.
func FromHistory(entry *store.DownloadHistoryEntry, grab *store.GrabbedRelease) HistoryEntry {
	out := HistoryEntry{
		ID:          entry.ID,
		ReleaseID:   entry.ReleaseID,
		Status:      string(entry.Status),
		Progress:    entry.Progress,
		CompletedAt: entry.CompletedAt,
	}
	if grab != nil {
		out.GameID = grab.GameID
		out.Title = grab.Title
		out.Indexer = grab.Indexer
	}
	return out
}

// FromUpdate converts an update candidate.
func FromUpdate(update *store.GameUpdate) Update {
	return Update{
		ID:          update.ID,
		GameID:      update.GameID,
		UpdateType:  string(update.UpdateType),
		Title:       update.Title,
		Version:     update.Version,
		Size:        update.Size,
		Quality:     update.Quality,
		Seeders:     update.Seeders,
		DownloadURL: update.DownloadURL,
		Indexer:     update.Indexer,
		DetectedAt:  update.DetectedAt,
		Status:      string(update.Status),
	}
}

// FromScanEntry converts a scan entry.
func FromScanEntry(entry *store.ScanEntry) ScanEntry {
	return ScanEntry{
		ID:          entry.ID,
		Path:        entry.Path,
		Name:        entry.Name,
		ParsedTitle: entry.ParsedTitle,
		ParsedYear:  entry.ParsedYear,
		State:       string(entry.State),
		ScannedAt:   entry.ScannedAt,
	}
}

// ReleaseInput is the raw release shape accepted by grab requests.
type ReleaseInput struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Indexer     string    `json:"indexer"`
	Size        int64     `json:"size"`
	Seeders     int       `json:"seeders"`
	Categories  []int     `json:"categories,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
	DownloadURL string    `json:"downloadUrl"`
}
