package store

import (
	"strings"
	"time"
)

// GameStatus represents the acquisition lifecycle of a game.
type GameStatus string

const (
	GameWanted      GameStatus = "wanted"
	GameDownloading GameStatus = "downloading"
	GameDownloaded  GameStatus = "downloaded"
)

var gameStatuses = map[GameStatus]struct{}{
	GameWanted:      {},
	GameDownloading: {},
	GameDownloaded:  {},
}

// ParseGameStatus converts a string into a known GameStatus.
func ParseGameStatus(value string) (GameStatus, bool) {
	normalized := GameStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := gameStatuses[normalized]
	return normalized, ok
}

// UpdatePolicy controls how detected updates are handled for a game.
type UpdatePolicy string

const (
	PolicyNotify UpdatePolicy = "notify"
	PolicyAuto   UpdatePolicy = "auto"
	PolicyIgnore UpdatePolicy = "ignore"
)

var updatePolicies = map[UpdatePolicy]struct{}{
	PolicyNotify: {},
	PolicyAuto:   {},
	PolicyIgnore: {},
}

// ParseUpdatePolicy converts a string into a known UpdatePolicy.
func ParseUpdatePolicy(value string) (UpdatePolicy, bool) {
	normalized := UpdatePolicy(strings.ToLower(strings.TrimSpace(value)))
	_, ok := updatePolicies[normalized]
	return normalized, ok
}

// GrabStatus represents the lifecycle of a grab attempt.
type GrabStatus string

const (
	GrabPending     GrabStatus = "pending"
	GrabDownloading GrabStatus = "downloading"
	GrabCompleted   GrabStatus = "completed"
	GrabFailed      GrabStatus = "failed"
)

// IsTerminal reports whether a grab can no longer change state.
func (s GrabStatus) IsTerminal() bool {
	return s == GrabCompleted || s == GrabFailed
}

// UpdateType classifies what a detected update offers.
type UpdateType string

const (
	UpdateVersion       UpdateType = "version"
	UpdateDLC           UpdateType = "dlc"
	UpdateBetterRelease UpdateType = "better_release"
)

// UpdateStatus represents the lifecycle of a detected update.
type UpdateStatus string

const (
	UpdatePending   UpdateStatus = "pending"
	UpdateGrabbed   UpdateStatus = "grabbed"
	UpdateDismissed UpdateStatus = "dismissed"
)

// ScanState represents the resolution state of a scanned folder.
type ScanState string

const (
	ScanUnmatched ScanState = "unmatched"
	ScanMatched   ScanState = "matched"
)

// Game is a cataloged game record.
type Game struct {
	ID               int64
	IGDBID           int64
	Title            string
	Platform         string
	Status           GameStatus
	Monitored        bool
	Tags             []string
	LibraryID        *int64
	InstalledVersion string
	InstalledQuality string
	UpdatePolicy     UpdatePolicy
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Library is a root folder games can belong to.
type Library struct {
	ID               int64
	Name             string
	Path             string
	Platform         string
	Monitored        bool
	DownloadEnabled  bool
	DownloadCategory string
	Priority         int
	CreatedAt        time.Time
}

// Folder is an on-disk location attached to a game. At most one folder per
// game may be primary; the primary folder drives the game's displayed
// version and quality.
type Folder struct {
	ID         int64
	GameID     int64
	FolderPath string
	IsPrimary  bool
	Version    string
	Quality    string
	AddedAt    time.Time
}

// GrabbedRelease is one grab attempt for a release. The (GameID, GUID) pair
// may have at most one row in a non-terminal status at a time.
type GrabbedRelease struct {
	ID        int64
	GameID    int64
	GUID      string
	Title     string
	Indexer   string
	Quality   string
	Size      int64
	Status    GrabStatus
	Hash      string
	GrabbedAt time.Time
	UpdatedAt time.Time
}

// DownloadHistoryEntry tracks transfer progress for one grab.
type DownloadHistoryEntry struct {
	ID          int64
	ReleaseID   int64
	Status      GrabStatus
	Progress    float64
	CompletedAt *time.Time
}

// GameUpdate is a detected update candidate for an owned game. Never
// duplicated for the same (GameID, DownloadURL) while pending.
type GameUpdate struct {
	ID          int64
	GameID      int64
	UpdateType  UpdateType
	Title       string
	Version     string
	Size        int64
	Quality     string
	Seeders     int
	DownloadURL string
	Indexer     string
	DetectedAt  time.Time
	Status      UpdateStatus
}

// ScanEntry is a scanned folder awaiting (or past) resolution to a game.
type ScanEntry struct {
	ID          int64
	Path        string
	Name        string
	ParsedTitle string
	ParsedYear  int
	State       ScanState
	GameID      *int64
	ScannedAt   time.Time
}
