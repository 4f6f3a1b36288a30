package grab

import (
	"context"
	"log/slog"

	"ludo/internal/config"
	"ludo/internal/downloader"
	"ludo/internal/logging"
	"ludo/internal/notifications"
	"ludo/internal/release"
	"ludo/internal/services"
	"ludo/internal/store"
)

// Coordinator turns a chosen release into a tracked download. It records the
// grab before contacting the download client so the duplicate guard holds
// across concurrent requests.
type Coordinator struct {
	store    *store.Store
	adapter  downloader.Adapter
	notifier notifications.Service
	logger   *slog.Logger

	defaultCategory string
	savePath        string
}

// NewCoordinator wires a grab coordinator.
func NewCoordinator(st *store.Store, adapter downloader.Adapter, notifier notifications.Service, cfg config.DownloadClient, logger *slog.Logger) *Coordinator {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		store:           st,
		adapter:         adapter,
		notifier:        notifier,
		logger:          logger.With(logging.String("component", "grab")),
		defaultCategory: cfg.DefaultCategory,
		savePath:        cfg.SavePath,
	}
}

// Grab records and submits one release for a game.
//
// The pending row is inserted first; if an equivalent grab is already in
// flight the store reports ErrDuplicateGrab and the download client is never
// contacted. When submission fails the grab is marked failed and the game's
// status is left untouched.
func (c *Coordinator) Grab(ctx context.Context, gameID int64, rel release.Classified) (*store.GrabbedRelease, error) {
	game, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, services.Wrap(services.ErrNotFound, "grab", "grab", "game not found", nil)
	}

	grab, err := c.store.InsertGrab(ctx, &store.GrabbedRelease{
		GameID:  gameID,
		GUID:    rel.GUID,
		Title:   rel.Title,
		Indexer: rel.Indexer,
		Quality: rel.Quality,
		Size:    rel.Size,
		Status:  store.GrabPending,
	})
	if err != nil {
		return nil, err
	}

	category, err := c.resolveCategory(ctx, game)
	if err != nil {
		c.failGrab(ctx, grab.ID)
		return nil, err
	}

	hash, err := c.adapter.Add(ctx, rel.DownloadURL, category, c.savePath)
	if err != nil {
		c.failGrab(ctx, grab.ID)
		c.logger.Error("release submission failed",
			logging.Int64("game_id", gameID),
			logging.String("guid", rel.GUID),
			logging.Error(err))
		return nil, err
	}

	if err := c.store.SetGrabStatus(ctx, grab.ID, store.GrabDownloading, hash); err != nil {
		return nil, err
	}
	if err := c.store.SetGameStatus(ctx, gameID, store.GameDownloading); err != nil {
		return nil, err
	}
	if _, err := c.store.CreateHistoryEntry(ctx, grab.ID, store.GrabDownloading); err != nil {
		return nil, err
	}

	c.logger.Info("release grabbed",
		logging.Int64("game_id", gameID),
		logging.String("title", rel.Title),
		logging.String("hash", hash))
	c.notifier.GrabStarted(ctx, game.Title, rel.Title)

	grab.Status = store.GrabDownloading
	grab.Hash = hash
	return grab, nil
}

// resolveCategory prefers the game's library category over the configured
// default.
func (c *Coordinator) resolveCategory(ctx context.Context, game *store.Game) (string, error) {
	if game.LibraryID == nil {
		return c.defaultCategory, nil
	}
	lib, err := c.store.GetLibrary(ctx, *game.LibraryID)
	if err != nil {
		return "", err
	}
	if lib == nil || lib.DownloadCategory == "" {
		return c.defaultCategory, nil
	}
	return lib.DownloadCategory, nil
}

func (c *Coordinator) failGrab(ctx context.Context, grabID int64) {
	if err := c.store.SetGrabStatus(ctx, grabID, store.GrabFailed, ""); err != nil {
		c.logger.Error("mark grab failed", logging.Int64("grab_id", grabID), logging.Error(err))
	}
}
