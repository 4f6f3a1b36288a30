package updates

import (
	"context"
	"log/slog"

	"ludo/internal/indexer"
	"ludo/internal/logging"
	"ludo/internal/release"
	"ludo/internal/services"
	"ludo/internal/store"
)

// Report summarizes a batch update check.
type Report struct {
	Checked      int `json:"checked"`
	UpdatesFound int `json:"updatesFound"`
}

// Detector searches the indexer for updates to downloaded games and records
// them as update candidates. Re-running a check is idempotent: the store's
// (game, download url) pending guard absorbs repeats.
type Detector struct {
	store      *store.Store
	gateway    indexer.Gateway
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewDetector wires an update detector. The dispatcher may be nil, in which
// case detected updates simply stay pending.
func NewDetector(st *store.Store, gateway indexer.Gateway, dispatcher *Dispatcher, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{
		store:      st,
		gateway:    gateway,
		dispatcher: dispatcher,
		logger:     logger.With(logging.String("component", "updates")),
	}
}

// CheckForUpdates searches for updates to one game and returns how many new
// candidates were recorded. A direct check runs regardless of the game's
// policy or monitored flag; only the batch pass filters on those.
func (d *Detector) CheckForUpdates(ctx context.Context, gameID int64) (int, error) {
	game, err := d.store.GetGame(ctx, gameID)
	if err != nil {
		return 0, err
	}
	if game == nil {
		return 0, services.Wrap(services.ErrNotFound, "updates", "check", "game not found", nil)
	}
	if game.Status != store.GameDownloaded {
		return 0, services.Wrap(services.ErrInvalidState, "updates", "check", "game is not downloaded", nil)
	}
	return d.checkGame(ctx, game)
}

func (d *Detector) checkGame(ctx context.Context, game *store.Game) (int, error) {
	releases, err := d.gateway.Search(ctx, indexer.Query{Text: game.Title})
	if err != nil {
		return 0, err
	}

	found := 0
	for _, classified := range release.Classify(releases) {
		updateType, ok := d.classifyUpdate(ctx, game, classified)
		if !ok {
			continue
		}
		update, inserted, err := d.store.InsertUpdate(ctx, &store.GameUpdate{
			GameID:      game.ID,
			UpdateType:  updateType,
			Title:       classified.Title,
			Version:     classified.Version,
			Size:        classified.Size,
			Quality:     classified.Quality,
			Seeders:     classified.Seeders,
			DownloadURL: classified.DownloadURL,
			Indexer:     classified.Indexer,
			Status:      store.UpdatePending,
		})
		if err != nil {
			return found, err
		}
		if !inserted {
			continue
		}
		found++
		d.logger.Info("update detected",
			logging.Int64("game_id", game.ID),
			logging.String("type", string(updateType)),
			logging.String("title", classified.Title))
		if d.dispatcher != nil {
			d.dispatcher.Apply(ctx, game, update)
		}
	}
	return found, nil
}

// classifyUpdate decides whether a release improves on what is installed.
// DLC detection wins over version parsing because expansion titles often
// carry their own version tokens.
func (d *Detector) classifyUpdate(ctx context.Context, game *store.Game, rel release.Classified) (store.UpdateType, bool) {
	if rel.DownloadURL == "" {
		return "", false
	}

	if rel.IsDLC {
		return store.UpdateDLC, true
	}

	if rel.Version != "" && release.CompareVersions(rel.Version, game.InstalledVersion) > 0 {
		return store.UpdateVersion, true
	}

	if release.QualityRank(rel.Quality) > release.QualityRank(game.InstalledQuality) &&
		rel.Health != release.HealthRisky {
		better, err := d.hasBetterPending(ctx, game.ID, rel.Quality)
		if err != nil {
			d.logger.Warn("pending update lookup failed", logging.Error(err))
			return "", false
		}
		if !better {
			return store.UpdateBetterRelease, true
		}
	}
	return "", false
}

// hasBetterPending reports whether a pending better_release update of equal
// or higher quality already exists for the game.
func (d *Detector) hasBetterPending(ctx context.Context, gameID int64, quality string) (bool, error) {
	pending, err := d.store.PendingUpdatesForGame(ctx, gameID)
	if err != nil {
		return false, err
	}
	rank := release.QualityRank(quality)
	for _, u := range pending {
		if u.UpdateType == store.UpdateBetterRelease && release.QualityRank(u.Quality) >= rank {
			return true, nil
		}
	}
	return false, nil
}

// CheckAll runs the update check over every eligible game: monitored,
// downloaded, and not policy-ignored. An unreachable indexer skips the game
// for this pass rather than failing the batch.
func (d *Detector) CheckAll(ctx context.Context) (Report, error) {
	var report Report

	games, err := d.store.ListUpdateEligibleGames(ctx)
	if err != nil {
		return report, err
	}
	for _, game := range games {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		found, err := d.checkGame(ctx, game)
		if err != nil {
			if services.IsRetryable(err) {
				d.logger.Warn("indexer unavailable, skipping game",
					logging.Int64("game_id", game.ID), logging.Error(err))
				continue
			}
			return report, err
		}
		report.Checked++
		report.UpdatesFound += found
	}
	return report, nil
}
