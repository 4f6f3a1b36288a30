package reconcile

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"ludo/internal/downloader"
	"ludo/internal/logging"
	"ludo/internal/notifications"
	"ludo/internal/release"
	"ludo/internal/store"
)

// Importer is the slice of the library engine the reconciler drives on
// completion.
type Importer interface {
	ImportDownload(ctx context.Context, gameID int64, path, version, quality string) (*store.Folder, error)
}

// Report summarizes one reconcile pass.
type Report struct {
	Tracked   int `json:"tracked"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Orphans   int `json:"orphans"`
}

// Reconciler polls the download client and advances grab and history state.
// It is the sole writer of download-derived progress.
type Reconciler struct {
	store    *store.Store
	adapter  downloader.Adapter
	importer Importer
	notifier notifications.Service
	logger   *slog.Logger
}

// New wires a reconciler.
func New(st *store.Store, adapter downloader.Adapter, importer Importer, notifier notifications.Service, logger *slog.Logger) *Reconciler {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{
		store:    st,
		adapter:  adapter,
		importer: importer,
		notifier: notifier,
		logger:   logger.With(logging.String("component", "reconcile")),
	}
}

// Run performs one reconcile pass. An unreachable download client aborts the
// pass with the adapter error; nothing is marked failed on a missed poll.
// Downloads with no matching grab are counted and left alone.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	var report Report

	downloads, err := r.adapter.List(ctx)
	if err != nil {
		return report, err
	}

	for _, d := range downloads {
		grab, err := r.store.FindGrabByHash(ctx, d.Hash)
		if err != nil {
			return report, err
		}
		if grab == nil {
			report.Orphans++
			continue
		}
		report.Tracked++

		if err := r.reconcileOne(ctx, grab, d, &report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, grab *store.GrabbedRelease, d downloader.Download, report *Report) error {
	hist, err := r.historyFor(ctx, grab)
	if err != nil {
		return err
	}

	switch {
	case d.Completed():
		report.Completed++
		return r.complete(ctx, grab, d, hist)
	case d.Failed():
		report.Failed++
		return r.fail(ctx, grab, d, hist)
	default:
		return r.store.UpdateHistoryProgress(ctx, hist.ID, d.Progress*100, store.GrabDownloading)
	}
}

func (r *Reconciler) historyFor(ctx context.Context, grab *store.GrabbedRelease) (*store.DownloadHistoryEntry, error) {
	hist, err := r.store.HistoryForRelease(ctx, grab.ID)
	if err != nil {
		return nil, err
	}
	if hist == nil {
		return r.store.CreateHistoryEntry(ctx, grab.ID, store.GrabDownloading)
	}
	return hist, nil
}

func (r *Reconciler) complete(ctx context.Context, grab *store.GrabbedRelease, d downloader.Download, hist *store.DownloadHistoryEntry) error {
	if err := r.store.CompleteHistoryEntry(ctx, hist.ID, store.GrabCompleted, time.Now().UTC()); err != nil {
		return err
	}
	if err := r.store.SetGrabStatus(ctx, grab.ID, store.GrabCompleted, grab.Hash); err != nil {
		return err
	}

	path := d.SavePath
	if d.Name != "" {
		path = filepath.Join(d.SavePath, d.Name)
	}
	version := release.ParseVersion(grab.Title)
	if _, err := r.importer.ImportDownload(ctx, grab.GameID, path, version, grab.Quality); err != nil {
		return err
	}

	r.logger.Info("download completed",
		logging.Int64("game_id", grab.GameID),
		logging.String("title", grab.Title),
		logging.String("hash", grab.Hash))
	if game, err := r.store.GetGame(ctx, grab.GameID); err == nil && game != nil {
		r.notifier.DownloadCompleted(ctx, game.Title)
	}
	return nil
}

// fail marks the grab and its history failed but never retries on its own.
// The game stays downloading while other grabs are in flight; once none
// remain it falls back to downloaded when it has a folder on disk, else
// wanted.
func (r *Reconciler) fail(ctx context.Context, grab *store.GrabbedRelease, d downloader.Download, hist *store.DownloadHistoryEntry) error {
	if err := r.store.UpdateHistoryProgress(ctx, hist.ID, d.Progress*100, store.GrabFailed); err != nil {
		return err
	}
	if err := r.store.SetGrabStatus(ctx, grab.ID, store.GrabFailed, grab.Hash); err != nil {
		return err
	}

	active, err := r.store.CountActiveGrabs(ctx, grab.GameID)
	if err != nil {
		return err
	}
	if active == 0 {
		folders, err := r.store.FoldersForGame(ctx, grab.GameID)
		if err != nil {
			return err
		}
		status := store.GameWanted
		if len(folders) > 0 {
			status = store.GameDownloaded
		}
		if err := r.store.SetGameStatus(ctx, grab.GameID, status); err != nil {
			return err
		}
	}

	r.logger.Warn("download failed",
		logging.Int64("game_id", grab.GameID),
		logging.String("title", grab.Title),
		logging.String("state", d.State))
	if game, err := r.store.GetGame(ctx, grab.GameID); err == nil && game != nil {
		r.notifier.DownloadFailed(ctx, game.Title, d.State)
	}
	return nil
}
