package updates

import (
	"context"
	"log/slog"

	"ludo/internal/indexer"
	"ludo/internal/logging"
	"ludo/internal/notifications"
	"ludo/internal/release"
	"ludo/internal/services"
	"ludo/internal/store"
)

// Grabber is the slice of the grab coordinator the dispatcher invokes for
// auto-policy games.
type Grabber interface {
	Grab(ctx context.Context, gameID int64, rel release.Classified) (*store.GrabbedRelease, error)
}

// Dispatcher applies each game's update policy to newly detected updates and
// carries the manual grab/dismiss operations.
type Dispatcher struct {
	store    *store.Store
	grabber  Grabber
	notifier notifications.Service
	logger   *slog.Logger
}

// NewDispatcher wires a policy dispatcher.
func NewDispatcher(st *store.Store, grabber Grabber, notifier notifications.Service, logger *slog.Logger) *Dispatcher {
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dispatcher{
		store:    st,
		grabber:  grabber,
		notifier: notifier,
		logger:   logger.With(logging.String("component", "dispatch")),
	}
}

// Apply reacts to one freshly recorded update according to the game's policy.
// Auto-grab failures leave the update pending for manual retry.
func (d *Dispatcher) Apply(ctx context.Context, game *store.Game, update *store.GameUpdate) {
	switch game.UpdatePolicy {
	case store.PolicyIgnore:
		// recorded but never acted on; the batch check skips the game entirely
	case store.PolicyAuto:
		if _, err := d.grabUpdate(ctx, game.ID, update); err != nil {
			d.logger.Warn("auto-grab failed, update stays pending",
				logging.Int64("update_id", update.ID), logging.Error(err))
		}
	default:
		d.notifier.UpdateDetected(ctx, game.Title, update.Title)
	}
}

// GrabUpdate manually grabs a pending update.
func (d *Dispatcher) GrabUpdate(ctx context.Context, updateID int64) (*store.GrabbedRelease, error) {
	update, err := d.store.GetUpdate(ctx, updateID)
	if err != nil {
		return nil, err
	}
	if update == nil {
		return nil, services.Wrap(services.ErrNotFound, "dispatch", "grab_update", "update not found", nil)
	}
	if update.Status != store.UpdatePending {
		return nil, services.Wrap(services.ErrInvalidState, "dispatch", "grab_update", "update is not pending", nil)
	}
	return d.grabUpdate(ctx, update.GameID, update)
}

func (d *Dispatcher) grabUpdate(ctx context.Context, gameID int64, update *store.GameUpdate) (*store.GrabbedRelease, error) {
	grabbed, err := d.grabber.Grab(ctx, gameID, release.ClassifyOne(indexer.Release{
		GUID:        update.DownloadURL,
		Title:       update.Title,
		Indexer:     update.Indexer,
		Size:        update.Size,
		Seeders:     update.Seeders,
		DownloadURL: update.DownloadURL,
	}))
	if err != nil {
		return nil, err
	}
	if err := d.store.SetUpdateStatus(ctx, update.ID, store.UpdateGrabbed); err != nil {
		return nil, err
	}
	return grabbed, nil
}

// DismissUpdate moves a pending update to dismissed. It has no side effects
// on the game.
func (d *Dispatcher) DismissUpdate(ctx context.Context, updateID int64) error {
	update, err := d.store.GetUpdate(ctx, updateID)
	if err != nil {
		return err
	}
	if update == nil {
		return services.Wrap(services.ErrNotFound, "dispatch", "dismiss", "update not found", nil)
	}
	if update.Status != store.UpdatePending {
		return services.Wrap(services.ErrInvalidState, "dispatch", "dismiss", "update is not pending", nil)
	}
	return d.store.SetUpdateStatus(ctx, updateID, store.UpdateDismissed)
}
