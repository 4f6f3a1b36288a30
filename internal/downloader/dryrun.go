package downloader

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"ludo/internal/services"
)

// DryRun is an Adapter that performs no transfers. Add fabricates a synthetic
// hash and records the transfer in memory as already completed, so the
// reconcile loop can drive state forward without touching a real client.
type DryRun struct {
	mu        sync.Mutex
	downloads []Download
}

var _ Adapter = (*DryRun)(nil)

// NewDryRun creates an empty dry-run adapter.
func NewDryRun() *DryRun {
	return &DryRun{}
}

// Add records a synthetic completed transfer and returns its fabricated hash.
func (d *DryRun) Add(ctx context.Context, locator, category, savePath string) (string, error) {
	hash := "dryrun-" + uuid.NewString()
	d.mu.Lock()
	d.downloads = append(d.downloads, Download{
		Hash:     hash,
		Name:     locator,
		Progress: 1.0,
		State:    "pausedUP",
		SavePath: savePath,
	})
	d.mu.Unlock()
	return hash, nil
}

// List returns the synthetic transfers recorded so far.
func (d *DryRun) List(ctx context.Context) ([]Download, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Download, len(d.downloads))
	copy(out, d.downloads)
	return out, nil
}

// Pause is a no-op for synthetic transfers.
func (d *DryRun) Pause(ctx context.Context, hash string) error { return nil }

// Resume is a no-op for synthetic transfers.
func (d *DryRun) Resume(ctx context.Context, hash string) error { return nil }

// Cancel drops the synthetic transfer if present.
func (d *DryRun) Cancel(ctx context.Context, hash string, deleteFiles bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, dl := range d.downloads {
		if dl.Hash == hash {
			d.downloads = append(d.downloads[:i], d.downloads[i+1:]...)
			return nil
		}
	}
	return services.Wrap(services.ErrNotFound, "downloader", "cancel", "unknown hash", nil)
}

// Categories returns an empty set; dry-run transfers accept any category.
func (d *DryRun) Categories(ctx context.Context) ([]string, error) {
	return nil, nil
}
