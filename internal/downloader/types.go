package downloader

import "context"

// Download is one transfer reported by the download client. State carries the
// client's raw vocabulary; callers classify terminal states themselves.
type Download struct {
	Hash          string  `json:"hash"`
	Name          string  `json:"name"`
	Size          int64   `json:"size"`
	Progress      float64 `json:"progress"`
	DownloadSpeed int64   `json:"dlspeed"`
	UploadSpeed   int64   `json:"upspeed"`
	ETA           int64   `json:"eta"`
	State         string  `json:"state"`
	SavePath      string  `json:"save_path"`
}

// Completed reports whether the raw state means the transfer finished and the
// payload is on disk.
func (d Download) Completed() bool {
	switch d.State {
	case "uploading", "stalledUP", "pausedUP", "queuedUP", "forcedUP", "checkingUP":
		return true
	}
	return false
}

// Failed reports whether the raw state means the transfer cannot proceed.
func (d Download) Failed() bool {
	switch d.State {
	case "error", "missingFiles":
		return true
	}
	return false
}

// Adapter is the download client surface the grab coordinator and reconciler
// operate against.
type Adapter interface {
	Add(ctx context.Context, locator, category, savePath string) (string, error)
	List(ctx context.Context) ([]Download, error)
	Pause(ctx context.Context, hash string) error
	Resume(ctx context.Context, hash string) error
	Cancel(ctx context.Context, hash string, deleteFiles bool) error
	Categories(ctx context.Context) ([]string, error)
}
