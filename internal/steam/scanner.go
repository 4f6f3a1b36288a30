// Package steam discovers installed Steam games so a library scan can offer
// them for matching.
package steam

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/andygrunwald/vdf"

	"ludo/internal/config"
	"ludo/internal/library"
	"ludo/internal/logging"
)

// Scanner reads appmanifest_*.acf files under a Steam root's steamapps
// directory.
type Scanner struct {
	root   string
	logger *slog.Logger
}

var _ library.Source = (*Scanner)(nil)

// NewScanner builds a scanner for the configured Steam root. Returns nil when
// Steam import is disabled.
func NewScanner(cfg config.Steam, logger *slog.Logger) *Scanner {
	if !cfg.Enabled || strings.TrimSpace(cfg.Root) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{
		root:   cfg.Root,
		logger: logger.With(logging.String("component", "steam")),
	}
}

// Discover parses every app manifest and reports the installed games. A
// manifest that fails to parse is logged and skipped; one broken file must
// not hide the rest of the library.
func (s *Scanner) Discover(ctx context.Context) ([]library.DiscoveredFolder, error) {
	steamapps := filepath.Join(s.root, "steamapps")
	manifests, err := filepath.Glob(filepath.Join(steamapps, "appmanifest_*.acf"))
	if err != nil {
		return nil, fmt.Errorf("glob app manifests: %w", err)
	}

	var folders []library.DiscoveredFolder
	for _, manifest := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		folder, err := parseManifest(manifest)
		if err != nil {
			s.logger.Warn("skipping unreadable app manifest",
				logging.String("path", manifest), logging.Error(err))
			continue
		}
		folder.Path = filepath.Join(steamapps, "common", folder.Path)
		folders = append(folders, folder)
	}
	return folders, nil
}

// parseManifest extracts name, install dir, and build id from one ACF file.
// The returned Path holds the bare install dir; the caller anchors it.
func parseManifest(path string) (library.DiscoveredFolder, error) {
	var folder library.DiscoveredFolder

	f, err := os.Open(path)
	if err != nil {
		return folder, err
	}
	defer f.Close()

	parsed, err := vdf.NewParser(f).Parse()
	if err != nil {
		return folder, fmt.Errorf("parse vdf: %w", err)
	}
	state, ok := parsed["AppState"].(map[string]interface{})
	if !ok {
		return folder, fmt.Errorf("manifest missing AppState block")
	}

	name, _ := state["name"].(string)
	installDir, _ := state["installdir"].(string)
	buildID, _ := state["buildid"].(string)
	if name == "" || installDir == "" {
		return folder, fmt.Errorf("manifest missing name or installdir")
	}

	folder.Name = name
	folder.Path = installDir
	if buildID != "" {
		folder.Version = "build." + buildID
	}
	return folder, nil
}
