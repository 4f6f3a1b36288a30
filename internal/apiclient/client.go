// Package apiclient provides HTTP access to a running daemon for the CLI.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ludo/internal/api"
)

// Client talks to the daemon's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the daemon bound at addr (host:port or URL).
func New(addr string) *Client {
	base := strings.TrimSpace(addr)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// do runs one API call and decodes the envelope's data into out (ignored when
// out is nil). Server-side failures surface as the envelope's error message.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Buffer
	if body != nil {
		reader = &bytes.Buffer{}
		if err := json.NewEncoder(reader).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable: %w", err)
	}
	defer resp.Body.Close()

	var envelope api.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		if envelope.Error == "" {
			return fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s", envelope.Error)
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		return fmt.Errorf("remarshal data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (*api.Status, error) {
	var out api.Status
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGames lists games, optionally filtered by status.
func (c *Client) ListGames(ctx context.Context, statuses ...string) ([]api.Game, error) {
	path := "/api/games"
	if len(statuses) > 0 {
		params := url.Values{}
		for _, status := range statuses {
			params.Add("status", status)
		}
		path += "?" + params.Encode()
	}
	var out []api.Game
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGame fetches one game with its folders.
func (c *Client) GetGame(ctx context.Context, id int64) (*api.Game, error) {
	var out api.Game
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/games/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGameRequest is the body for adding a game to the catalog.
type CreateGameRequest struct {
	IGDBID       int64    `json:"igdbId"`
	Title        string   `json:"title"`
	Platform     string   `json:"platform,omitempty"`
	Monitored    *bool    `json:"monitored,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	LibraryID    *int64   `json:"libraryId,omitempty"`
	UpdatePolicy string   `json:"updatePolicy,omitempty"`
}

// CreateGame adds a game in wanted status.
func (c *Client) CreateGame(ctx context.Context, req CreateGameRequest) (*api.Game, error) {
	var out api.Game
	if err := c.do(ctx, http.MethodPost, "/api/games", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGame removes a game; folders on disk are untouched.
func (c *Client) DeleteGame(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/games/%d", id), nil, nil)
}

// SetPolicy changes a game's update policy.
func (c *Client) SetPolicy(ctx context.Context, id int64, policy string) (*api.Game, error) {
	var out api.Game
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/games/%d/policy", id),
		map[string]string{"policy": policy}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPrimaryFolder moves the primary flag to the given folder.
func (c *Client) SetPrimaryFolder(ctx context.Context, gameID, folderID int64) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/games/%d/folders/primary", gameID),
		map[string]int64{"folderId": folderID}, nil)
}

// SearchReleases runs a free-text indexer search.
func (c *Client) SearchReleases(ctx context.Context, query string) ([]api.Release, error) {
	params := url.Values{}
	params.Set("q", query)
	var out []api.Release
	if err := c.do(ctx, http.MethodGet, "/api/search/releases?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchReleasesForGame searches the indexer scoped to one game.
func (c *Client) SearchReleasesForGame(ctx context.Context, gameID int64) ([]api.Release, error) {
	var out []api.Release
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/search/releases/%d", gameID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Grab submits a release for download.
func (c *Client) Grab(ctx context.Context, gameID int64, release api.ReleaseInput) (*api.Grab, error) {
	var out api.Grab
	body := map[string]any{"gameId": gameID, "release": release}
	if err := c.do(ctx, http.MethodPost, "/api/search/grab", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListDownloads lists live transfers.
func (c *Client) ListDownloads(ctx context.Context) ([]api.Download, error) {
	var out []api.Download
	if err := c.do(ctx, http.MethodGet, "/api/downloads", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// History lists recent download history entries.
func (c *Client) History(ctx context.Context, limit int) ([]api.HistoryEntry, error) {
	var out []api.HistoryEntry
	path := "/api/downloads/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PauseDownload pauses a transfer.
func (c *Client) PauseDownload(ctx context.Context, hash string) error {
	return c.do(ctx, http.MethodPost, "/api/downloads/"+hash+"/pause", nil, nil)
}

// ResumeDownload resumes a transfer.
func (c *Client) ResumeDownload(ctx context.Context, hash string) error {
	return c.do(ctx, http.MethodPost, "/api/downloads/"+hash+"/resume", nil, nil)
}

// CancelDownload removes a transfer, optionally with its files.
func (c *Client) CancelDownload(ctx context.Context, hash string, deleteFiles bool) error {
	path := "/api/downloads/" + hash
	if deleteFiles {
		path += "?deleteFiles=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// ImportDownload attaches an orphan transfer to a game.
func (c *Client) ImportDownload(ctx context.Context, hash string, gameID int64) (*api.Folder, error) {
	var out api.Folder
	if err := c.do(ctx, http.MethodPost, "/api/downloads/"+hash+"/import",
		map[string]int64{"gameId": gameID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scan triggers a library scan.
func (c *Client) Scan(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodPost, "/api/library/scan", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AutoMatch retries the automatic match for one unmatched entry.
func (c *Client) AutoMatch(ctx context.Context, entryID int64) (*api.Game, error) {
	var out api.Game
	if err := c.do(ctx, http.MethodPost, "/api/library/auto-match",
		map[string]int64{"entryId": entryID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Match resolves an unmatched entry with an explicit candidate.
func (c *Client) Match(ctx context.Context, entryID int64, candidate api.Candidate, tags []string, libraryID *int64) (*api.Game, error) {
	var out api.Game
	body := map[string]any{
		"entryId":   entryID,
		"candidate": candidate,
		"tags":      tags,
		"libraryId": libraryID,
	}
	if err := c.do(ctx, http.MethodPost, "/api/library/match", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unmatched lists scan entries awaiting manual resolution.
func (c *Client) Unmatched(ctx context.Context) ([]api.ScanEntry, error) {
	var out []api.ScanEntry
	if err := c.do(ctx, http.MethodGet, "/api/library/unmatched", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListUpdates lists detected updates, optionally filtered by status.
func (c *Client) ListUpdates(ctx context.Context, statuses ...string) ([]api.Update, error) {
	path := "/api/updates"
	if len(statuses) > 0 {
		params := url.Values{}
		for _, status := range statuses {
			params.Add("status", status)
		}
		path += "?" + params.Encode()
	}
	var out []api.Update
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckAllUpdates triggers the batch update check.
func (c *Client) CheckAllUpdates(ctx context.Context) (map[string]int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodPost, "/api/updates/check", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CheckGameUpdates triggers the update check for one game.
func (c *Client) CheckGameUpdates(ctx context.Context, gameID int64) (int, error) {
	var out map[string]int
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/updates/games/%d/check", gameID), nil, &out); err != nil {
		return 0, err
	}
	return out["updatesFound"], nil
}

// GrabUpdate grabs a pending update.
func (c *Client) GrabUpdate(ctx context.Context, updateID int64) (*api.Grab, error) {
	var out api.Grab
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/updates/%d/grab", updateID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DismissUpdate dismisses a pending update.
func (c *Client) DismissUpdate(ctx context.Context, updateID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/updates/%d/dismiss", updateID), nil, nil)
}

// ListLibraries lists library roots.
func (c *Client) ListLibraries(ctx context.Context) ([]api.Library, error) {
	var out []api.Library
	if err := c.do(ctx, http.MethodGet, "/api/libraries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateLibrary adds a library root.
func (c *Client) CreateLibrary(ctx context.Context, lib api.Library) (*api.Library, error) {
	var out api.Library
	if err := c.do(ctx, http.MethodPost, "/api/libraries", lib, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLibrary removes a library root record.
func (c *Client) DeleteLibrary(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/libraries/%d", id), nil, nil)
}
