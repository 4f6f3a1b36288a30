package downloader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"ludo/internal/config"
	"ludo/internal/services"
)

// Client talks to a qBittorrent-style download client over its JSON API.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	mu       sync.Mutex
	loggedIn bool
}

var _ Adapter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The caller keeps
// responsibility for cookie handling.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a download client adapter from configuration.
func New(cfg config.DownloadClient, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("download client base url required")
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/auth/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrAdapterUnavailable, "downloader", "login", "client unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrAdapterUnavailable, "downloader", "login",
			fmt.Sprintf("client returned status %d", resp.StatusCode), nil)
	}
	return nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}
	if err := c.login(ctx); err != nil {
		return err
	}
	c.loggedIn = true
	return nil
}

// do runs an authenticated API call, logging in lazily and retrying once when
// the session cookie has expired.
func (c *Client) do(ctx context.Context, operation string, req func() (*http.Request, error)) (*http.Response, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	for attempt := 0; ; attempt++ {
		r, err := req()
		if err != nil {
			return nil, fmt.Errorf("build %s request: %w", operation, err)
		}
		resp, err := c.httpClient.Do(r)
		if err != nil {
			return nil, services.Wrap(services.ErrAdapterUnavailable, "downloader", operation, "client unreachable", err)
		}
		if resp.StatusCode == http.StatusForbidden && attempt == 0 {
			resp.Body.Close()
			c.mu.Lock()
			c.loggedIn = false
			c.mu.Unlock()
			if err := c.ensureLogin(ctx); err != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, services.Wrap(services.ErrAdapterUnavailable, "downloader", operation,
				fmt.Sprintf("client returned status %d", resp.StatusCode), nil)
		}
		return resp, nil
	}
}

func (c *Client) postForm(ctx context.Context, operation, path string, form url.Values) (*http.Response, error) {
	return c.do(ctx, operation, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
			strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// Add submits a release locator for download and returns the transfer hash.
func (c *Client) Add(ctx context.Context, locator, category, savePath string) (string, error) {
	form := url.Values{}
	form.Set("urls", locator)
	if category != "" {
		form.Set("category", category)
	}
	if savePath != "" {
		form.Set("savepath", savePath)
	}
	resp, err := c.postForm(ctx, "add", "/api/v2/torrents/add", form)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrAdapterUnavailable, "downloader", "add", "decode response", err)
	}
	if payload.Hash == "" {
		return "", services.Wrap(services.ErrAdapterUnavailable, "downloader", "add", "client returned no hash", nil)
	}
	return strings.ToLower(payload.Hash), nil
}

// List returns all transfers the client currently tracks.
func (c *Client) List(ctx context.Context) ([]Download, error) {
	resp, err := c.do(ctx, "list", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/torrents/info", nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var downloads []Download
	if err := json.NewDecoder(resp.Body).Decode(&downloads); err != nil {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "downloader", "list", "decode response", err)
	}
	for i := range downloads {
		downloads[i].Hash = strings.ToLower(downloads[i].Hash)
	}
	return downloads, nil
}

// Pause pauses the transfer identified by hash.
func (c *Client) Pause(ctx context.Context, hash string) error {
	form := url.Values{}
	form.Set("hashes", hash)
	resp, err := c.postForm(ctx, "pause", "/api/v2/torrents/pause", form)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Resume resumes the transfer identified by hash.
func (c *Client) Resume(ctx context.Context, hash string) error {
	form := url.Values{}
	form.Set("hashes", hash)
	resp, err := c.postForm(ctx, "resume", "/api/v2/torrents/resume", form)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Cancel removes the transfer, optionally deleting its files on disk.
func (c *Client) Cancel(ctx context.Context, hash string, deleteFiles bool) error {
	form := url.Values{}
	form.Set("hashes", hash)
	if deleteFiles {
		form.Set("deleteFiles", "true")
	} else {
		form.Set("deleteFiles", "false")
	}
	resp, err := c.postForm(ctx, "cancel", "/api/v2/torrents/delete", form)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Categories returns the category names configured on the client.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, "categories", func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/torrents/categories", nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload map[string]struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "downloader", "categories", "decode response", err)
	}
	names := make([]string, 0, len(payload))
	for name := range payload {
		names = append(names, name)
	}
	return names, nil
}
