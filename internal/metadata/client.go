package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ludo/internal/config"
	"ludo/internal/services"
)

// Candidate is one ranked game match from the metadata provider.
type Candidate struct {
	ID        int64    `json:"id"`
	Title     string   `json:"title"`
	Year      int      `json:"year"`
	Platforms []string `json:"platforms"`
	CoverURL  string   `json:"coverUrl"`
	Summary   string   `json:"summary"`
	Developer string   `json:"developer"`
	Publisher string   `json:"publisher"`
	Rating    float64  `json:"rating"`
}

// Provider defines the metadata lookups the import engine consumes.
type Provider interface {
	Search(ctx context.Context, title string) ([]Candidate, error)
}

// Client queries an IGDB-style game metadata API.
type Client struct {
	baseURL    string
	clientID   string
	apiKey     string
	httpClient *http.Client
}

var _ Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a metadata provider client from configuration.
func New(cfg config.Metadata, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("metadata base url required")
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientID:   strings.TrimSpace(cfg.ClientID),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Results []Candidate `json:"results"`
}

// Search returns ranked candidates for a cleaned title. Transport failures
// map to services.ErrAdapterUnavailable.
func (c *Client) Search(ctx context.Context, title string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("search", title)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/games?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}
	if c.clientID != "" {
		req.Header.Set("Client-ID", c.clientID)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "metadata", "search", "provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "metadata", "search",
			fmt.Sprintf("provider returned status %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "metadata", "search", "decode response", err)
	}
	return payload.Results, nil
}
