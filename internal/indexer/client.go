package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ludo/internal/config"
	"ludo/internal/services"
)

// Gateway defines the indexer search operations the orchestrator consumes.
type Gateway interface {
	Search(ctx context.Context, query Query) ([]Release, error)
	TestConnection(ctx context.Context) error
}

// Client queries a Torznab-style indexer aggregation gateway over JSON.
type Client struct {
	baseURL    string
	apiKey     string
	categories []int
	httpClient *http.Client
}

var _ Gateway = (*Client)(nil)

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

// New creates an indexer gateway client from configuration.
func New(cfg config.Indexer, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("indexer base url required")
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		categories: append([]int(nil), cfg.Categories...),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Results []releasePayload `json:"results"`
}

type releasePayload struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	Indexer     string `json:"indexer"`
	Size        int64  `json:"size"`
	Seeders     int    `json:"seeders"`
	Categories  []int  `json:"categories"`
	PublishDate string `json:"publishDate"`
	DownloadURL string `json:"downloadUrl"`
}

// Search runs a text query against the gateway. Transport failures and
// non-success statuses map to services.ErrAdapterUnavailable.
func (c *Client) Search(ctx context.Context, query Query) ([]Release, error) {
	params := url.Values{}
	params.Set("query", query.Text)
	if c.apiKey != "" {
		params.Set("apikey", c.apiKey)
	}
	categories := query.Categories
	if len(categories) == 0 {
		categories = c.categories
	}
	for _, category := range categories {
		params.Add("category", strconv.Itoa(category))
	}

	endpoint := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build indexer request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "indexer", "search", "gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "indexer", "search",
			fmt.Sprintf("gateway returned status %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrAdapterUnavailable, "indexer", "search", "decode response", err)
	}

	releases := make([]Release, 0, len(payload.Results))
	for _, result := range payload.Results {
		release := Release{
			GUID:        result.GUID,
			Title:       result.Title,
			Indexer:     result.Indexer,
			Size:        result.Size,
			Seeders:     result.Seeders,
			Categories:  result.Categories,
			DownloadURL: result.DownloadURL,
		}
		if result.PublishDate != "" {
			if published, err := time.Parse(time.RFC3339, result.PublishDate); err == nil {
				release.PublishedAt = published
			}
		}
		releases = append(releases, release)
	}
	return releases, nil
}

// TestConnection verifies the gateway responds to an empty query.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Search(ctx, Query{})
	return err
}
