package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ludo/internal/config"
	"ludo/internal/services"
)

func TestSearchParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "Hollow Knight" {
			t.Errorf("search query = %q, want %q", got, "Hollow Knight")
		}
		if got := r.Header.Get("Client-ID"); got != "cid" {
			t.Errorf("Client-ID header = %q, want %q", got, "cid")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"id":1030,"title":"Hollow Knight","year":2017,"platforms":["PC","Switch"],"developer":"Team Cherry","rating":92.5}]}`))
	}))
	defer server.Close()

	client, err := New(config.Metadata{BaseURL: server.URL, ClientID: "cid", APIKey: "key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	candidates, err := client.Search(context.Background(), "Hollow Knight")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	c := candidates[0]
	if c.ID != 1030 || c.Title != "Hollow Knight" || c.Year != 2017 {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if len(c.Platforms) != 2 || c.Platforms[0] != "PC" {
		t.Errorf("unexpected platforms: %v", c.Platforms)
	}
}

func TestSearchProviderErrorIsAdapterUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(config.Metadata{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Search(context.Background(), "anything"); !errors.Is(err, services.ErrAdapterUnavailable) {
		t.Fatalf("expected ErrAdapterUnavailable, got %v", err)
	}
}

func TestSearchUnreachableProvider(t *testing.T) {
	client, err := New(config.Metadata{BaseURL: "http://127.0.0.1:1", Timeout: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Search(context.Background(), "anything"); !errors.Is(err, services.ErrAdapterUnavailable) {
		t.Fatalf("expected ErrAdapterUnavailable, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(config.Metadata{}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
