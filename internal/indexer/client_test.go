package indexer

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ludo/internal/config"
	"ludo/internal/services"
)

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("query"); got != "hollow depths" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "secret" {
			t.Errorf("unexpected apikey %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"guid":"abc","title":"Hollow.Depths.v1.2-CODEX","indexer":"nexus","size":1024,"seeders":42,"categories":[4050],"publishDate":"2026-05-01T12:00:00Z","downloadUrl":"http://dl/abc"}
		]}`))
	}))
	defer server.Close()

	client, err := New(config.Indexer{BaseURL: server.URL, APIKey: "secret", Timeout: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	releases, err := client.Search(context.Background(), Query{Text: "hollow depths"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(releases) != 1 {
		t.Fatalf("expected 1 release, got %d", len(releases))
	}
	rel := releases[0]
	if rel.GUID != "abc" || rel.Seeders != 42 || rel.Indexer != "nexus" {
		t.Fatalf("unexpected release %+v", rel)
	}
	if rel.PublishedAt.IsZero() {
		t.Fatal("expected parsed publish date")
	}
}

func TestSearchGatewayErrorIsAdapterUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(config.Indexer{BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Search(context.Background(), Query{Text: "x"})
	if !errors.Is(err, services.ErrAdapterUnavailable) {
		t.Fatalf("expected ErrAdapterUnavailable, got %v", err)
	}
}

func TestSearchUnreachableGateway(t *testing.T) {
	client, err := New(config.Indexer{BaseURL: "http://127.0.0.1:1", Timeout: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Search(context.Background(), Query{Text: "x"})
	if !errors.Is(err, services.ErrAdapterUnavailable) {
		t.Fatalf("expected ErrAdapterUnavailable, got %v", err)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New(config.Indexer{}); err == nil {
		t.Fatal("expected error for missing base url")
	}
}
