package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientDecodesEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/games" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":[{"id":1,"title":"Hollow Knight","status":"wanted","updatePolicy":"notify"}]}`))
	}))
	defer server.Close()

	client := New(server.URL)
	games, err := client.ListGames(context.Background())
	if err != nil {
		t.Fatalf("ListGames: %v", err)
	}
	if len(games) != 1 || games[0].Title != "Hollow Knight" {
		t.Errorf("games = %+v", games)
	}
}

func TestClientSurfacesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"error":"duplicate grab: a grab for this release is already in flight"}`))
	}))
	defer server.Close()

	client := New(server.URL)
	_, err := client.GetGame(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "duplicate grab") {
		t.Fatalf("err = %v, want server error message", err)
	}
}

func TestNewNormalizesAddress(t *testing.T) {
	client := New("127.0.0.1:7455")
	if client.baseURL != "http://127.0.0.1:7455" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}
