package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ludo/internal/api"
)

func newFakeDaemon(t *testing.T, games []api.Game) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(api.Response{Success: true, Data: games})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestGamesListRendersTable(t *testing.T) {
	server := newFakeDaemon(t, []api.Game{
		{ID: 1, Title: "Hollow Knight", Platform: "pc", Status: "downloaded", UpdatePolicy: "notify", Monitored: true},
	})

	out := runCommand(t, "games", "list", "--api", server.URL)
	if !strings.Contains(out, "Hollow Knight") {
		t.Fatalf("expected title in output, got:\n%s", out)
	}
	if !strings.Contains(out, "downloaded") {
		t.Fatalf("expected status in output, got:\n%s", out)
	}
}

func TestGamesListJSONOutput(t *testing.T) {
	server := newFakeDaemon(t, []api.Game{
		{ID: 7, Title: "Celeste", Status: "wanted", UpdatePolicy: "auto"},
	})

	out := runCommand(t, "games", "list", "--api", server.URL, "--json")
	var games []api.Game
	if err := json.Unmarshal([]byte(out), &games); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if len(games) != 1 || games[0].Title != "Celeste" {
		t.Fatalf("unexpected decoded games %+v", games)
	}
}

func TestServerErrorSurfacedToUser(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.Response{Success: false, Error: "game not found"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"games", "list", "--api", server.URL})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "game not found") {
		t.Fatalf("expected server error to surface, got %v", err)
	}
}
