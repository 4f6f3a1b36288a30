package notifications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"ludo/internal/config"
	"ludo/internal/logging"
)

func TestNewWithoutTopicIsNoop(t *testing.T) {
	svc := New(config.Notifications{}, logging.NewNop())
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
}

func TestPublishSendsTitleAndBody(t *testing.T) {
	var gotTitle, gotPriority string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPriority = r.Header.Get("Priority")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc := New(config.Notifications{NtfyTopic: server.URL, Downloads: true}, logging.NewNop())
	svc.DownloadFailed(context.Background(), "Hollow Knight", "tracker timeout")

	if gotTitle != "Download failed" {
		t.Errorf("title = %q, want %q", gotTitle, "Download failed")
	}
	if gotPriority != "high" {
		t.Errorf("priority = %q, want %q", gotPriority, "high")
	}
}

func TestDisabledEventIsNotSent(t *testing.T) {
	sent := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = true
	}))
	defer server.Close()

	svc := New(config.Notifications{NtfyTopic: server.URL, Grabs: false}, logging.NewNop())
	svc.GrabStarted(context.Background(), "Hollow Knight", "Hollow.Knight-GOG")
	if sent {
		t.Fatal("disabled grab notification was sent")
	}
}
