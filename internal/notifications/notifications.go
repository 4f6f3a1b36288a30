package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ludo/internal/config"
	"ludo/internal/logging"
)

// Service publishes lifecycle events to the user. Implementations must be
// fire-and-forget: failures are logged, never returned to the caller's
// workflow.
type Service interface {
	GrabStarted(ctx context.Context, gameTitle, releaseTitle string)
	DownloadCompleted(ctx context.Context, gameTitle string)
	DownloadFailed(ctx context.Context, gameTitle, reason string)
	UpdateDetected(ctx context.Context, gameTitle, updateTitle string)
	Error(ctx context.Context, component, message string)
}

type noopService struct{}

func (noopService) GrabStarted(context.Context, string, string)    {}
func (noopService) DownloadCompleted(context.Context, string)      {}
func (noopService) DownloadFailed(context.Context, string, string) {}
func (noopService) UpdateDetected(context.Context, string, string) {}
func (noopService) Error(context.Context, string, string)          {}

// NewNop returns a Service that drops every event.
func NewNop() Service {
	return noopService{}
}

type ntfyService struct {
	topicURL   string
	cfg        config.Notifications
	httpClient *http.Client
	logger     *slog.Logger
}

// New builds a Service from configuration. An empty topic yields the noop
// implementation.
func New(cfg config.Notifications, logger *slog.Logger) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return NewNop()
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ntfyService{
		topicURL:   topic,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(logging.String("component", "notifications")),
	}
}

func (s *ntfyService) publish(ctx context.Context, title, message, priority string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.topicURL, strings.NewReader(message))
	if err != nil {
		s.logger.Warn("build notification request failed", logging.Error(err))
		return
	}
	req.Header.Set("Title", title)
	if priority != "" {
		req.Header.Set("Priority", priority)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("notification publish failed", logging.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		s.logger.Warn("notification rejected", logging.Int("status", resp.StatusCode))
	}
}

func (s *ntfyService) GrabStarted(ctx context.Context, gameTitle, releaseTitle string) {
	if !s.cfg.Grabs {
		return
	}
	s.publish(ctx, "Grab started", fmt.Sprintf("%s: %s", gameTitle, releaseTitle), "")
}

func (s *ntfyService) DownloadCompleted(ctx context.Context, gameTitle string) {
	if !s.cfg.Downloads {
		return
	}
	s.publish(ctx, "Download completed", gameTitle, "")
}

func (s *ntfyService) DownloadFailed(ctx context.Context, gameTitle, reason string) {
	if !s.cfg.Downloads {
		return
	}
	s.publish(ctx, "Download failed", fmt.Sprintf("%s: %s", gameTitle, reason), "high")
}

func (s *ntfyService) UpdateDetected(ctx context.Context, gameTitle, updateTitle string) {
	if !s.cfg.Updates {
		return
	}
	s.publish(ctx, "Update available", fmt.Sprintf("%s: %s", gameTitle, updateTitle), "")
}

func (s *ntfyService) Error(ctx context.Context, component, message string) {
	if !s.cfg.Errors {
		return
	}
	s.publish(ctx, "Error", fmt.Sprintf("%s: %s", component, message), "high")
}
