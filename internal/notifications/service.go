package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"abstagsync/internal/config"
)

const userAgent = "abs-tag-sync/0.1.0"

// SyncResult is the subset of a run report carried in a notification.
type SyncResult struct {
	Updated      int
	Planned      int
	Unchanged    int
	NotInLibrary int
	Failed       int
	Degraded     []string
	DryRun       bool
	Duration     time.Duration
}

// Service defines the notification surface exposed to the sync pipeline.
type Service interface {
	NotifySyncCompleted(ctx context.Context, result SyncResult) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifySyncCompleted(ctx context.Context, result SyncResult) error {
	duration := result.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var lines []string
	if result.DryRun {
		lines = append(lines, fmt.Sprintf("Dry run: %d items would change, %d already current", result.Planned, result.Unchanged))
	} else {
		lines = append(lines, fmt.Sprintf("Updated %d items, %d already current", result.Updated, result.Unchanged))
	}
	if result.NotInLibrary > 0 {
		lines = append(lines, fmt.Sprintf("%d requested titles not in library", result.NotInLibrary))
	}
	if result.Failed > 0 {
		lines = append(lines, fmt.Sprintf("%d updates failed", result.Failed))
	}
	if len(result.Degraded) > 0 {
		lines = append(lines, "Degraded: "+strings.Join(result.Degraded, ", "))
	}
	lines = append(lines, "Took "+duration.String())

	data := payload{
		title:   "abs-tag-sync - Sync Complete",
		message: strings.Join(lines, "\n"),
		tags:    []string{"abs-tag-sync", "sync", "completed"},
	}
	if result.Failed > 0 || len(result.Degraded) > 0 {
		data.title = "abs-tag-sync - Sync Complete (with errors)"
		data.tags = []string{"abs-tag-sync", "sync", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "abs-tag-sync - Error",
		message:  builder.String(),
		tags:     []string{"abs-tag-sync", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "abs-tag-sync - Test",
		message:  "Notification system test",
		tags:     []string{"abs-tag-sync", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifySyncCompleted(context.Context, SyncResult) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }
