package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"audiocheck/internal/config"
)

const userAgent = "audiocheck-notify/1"

// Verdict is the outcome of one analysis run as seen by a notifier.
type Verdict struct {
	Source   string
	Status   string
	Validity string
	Warnings int
	Errors   int
	Fatal    string
}

// Failed reports whether the verdict needs attention.
func (v Verdict) Failed() bool {
	return v.Status == "failed" || v.Status == "error"
}

// Service publishes verdicts.
type Service interface {
	NotifyVerdict(ctx context.Context, v Verdict) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a no-op when no topic is set.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		all:      cfg.Notifications.NotifyOn == "all",
		client:   &http.Client{Timeout: timeout},
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
	all      bool
	client   *http.Client
}

func (n *ntfyService) NotifyVerdict(ctx context.Context, v Verdict) error {
	if !n.all && !v.Failed() {
		return nil
	}
	return n.send(ctx, verdictPayload(v))
}

func verdictPayload(v Verdict) payload {
	source := strings.TrimSpace(v.Source)
	data := payload{tags: []string{"audiocheck", v.Status}}
	switch v.Status {
	case "passed":
		data.title = "audiocheck - Passed"
		data.message = fmt.Sprintf("✅ %s passed", source)
		data.priority = "low"
	case "warnings":
		data.title = "audiocheck - Warnings"
		data.message = fmt.Sprintf("⚠️ %s passed with %d warning(s)", source, v.Warnings)
	case "failed":
		data.title = "audiocheck - Failed"
		data.message = fmt.Sprintf("❌ %s failed: %d error(s), %d warning(s)", source, v.Errors, v.Warnings)
		data.priority = "high"
	default:
		data.title = "audiocheck - Error"
		reason := strings.TrimSpace(v.Fatal)
		if reason == "" {
			reason = "analysis incomplete"
		}
		data.message = fmt.Sprintf("🛑 %s could not be analysed: %s", source, reason)
		data.priority = "high"
	}
	return data
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "audiocheck - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"audiocheck", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
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

func (noopService) NotifyVerdict(context.Context, Verdict) error { return nil }
func (noopService) TestNotification(context.Context) error        { return nil }
