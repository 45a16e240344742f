package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"audiocheck/internal/config"
	"audiocheck/internal/notifications"
)

type captured struct {
	title    string
	body     string
	tags     string
	priority string
}

func capture(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []captured
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, captured{
			title:    r.Header.Get("Title"),
			body:     string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), seen...)
	}
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyVerdict(context.Background(), notifications.Verdict{Source: "a.mp3", Status: "failed"}); err != nil {
		t.Fatalf("noop notifier returned %v", err)
	}
	if err := svc.TestNotification(context.Background()); err != nil {
		t.Fatalf("noop test notification returned %v", err)
	}
}

func TestFailuresOnlySkipsPassingVerdicts(t *testing.T) {
	srv, seen := capture(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)

	ctx := context.Background()
	for _, v := range []notifications.Verdict{
		{Source: "ok.mp3", Status: "passed"},
		{Source: "meh.mp3", Status: "warnings", Warnings: 2},
		{Source: "bad.mp3", Status: "failed", Errors: 3, Warnings: 1},
		{Source: "gone.mp3", Status: "error", Fatal: "file could not be read"},
	} {
		if err := svc.NotifyVerdict(ctx, v); err != nil {
			t.Fatalf("NotifyVerdict(%s): %v", v.Source, err)
		}
	}

	got := seen()
	if len(got) != 2 {
		t.Fatalf("published %d notifications, want 2: %+v", len(got), got)
	}
	if got[0].title != "audiocheck - Failed" || got[0].body != "❌ bad.mp3 failed: 3 error(s), 1 warning(s)" {
		t.Fatalf("failed payload = %+v", got[0])
	}
	if got[0].tags != "audiocheck,failed" || got[0].priority != "high" {
		t.Fatalf("failed headers = %+v", got[0])
	}
	if got[1].title != "audiocheck - Error" || got[1].body != "🛑 gone.mp3 could not be analysed: file could not be read" {
		t.Fatalf("error payload = %+v", got[1])
	}
}

func TestNotifyOnAllPublishesEveryVerdict(t *testing.T) {
	srv, seen := capture(t, http.StatusOK)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	cfg.Notifications.NotifyOn = "all"
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyVerdict(context.Background(), notifications.Verdict{Source: "ok.mp3", Status: "passed"}); err != nil {
		t.Fatalf("NotifyVerdict: %v", err)
	}
	if err := svc.NotifyVerdict(context.Background(), notifications.Verdict{Source: "meh.mp3", Status: "warnings", Warnings: 2}); err != nil {
		t.Fatalf("NotifyVerdict: %v", err)
	}
	got := seen()
	if len(got) != 2 {
		t.Fatalf("published %d notifications, want 2", len(got))
	}
	if got[0].body != "✅ ok.mp3 passed" || got[0].priority != "low" {
		t.Fatalf("passed payload = %+v", got[0])
	}
	if got[1].body != "⚠️ meh.mp3 passed with 2 warning(s)" || got[1].priority != "" {
		t.Fatalf("warnings payload = %+v", got[1])
	}
}

func TestServerErrorIsReported(t *testing.T) {
	srv, _ := capture(t, http.StatusForbidden)
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = srv.URL
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
