package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"audiocheck/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "analyze", "decode", "ffmpeg failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"analyze", "decode", "ffmpeg failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err)
	}
}

func TestMarker(t *testing.T) {
	err := services.Wrap(services.ErrUnsupportedFormat, "analyze", "open", "not audio", nil)
	if got := services.Marker(err); got != services.ErrUnsupportedFormat {
		t.Fatalf("expected unsupported format marker, got %v", got)
	}
	if got := services.Marker(errors.New("plain")); got != nil {
		t.Fatalf("expected nil marker, got %v", got)
	}
}

func TestIsCancellation(t *testing.T) {
	if !services.IsCancellation(fmt.Errorf("decode: %w", context.Canceled)) {
		t.Fatal("expected wrapped cancellation to be detected")
	}
	if services.IsCancellation(errors.New("io")) {
		t.Fatal("plain error is not a cancellation")
	}
}
