package deps

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeStub(t *testing.T, path, output string) {
	t.Helper()
	script := "#!/bin/sh\necho '" + output + "'\nexit 0\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	writeStub(t, present, "present version 7.1 Copyright")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if !strings.HasPrefix(results[0].Version, "present version 7.1") {
		t.Fatalf("version = %q", results[0].Version)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" || !results[2].Optional {
		t.Fatalf("blank command = %#v", results[2])
	}
}

func TestResolveFFprobePrefersSibling(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	ffprobe := filepath.Join(dir, "ffprobe")
	writeStub(t, ffmpeg, "ffmpeg")
	writeStub(t, ffprobe, "ffprobe")

	if got := ResolveFFprobe(ffmpeg, "ffprobe"); got != ffprobe {
		t.Fatalf("ResolveFFprobe = %q, want sibling %q", got, ffprobe)
	}
	if got := ResolveFFprobe(ffmpeg, "/opt/custom/ffprobe"); got != "/opt/custom/ffprobe" {
		t.Fatalf("explicit path must win, got %q", got)
	}
}

func TestResolveFFprobeFallsBackToName(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := filepath.Join(dir, "ffmpeg")
	writeStub(t, ffmpeg, "ffmpeg")

	if got := ResolveFFprobe(ffmpeg, ""); got != "ffprobe" {
		t.Fatalf("ResolveFFprobe = %q", got)
	}
	if got := ResolveFFprobe("clearly-not-present-binary", "ffprobe"); got != "ffprobe" {
		t.Fatalf("ResolveFFprobe = %q", got)
	}
}
