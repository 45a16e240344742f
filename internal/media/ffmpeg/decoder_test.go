package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"audiocheck/internal/audio"
	"audiocheck/internal/logging"
	"audiocheck/internal/media/ffprobe"
	"audiocheck/internal/services"
)

func TestHeaderFromProbe(t *testing.T) {
	probe := ffprobe.Result{
		Format: ffprobe.Format{FormatName: "mp3", Duration: "2.5", BitRate: "128000"},
	}
	stream := ffprobe.Stream{CodecName: "MP3", CodecType: "audio", SampleRate: "44100", Channels: 1}
	header := headerFromProbe(probe, stream)
	if header.Codec != "mp3" || header.SampleRate != 44100 || header.Channels != 1 {
		t.Fatalf("unexpected header %+v", header)
	}
	if header.Mode != audio.ChannelMono {
		t.Fatalf("expected mono mode, got %s", header.Mode)
	}
	if header.BitRate != 128000 {
		t.Fatalf("expected container bitrate fallback, got %d", header.BitRate)
	}
	if header.Duration != 2500*time.Millisecond {
		t.Fatalf("unexpected duration %v", header.Duration)
	}
}

func TestDecodeLE(t *testing.T) {
	dst := make([]int16, 3)
	decodeLE(dst, []byte{0x01, 0x00, 0xff, 0x7f, 0x00, 0x80})
	if dst[0] != 1 || dst[1] != 32767 || dst[2] != -32768 {
		t.Fatalf("unexpected samples %v", dst)
	}
}

func TestLineCollector(t *testing.T) {
	c := &lineCollector{limit: 2}
	_, _ = c.Write([]byte("first\nsec"))
	_, _ = c.Write([]byte("ond\n\nthird\nfourth"))
	lines := c.lines()
	want := []string{"first", "second", "1 further decoder warnings suppressed"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines %q", lines)
	}
}

func TestGuessFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cover.mp3")
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if guess := GuessFormat(path); !strings.Contains(guess, "image/png") {
		t.Fatalf("expected png guess, got %q", guess)
	}
	if guess := GuessFormat(filepath.Join(t.TempDir(), "missing")); guess != "" {
		t.Fatalf("expected empty guess for missing file, got %q", guess)
	}
}

func TestOpenMissingFileIsTransient(t *testing.T) {
	d := New("ffmpeg", "ffprobe", logging.NewNop())
	_, err := d.Open(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func requireTools(t *testing.T) {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}
}

func TestOpenRejectsNonAudio(t *testing.T) {
	requireTools(t)
	path := filepath.Join(t.TempDir(), "notes.mp3")
	if err := os.WriteFile(path, []byte("just some text, not audio at all\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d := New("ffmpeg", "ffprobe", logging.NewNop())
	_, err := d.Open(context.Background(), path)
	if !errors.Is(err, services.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
	var formatErr *audio.FormatError
	if !errors.As(err, &formatErr) || !strings.Contains(formatErr.Guess, "text/plain") {
		t.Fatalf("expected text guess, got %v", err)
	}
}

func TestDecodeGeneratedTone(t *testing.T) {
	requireTools(t)
	path := filepath.Join(t.TempDir(), "tone.wav")
	gen := exec.Command("ffmpeg", "-hide_banner", "-loglevel", "error", "-f", "lavfi",
		"-i", "sine=frequency=1000:sample_rate=44100:duration=1", "-ac", "2", path)
	if out, err := gen.CombinedOutput(); err != nil {
		t.Fatalf("generate tone: %v: %s", err, out)
	}

	d := New("ffmpeg", "ffprobe", logging.NewNop())
	stream, err := d.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer stream.Close()

	if h := stream.Header(); h.SampleRate != 44100 || h.Channels != 2 {
		t.Fatalf("unexpected header %+v", h)
	}
	total := 0
	for {
		frame, err := stream.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		total += frame.SampleCount()
	}
	if total != 44100 {
		t.Fatalf("expected 44100 samples per channel, got %d", total)
	}
}
