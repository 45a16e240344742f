package ffprobe

import (
	"errors"
	"math"
	"testing"
)

const sampleJSON = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video"},
    {"index": 1, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100",
     "channels": 2, "channel_layout": "stereo", "bit_rate": "192000",
     "tags": {"encoder": "LAME3.100"}}
  ],
  "format": {
    "filename": "track.mp3", "nb_streams": 2, "format_name": "mp3",
    "duration": "123.45", "size": "1000", "bit_rate": "32000", "probe_score": 51,
    "tags": {"ARTIST": "Someone", "date": "2021"}
  }
}`

func TestParseAndHelpers(t *testing.T) {
	result, err := Parse([]byte(sampleJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	audio, err := result.FirstAudio()
	if err != nil {
		t.Fatalf("FirstAudio: %v", err)
	}
	if audio.SampleRateHz() != 44100 || audio.BitRateBPS() != 192000 || audio.Channels != 2 {
		t.Fatalf("unexpected audio stream %+v", audio)
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if result.BitRate() != 32000 {
		t.Fatalf("unexpected bitrate: %d", result.BitRate())
	}
	if result.Tag("artist") != "Someone" {
		t.Fatalf("expected case-insensitive tag lookup, got %q", result.Tag("artist"))
	}
	if result.Tag("encoder") != "LAME3.100" {
		t.Fatalf("expected stream tag fallback, got %q", result.Tag("encoder"))
	}
}

func TestFirstAudioMissing(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video"}}}
	if _, err := result.FirstAudio(); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("expected ErrNoAudio, got %v", err)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
			BitRate:  "nope",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if result.BitRate() != 0 {
		t.Fatalf("expected bitrate 0, got %d", result.BitRate())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
