package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simonhull/audiometa"

	"audiocheck/internal/audio"
	"audiocheck/internal/logging"
	"audiocheck/internal/media/ffprobe"
	"audiocheck/internal/services"
)

// Tags is the queryable tag view of one file.
type Tags struct {
	Artist     string
	Title      string
	Album      string
	Year       string
	Genre      string
	Comment    string
	Track      int
	TrackTotal int

	// Version names the primary tag, e.g. "ID3v2.3.0" or "ID3v1".
	Version string
	Major   int
	HasV1   bool
	// Length is the declared track length (TLEN); zero when absent.
	Length time.Duration
	// AudioOffset is the byte offset where audio data starts.
	AudioOffset int64
	// Duration is the parser's estimate of the audio length.
	Duration time.Duration
	Format   string
	Warnings []string
}

// Field returns a named field for rule checks.
func (t *Tags) Field(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "artist":
		return t.Artist
	case "title":
		return t.Title
	case "album":
		return t.Album
	case "year", "date":
		return t.Year
	case "genre":
		return t.Genre
	case "comment":
		return t.Comment
	case "track":
		if t.Track > 0 {
			return strconv.Itoa(t.Track)
		}
	}
	return ""
}

// Reader returns the tag view for a local file, or nil tags when the file
// carries no tag at all.
type Reader interface {
	Read(ctx context.Context, path string) (*Tags, error)
}

// FileReader reads tags from disk.
type FileReader struct {
	FFprobe string
	Logger  *slog.Logger
}

// NewFileReader returns a reader that consults ffprobe for supplementary tags.
func NewFileReader(ffprobeBinary string, logger *slog.Logger) *FileReader {
	return &FileReader{FFprobe: ffprobeBinary, Logger: logging.NewComponentLogger(logger, "metadata")}
}

func (r *FileReader) Read(ctx context.Context, path string) (*Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "metadata", "open", path, err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "metadata", "stat", path, err)
	}

	v2, hasV2, err := audio.ReadID3v2(file)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "metadata", "read id3v2 header", path, err)
	}
	hasV1, err := audio.HasID3v1(file, info.Size())
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "metadata", "read id3v1 trailer", path, err)
	}
	if !hasV2 && !hasV1 {
		return nil, nil
	}

	tags := &Tags{HasV1: hasV1}
	if hasV2 {
		tags.Version = "ID3v" + v2.Version()
		tags.Major = v2.Major
		tags.AudioOffset = v2.Size
	} else {
		tags.Version = "ID3v1"
		tags.Major = 1
	}

	r.readFrames(ctx, path, tags)
	r.readProbeTags(ctx, path, tags)
	return tags, nil
}

func (r *FileReader) readFrames(ctx context.Context, path string, tags *Tags) {
	meta, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		tags.Warnings = append(tags.Warnings, fmt.Sprintf("tag parser: %v", err))
		return
	}
	defer meta.Close()

	tags.Artist = strings.TrimSpace(meta.Tags.Artist)
	tags.Title = strings.TrimSpace(meta.Tags.Title)
	tags.Album = strings.TrimSpace(meta.Tags.Album)
	tags.Track = meta.Tags.TrackNumber
	tags.TrackTotal = meta.Tags.TrackTotal
	tags.Duration = meta.Audio.Duration
	tags.Format = meta.Format.String()
	for _, w := range meta.Warnings {
		tags.Warnings = append(tags.Warnings, fmt.Sprint(w))
	}
}

func (r *FileReader) readProbeTags(ctx context.Context, path string, tags *Tags) {
	probe, err := ffprobe.Inspect(ctx, r.FFprobe, path)
	if err != nil {
		r.logger().Debug("ffprobe tag read failed", logging.String("path", path), logging.Error(err))
		return
	}
	mergeProbeTags(probe, tags)
}

func mergeProbeTags(probe ffprobe.Result, tags *Tags) {
	fill := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, key := range keys {
			if v := probe.Tag(key); v != "" {
				*dst = v
				return
			}
		}
	}
	fill(&tags.Artist, "artist")
	fill(&tags.Title, "title")
	fill(&tags.Album, "album")
	fill(&tags.Year, "date", "year", "TYER", "TDRC")
	fill(&tags.Genre, "genre")
	fill(&tags.Comment, "comment")
	if tags.Track == 0 {
		tags.Track, tags.TrackTotal = parseTrack(probe.Tag("track"))
	}
	if tags.Length == 0 {
		if ms, err := strconv.ParseInt(probe.Tag("TLEN"), 10, 64); err == nil && ms > 0 {
			tags.Length = time.Duration(ms) * time.Millisecond
		}
	}
	if tags.Duration == 0 {
		if seconds := probe.DurationSeconds(); seconds > 0 {
			tags.Duration = time.Duration(seconds * float64(time.Second))
		}
	}
}

// parseTrack accepts "3" or "3/12".
func parseTrack(value string) (int, int) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, 0
	}
	number, total, _ := strings.Cut(value, "/")
	n, _ := strconv.Atoi(strings.TrimSpace(number))
	t, _ := strconv.Atoi(strings.TrimSpace(total))
	return n, t
}

func (r *FileReader) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}
