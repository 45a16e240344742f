package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"audiocheck/internal/audio"
	"audiocheck/internal/logging"
	"audiocheck/internal/media/ffprobe"
	"audiocheck/internal/services"
)

// DefaultFrameSamples matches the MPEG-1 Layer III frame length.
const DefaultFrameSamples = 1152

// Decoder opens files through ffprobe and ffmpeg.
type Decoder struct {
	FFmpeg       string
	FFprobe      string
	FrameSamples int
	Logger       *slog.Logger
}

// New returns a decoder using the given binaries.
func New(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Decoder {
	return &Decoder{
		FFmpeg:       ffmpegBinary,
		FFprobe:      ffprobeBinary,
		FrameSamples: DefaultFrameSamples,
		Logger:       logging.NewComponentLogger(logger, "decoder"),
	}
}

// Open probes path and starts a PCM stream.
func (d *Decoder) Open(ctx context.Context, path string) (audio.Stream, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "decode", "stat", path, err)
	}
	if info.IsDir() {
		return nil, &audio.FormatError{Path: path, Guess: "directory"}
	}

	probe, err := ffprobe.Inspect(ctx, d.FFprobe, path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return nil, services.Wrap(services.ErrExternalTool, "decode", "ffprobe", "", err)
		}
		return nil, &audio.FormatError{Path: path, Guess: GuessFormat(path), Err: err}
	}
	stream, err := probe.FirstAudio()
	if err != nil {
		return nil, &audio.FormatError{Path: path, Guess: GuessFormat(path), Err: err}
	}

	header := headerFromProbe(probe, stream)
	header.Size = info.Size()
	if err := inspectFrames(path, &header); err != nil {
		return nil, services.Wrap(services.ErrTransient, "decode", "read header", path, err)
	}
	if header.SampleRate <= 0 || header.Channels <= 0 {
		return nil, &audio.FormatError{Path: path, Guess: GuessFormat(path), Err: fmt.Errorf("stream reports %d Hz, %d channels", header.SampleRate, header.Channels)}
	}

	frameSamples := d.FrameSamples
	if frameSamples <= 0 {
		frameSamples = DefaultFrameSamples
	}
	pcm, err := startPCM(ctx, d.ffmpegBinary(), path, header, frameSamples)
	if err != nil {
		return nil, err
	}
	d.Logger.Debug("decoder opened",
		logging.String("path", path),
		logging.String("header", header.String()),
	)
	return pcm, nil
}

func (d *Decoder) ffmpegBinary() string {
	if bin := strings.TrimSpace(d.FFmpeg); bin != "" {
		return bin
	}
	return "ffmpeg"
}

func headerFromProbe(probe ffprobe.Result, stream ffprobe.Stream) audio.Header {
	header := audio.Header{
		Codec:      strings.ToLower(stream.CodecName),
		Container:  probe.Format.FormatName,
		BitRate:    stream.BitRateBPS(),
		SampleRate: stream.SampleRateHz(),
		Channels:   stream.Channels,
		Mode:       audio.ModeForChannels(stream.Channels),
	}
	if header.BitRate == 0 {
		header.BitRate = int(probe.BitRate())
	}
	if seconds := probe.DurationSeconds(); seconds > 0 && !math.IsNaN(seconds) {
		header.Duration = time.Duration(seconds * float64(time.Second))
	}
	return header
}

// inspectFrames locates the first audio frame past any ID3v2 tag and checks
// it for a VBR header.
func inspectFrames(path string, header *audio.Header) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if tag, ok, err := audio.ReadID3v2(file); err != nil {
		return err
	} else if ok {
		header.DataOffset = tag.Size
	}
	if header.Codec != "mp3" {
		return nil
	}
	vbr, err := audio.DetectVBR(file, header.DataOffset)
	if err != nil {
		return err
	}
	header.VBR = vbr
	return nil
}

// GuessFormat sniffs the file's content type. It returns "" when the file
// cannot be read.
func GuessFormat(path string) string {
	mtype, err := mimetype.DetectFile(path)
	if err != nil || mtype == nil {
		return ""
	}
	if ext := mtype.Extension(); ext != "" {
		return fmt.Sprintf("%s (%s)", mtype.String(), ext)
	}
	return mtype.String()
}
