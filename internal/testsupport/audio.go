package testsupport

import (
	"context"
	"math"
	"sync"

	"audiocheck/internal/audio"
)

// FrameSamples matches the per-channel frame length of the ffmpeg decoder.
const FrameSamples = 1152

// Header returns a plausible MP3 header for the given layout.
func Header(sampleRate, channels int) audio.Header {
	return audio.Header{
		Codec:      "mp3",
		Container:  "mp3",
		BitRate:    192000,
		SampleRate: sampleRate,
		Channels:   channels,
		Mode:       audio.ModeForChannels(channels),
	}
}

// Sine renders seconds of a sine wave at amplitude (0..1 of full scale),
// interleaved across channels.
func Sine(sampleRate, channels int, freq, amplitude, seconds float64) []int16 {
	frames := int(seconds * float64(sampleRate))
	out := make([]int16, frames*channels)
	for i := 0; i < frames; i++ {
		v := int16(math.Round(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))))
		for c := 0; c < channels; c++ {
			out[i*channels+c] = v
		}
	}
	return out
}

// Constant renders seconds of a fixed sample value.
func Constant(sampleRate, channels int, value int16, seconds float64) []int16 {
	out := make([]int16, int(seconds*float64(sampleRate))*channels)
	for i := range out {
		out[i] = value
	}
	return out
}

// Blocks splits interleaved PCM into decoder-sized blocks.
func Blocks(samples []int16, channels int) [][]int16 {
	size := FrameSamples * channels
	var blocks [][]int16
	for start := 0; start < len(samples); start += size {
		end := min(start+size, len(samples))
		blocks = append(blocks, samples[start:end])
	}
	return blocks
}

// Decoder serves in-memory streams and records every open.
type Decoder struct {
	mu      sync.Mutex
	Header  audio.Header
	Samples []int16
	// Err, when set, is returned by Open.
	Err     error
	// Gate, when set, is received from before every frame is delivered.
	Gate    chan struct{}
	opens   []string
	streams []*audio.SliceStream
}

// Open returns a fresh stream over the configured samples.
func (d *Decoder) Open(ctx context.Context, path string) (audio.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opens = append(d.opens, path)
	if d.Err != nil {
		return nil, d.Err
	}
	stream := audio.NewSliceStream(d.Header, Blocks(d.Samples, max(d.Header.Channels, 1)))
	d.streams = append(d.streams, stream)
	if d.Gate != nil {
		return &gatedStream{SliceStream: stream, gate: d.Gate}, nil
	}
	return stream, nil
}

// Opens returns the paths opened so far.
func (d *Decoder) Opens() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.opens...)
}

// Streams returns every stream handed out, oldest first.
func (d *Decoder) Streams() []*audio.SliceStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*audio.SliceStream(nil), d.streams...)
}

type gatedStream struct {
	*audio.SliceStream
	gate chan struct{}
}

func (g *gatedStream) Next(ctx context.Context) (*audio.Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-g.gate:
	}
	return g.SliceStream.Next(ctx)
}
