package audio

import (
	"context"
	"fmt"
	"time"
)

// ChannelMode describes how the channels of a stream are laid out.
type ChannelMode string

const (
	ChannelMono         ChannelMode = "mono"
	ChannelStereo       ChannelMode = "stereo"
	ChannelJointStereo  ChannelMode = "joint_stereo"
	ChannelDualChannel  ChannelMode = "dual_channel"
	ChannelMultichannel ChannelMode = "multichannel"
)

// Header describes a stream before any frame is decoded.
type Header struct {
	Codec      string
	Container  string
	BitRate    int
	SampleRate int
	Channels   int
	Mode       ChannelMode
	VBR        bool
	// Duration is the container-reported length; zero when unknown.
	Duration time.Duration
	// DataOffset is the byte offset of the first audio frame in the file.
	DataOffset int64
	Size       int64
}

// String renders a compact human readable summary.
func (h Header) String() string {
	mode := "CBR"
	if h.VBR {
		mode = "VBR"
	}
	return fmt.Sprintf("%s %d Hz %s %d kbps %s", h.Codec, h.SampleRate, h.Mode, h.BitRate/1000, mode)
}

// Frame is one block of decoded interleaved PCM. Samples is owned by the
// stream and is overwritten by the next call to Next; callers that need the
// data afterwards must copy it.
type Frame struct {
	Channels   int
	SampleRate int
	Samples    []int16
}

// SampleCount returns the number of samples per channel.
func (f *Frame) SampleCount() int {
	if f == nil || f.Channels <= 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// Duration returns the playback length of the frame.
func (f *Frame) Duration() time.Duration {
	if f == nil || f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.SampleCount()) * time.Second / time.Duration(f.SampleRate)
}

// Stream is a finite, non-restartable sequence of frames.
type Stream interface {
	Header() Header
	// Next returns the next frame, or io.EOF once the stream is exhausted.
	Next(ctx context.Context) (*Frame, error)
	// Warnings lists recoverable decode faults seen so far.
	Warnings() []string
	Close() error
}

// Decoder opens a file for decoding.
type Decoder interface {
	Open(ctx context.Context, path string) (Stream, error)
}

// ModeForChannels maps a plain channel count to a mode.
func ModeForChannels(channels int) ChannelMode {
	switch {
	case channels == 1:
		return ChannelMono
	case channels == 2:
		return ChannelStereo
	default:
		return ChannelMultichannel
	}
}
