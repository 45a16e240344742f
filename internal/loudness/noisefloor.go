package loudness

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultNoiseWindow is the capture window length for the noise floor search.
	DefaultNoiseWindow = 500 * time.Millisecond
	// SilenceDBFS is reported for windows of pure digital silence.
	SilenceDBFS = -120.0

	fullScale = 32768.0
)

// NoiseFloor keeps the quietest fixed-length window seen in one forward pass.
type NoiseFloor struct {
	windowFrames int
	skipSilence  bool

	sum float64
	n   int

	best     float64
	bestAt   int64
	found    bool
	position int64
	skipped  int
}

// NewNoiseFloor sizes the capture window for sampleRate. When skipSilence is
// set, windows made entirely of zero samples are not candidates.
func NewNoiseFloor(sampleRate int, window time.Duration, skipSilence bool) (*NoiseFloor, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("noise floor: invalid sample rate %d", sampleRate)
	}
	if window <= 0 {
		window = DefaultNoiseWindow
	}
	frames := int(math.Round(window.Seconds() * float64(sampleRate)))
	if frames < 1 {
		frames = 1
	}
	return &NoiseFloor{windowFrames: frames, skipSilence: skipSilence}, nil
}

// Process accumulates interleaved samples into the capture window.
func (nf *NoiseFloor) Process(samples []int16, channels int) {
	if channels <= 0 {
		return
	}
	for i := 0; i+channels <= len(samples); i += channels {
		var energy float64
		for ch := 0; ch < channels; ch++ {
			v := float64(samples[i+ch])
			energy += v * v
		}
		nf.sum += energy / float64(channels)
		nf.n++
		nf.position++
		if nf.n == nf.windowFrames {
			nf.complete()
		}
	}
}

func (nf *NoiseFloor) complete() {
	meanSquare := nf.sum / float64(nf.n)
	start := nf.position - int64(nf.n)
	nf.sum, nf.n = 0, 0
	if nf.skipSilence && meanSquare == 0 {
		nf.skipped++
		return
	}
	if !nf.found || meanSquare < nf.best {
		nf.best = meanSquare
		nf.bestAt = start
		nf.found = true
	}
}

// Floor returns the quietest window level in dBFS.
func (nf *NoiseFloor) Floor() (float64, error) {
	if !nf.found {
		return 0, ErrNoWindows
	}
	if nf.best == 0 {
		return SilenceDBFS, nil
	}
	db := 10 * math.Log10(nf.best/(fullScale*fullScale))
	return math.Max(db, SilenceDBFS), nil
}

// Offset returns the first frame index of the quietest window.
func (nf *NoiseFloor) Offset() (int64, bool) {
	return nf.bestAt, nf.found
}

// SkippedSilentWindows returns how many digitally silent windows were ignored.
func (nf *NoiseFloor) SkippedSilentWindows() int {
	return nf.skipped
}
