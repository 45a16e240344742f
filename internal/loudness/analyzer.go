package loudness

import (
	"errors"
	"fmt"
	"math"
)

const (
	// StepsPerDB is the histogram resolution.
	StepsPerDB = 100
	// MaxDB is the top of the histogram range.
	MaxDB = 120
	// ReferenceLevel is the loudness a zero gain adjustment corresponds to.
	ReferenceLevel = 89.0
	// PinkReference calibrates the histogram level against pink noise at the reference level.
	PinkReference = 64.82
	// DefaultPercentile is the fraction of windows quieter than the reported level.
	DefaultPercentile = 0.95
	// WindowSeconds is the RMS window length.
	WindowSeconds = float64(windowMillis) / 1000

	windowMillis  = 50
	histogramBins = StepsPerDB * MaxDB
)

// ErrNoWindows is returned when a result is requested before one full
// analysis window has been processed.
var ErrNoWindows = errors.New("loudness: no analysis windows processed")

// Histogram counts analysis windows per loudness step.
type Histogram [histogramBins]uint32

// Total returns the number of recorded windows.
func (h *Histogram) Total() uint64 {
	var total uint64
	for _, count := range h {
		total += uint64(count)
	}
	return total
}

// Analyzer estimates perceptual loudness from a stream of PCM frames.
// An Analyzer is bound to one file and must not be reused.
type Analyzer struct {
	sampleRate int
	entry      rateEntry
	percentile float64

	left, right cascade

	pending    [2]float64
	pendingLen int

	windowSize int
	windowLen  int
	lsum, rsum float64

	windows int
	peak    int
	hist    Histogram
}

// NewAnalyzer prepares a loudness analyzer for audio at sampleRate.
// The filter pair is chosen by nearest supported rate.
func NewAnalyzer(sampleRate int) (*Analyzer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("loudness: invalid sample rate %d", sampleRate)
	}
	entry := nearestRate(sampleRate)
	effective := sampleRate / entry.decimate
	windowSize := (effective*windowMillis + 999) / 1000
	return &Analyzer{
		sampleRate: sampleRate,
		entry:      entry,
		percentile: DefaultPercentile,
		left:       newCascade(entry.filters),
		right:      newCascade(entry.filters),
		windowSize: windowSize,
	}, nil
}

// FilterRate reports the coefficient table rate in use.
func (a *Analyzer) FilterRate() int {
	return a.entry.filters.rate
}

// Process feeds interleaved samples with the given channel count. Mono input
// is analysed as two identical channels; channels beyond the second are ignored.
func (a *Analyzer) Process(samples []int16, channels int) {
	if channels <= 0 {
		return
	}
	for i := 0; i+channels <= len(samples); i += channels {
		l := samples[i]
		r := l
		if channels > 1 {
			r = samples[i+1]
		}
		a.trackPeak(l)
		a.trackPeak(r)
		a.push(float64(l), float64(r))
	}
}

func (a *Analyzer) trackPeak(s int16) {
	v := int(s)
	if v < 0 {
		v = -v
	}
	if v > a.peak {
		a.peak = v
	}
}

func (a *Analyzer) push(l, r float64) {
	if a.entry.decimate > 1 {
		a.pending[0] += l
		a.pending[1] += r
		a.pendingLen++
		if a.pendingLen < a.entry.decimate {
			return
		}
		n := float64(a.pendingLen)
		l, r = a.pending[0]/n, a.pending[1]/n
		a.pending = [2]float64{}
		a.pendingLen = 0
	}

	fl := a.left.step(l)
	fr := a.right.step(r)
	a.lsum += fl * fl
	a.rsum += fr * fr
	a.windowLen++
	if a.windowLen >= a.windowSize {
		a.closeWindow()
	}
}

func (a *Analyzer) closeWindow() {
	meanSquare := (a.lsum+a.rsum)/float64(a.windowLen)*0.5 + 1e-37
	bin := int(math.Floor(StepsPerDB * 10 * math.Log10(meanSquare)))
	if bin < 0 {
		bin = 0
	}
	if bin >= histogramBins {
		bin = histogramBins - 1
	}
	a.hist[bin]++
	a.windows++
	a.lsum, a.rsum = 0, 0
	a.windowLen = 0
}

// Windows returns the number of completed analysis windows.
func (a *Analyzer) Windows() int {
	return a.windows
}

// Peak returns the largest absolute sample seen, as a fraction of full scale.
func (a *Analyzer) Peak() float64 {
	return float64(a.peak) / 32768.0
}

// Histogram returns a copy of the accumulated window histogram.
func (a *Analyzer) Histogram() Histogram {
	return a.hist
}

// Level returns the histogram level below which the configured percentile of
// windows lies, scanning from the loud end. It is not calibrated.
func (a *Analyzer) Level() (float64, error) {
	return levelAt(&a.hist, a.percentile)
}

// Volume returns the calibrated loudness estimate in dB.
func (a *Analyzer) Volume() (float64, error) {
	level, err := a.Level()
	if err != nil {
		return 0, err
	}
	return level + (ReferenceLevel - PinkReference), nil
}

// Gain returns the adjustment in dB needed to bring the audio to target.
func (a *Analyzer) Gain(target float64) (float64, error) {
	level, err := a.Level()
	if err != nil {
		return 0, err
	}
	return (target - ReferenceLevel) + (PinkReference - level), nil
}

func levelAt(hist *Histogram, percentile float64) (float64, error) {
	total := hist.Total()
	if total == 0 {
		return 0, ErrNoWindows
	}
	upper := int64(math.Ceil(float64(total) * (1 - percentile)))
	i := len(hist) - 1
	for ; i > 0; i-- {
		upper -= int64(hist[i])
		if upper <= 0 {
			break
		}
	}
	return float64(i) / StepsPerDB, nil
}
