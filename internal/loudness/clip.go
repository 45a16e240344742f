package loudness

import "math"

// DefaultMinClipRun is the shortest run of at-rail samples counted as clipping.
const DefaultMinClipRun = 2

// ClipDetector counts samples belonging to runs of consecutive full-scale
// samples on the same channel. Runs shorter than the minimum count nothing;
// once a run reaches the minimum every sample in it counts.
type ClipDetector struct {
	minRun  int
	runs    []int
	clipped int64
	frames  int64
}

// NewClipDetector returns a detector with the given minimum run. Values below
// one fall back to DefaultMinClipRun.
func NewClipDetector(minRun int) *ClipDetector {
	if minRun < 1 {
		minRun = DefaultMinClipRun
	}
	return &ClipDetector{minRun: minRun}
}

// Process scans interleaved samples. Runs carry across calls.
func (c *ClipDetector) Process(samples []int16, channels int) {
	if channels <= 0 {
		return
	}
	if len(c.runs) != channels {
		c.runs = make([]int, channels)
	}
	for i, s := range samples {
		ch := i % channels
		if s != math.MaxInt16 && s != math.MinInt16 {
			c.runs[ch] = 0
			continue
		}
		c.runs[ch]++
		switch {
		case c.runs[ch] == c.minRun:
			c.clipped += int64(c.minRun)
		case c.runs[ch] > c.minRun:
			c.clipped++
		}
	}
	c.frames += int64(len(samples) / channels)
}

// ClippedSamples returns the total of clipped samples across channels.
func (c *ClipDetector) ClippedSamples() int64 {
	return c.clipped
}

// Frames returns the number of sample frames scanned.
func (c *ClipDetector) Frames() int64 {
	return c.frames
}

// ClippedPercent returns clipped samples as a percentage of all samples
// scanned. Zero when nothing has been scanned.
func (c *ClipDetector) ClippedPercent() float64 {
	channels := len(c.runs)
	if c.frames == 0 || channels == 0 {
		return 0
	}
	return float64(c.clipped) / float64(c.frames*int64(channels)) * 100
}

// ClippedSeconds converts the clipped sample total to a per-channel duration.
func (c *ClipDetector) ClippedSeconds(sampleRate int) float64 {
	channels := len(c.runs)
	if sampleRate <= 0 || channels == 0 {
		return 0
	}
	return float64(c.clipped) / float64(channels) / float64(sampleRate)
}
