package validator

import (
	"context"
	"errors"
	"time"

	"audiocheck/internal/audio"
	"audiocheck/internal/loudness"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// Noise finds the quietest window of the file and compares it with fixed
// limits and, when an amplitude validator ran first, with the signal peak.
type Noise struct {
	Base

	window      time.Duration
	maxFloor    float64
	warnFloor   float64
	minSNR      float64
	skipSilence bool

	floor      *loudness.NoiseFloor
	sampleRate int
	amplitude  *Amplitude
}

func newNoise(deps Deps) Validator {
	n := &Noise{Base: newBase(IDNoise, deps)}
	v := n.settings.For(IDNoise)
	n.window = time.Duration(v.Int("window_ms", int(loudness.DefaultNoiseWindow/time.Millisecond))) * time.Millisecond
	n.maxFloor = v.Number("max_noise_floor_dbfs", -60)
	n.warnFloor = v.Number("warn_noise_floor_dbfs", -70)
	n.minSNR = v.Number("min_snr_db", 40)
	n.skipSilence = v.Bool("skip_digital_silence", true)
	return n
}

func (n *Noise) Initialize(_ context.Context, file File, rep *report.Report) error {
	n.bind(file, rep)
	return nil
}

func (n *Noise) BeginAnalysis(_ context.Context, h audio.Header, predecessors []Validator) error {
	n.sampleRate = h.SampleRate
	if amp, ok := Find[*Amplitude](predecessors); ok {
		n.amplitude = amp
	}
	floor, err := loudness.NewNoiseFloor(h.SampleRate, n.window, n.skipSilence)
	if err != nil {
		return n.Record("noise.floor", report.CategoryAudio, report.Incomplete, settings.MsgNoiseUnmeasured)
	}
	n.floor = floor
	return nil
}

func (n *Noise) AnalyzeFrame(frame *audio.Frame) error {
	if n.floor != nil {
		n.floor.Process(frame.Samples, frame.Channels)
	}
	return nil
}

func (n *Noise) EndAnalysis(context.Context) error {
	if n.floor == nil {
		return nil
	}
	floor, err := n.floor.Floor()
	if errors.Is(err, loudness.ErrNoWindows) {
		return n.Record("noise.floor", report.CategoryAudio, report.Incomplete, settings.MsgNoiseUnmeasured)
	}
	if err != nil {
		return err
	}
	if err := n.Info(report.CategoryAudio, "Noise floor", "%.1f dBFS", floor); err != nil {
		return err
	}
	if offset, ok := n.floor.Offset(); ok && n.sampleRate > 0 {
		at := time.Duration(offset) * time.Second / time.Duration(n.sampleRate)
		if err := n.Info(report.CategoryAudio, "Quietest window at", "%s", at.Round(time.Millisecond)); err != nil {
			return err
		}
	}
	if err := n.Record("noise.floor", report.CategoryAudio, rate(floor, n.maxFloor, n.warnFloor), settings.MsgNoiseFloor, floor, n.maxFloor); err != nil {
		return err
	}

	if n.amplitude == nil {
		return nil
	}
	peak, ok := n.amplitude.PeakDBFS()
	if !ok {
		return nil
	}
	snr := peak - floor
	if err := n.Info(report.CategoryAudio, "Signal-to-noise ratio", "%.1f dB", snr); err != nil {
		return err
	}
	validity := report.Pass
	if snr < n.minSNR {
		validity = report.Fail
	}
	return n.Record("noise.snr", report.CategoryAudio, validity, settings.MsgSNR, snr, n.minSNR)
}
