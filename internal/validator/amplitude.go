package validator

import (
	"context"
	"errors"
	"math"

	"audiocheck/internal/audio"
	"audiocheck/internal/logging"
	"audiocheck/internal/loudness"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// Amplitude measures perceived loudness against a target and counts clipped
// samples.
type Amplitude struct {
	Base

	target        float64
	maxDeviation  float64
	warnDeviation float64
	maxClipped    float64
	warnClipped   float64

	analyzer   *loudness.Analyzer
	clips      *loudness.ClipDetector
	sampleRate int

	volume    float64
	hasVolume bool
}

func newAmplitude(deps Deps) Validator {
	a := &Amplitude{Base: newBase(IDAmplitude, deps)}
	v := a.settings.For(IDAmplitude)
	a.target = v.Number("target_db", loudness.ReferenceLevel)
	a.maxDeviation = v.Number("max_deviation_db", 3)
	a.warnDeviation = v.Number("warn_deviation_db", 1.5)
	a.maxClipped = v.Number("max_clipped_percent", 0.01)
	a.warnClipped = v.Number("warn_clipped_percent", 0.001)
	a.clips = loudness.NewClipDetector(v.Int("clip_min_run", loudness.DefaultMinClipRun))
	return a
}

func (a *Amplitude) Initialize(_ context.Context, file File, rep *report.Report) error {
	a.bind(file, rep)
	return nil
}

func (a *Amplitude) BeginAnalysis(_ context.Context, h audio.Header, _ []Validator) error {
	a.sampleRate = h.SampleRate
	analyzer, err := loudness.NewAnalyzer(h.SampleRate)
	if err != nil {
		a.logger.Debug("loudness analyzer unavailable", logging.Error(err))
		return a.Record("amplitude.loudness", report.CategoryAudio, report.Incomplete, settings.MsgLoudnessRate, h.SampleRate)
	}
	a.analyzer = analyzer
	return nil
}

func (a *Amplitude) AnalyzeFrame(frame *audio.Frame) error {
	if a.analyzer != nil {
		a.analyzer.Process(frame.Samples, frame.Channels)
	}
	a.clips.Process(frame.Samples, frame.Channels)
	return nil
}

func (a *Amplitude) EndAnalysis(context.Context) error {
	if err := a.endLoudness(); err != nil {
		return err
	}
	return a.endClipping()
}

func (a *Amplitude) endLoudness() error {
	if a.analyzer == nil {
		return nil
	}
	volume, err := a.analyzer.Volume()
	if errors.Is(err, loudness.ErrNoWindows) {
		return a.Record("amplitude.loudness", report.CategoryAudio, report.Incomplete, settings.MsgLoudnessUnmeasured)
	}
	if err != nil {
		return err
	}
	a.volume, a.hasVolume = volume, true
	gain, _ := a.analyzer.Gain(a.target)
	if err := a.Info(report.CategoryAudio, "Loudness", "%.2f dB", volume); err != nil {
		return err
	}
	if err := a.Info(report.CategoryAudio, "Gain to target", "%+.2f dB", gain); err != nil {
		return err
	}
	if peak, ok := a.PeakDBFS(); ok {
		if err := a.Info(report.CategoryAudio, "Peak", "%.2f dBFS", peak); err != nil {
			return err
		}
	}

	deviation := volume - a.target
	quiet := rate(-deviation, a.maxDeviation, a.warnDeviation)
	loud := rate(deviation, a.maxDeviation, a.warnDeviation)
	if err := a.Record("amplitude.too_quiet", report.CategoryAudio, quiet, settings.MsgTooQuiet, volume, -deviation, a.target); err != nil {
		return err
	}
	return a.Record("amplitude.too_loud", report.CategoryAudio, loud, settings.MsgTooLoud, volume, deviation, a.target)
}

func (a *Amplitude) endClipping() error {
	percent := a.clips.ClippedPercent()
	seconds := a.clips.ClippedSeconds(a.sampleRate)
	if err := a.Info(report.CategoryAudio, "Clipped samples", "%d", a.clips.ClippedSamples()); err != nil {
		return err
	}
	validity := rate(percent, a.maxClipped, a.warnClipped)
	if a.clips.ClippedSamples() == 0 {
		validity = report.Pass
	}
	return a.Record("amplitude.clipping", report.CategoryAudio, validity, settings.MsgClipping, percent, seconds)
}

// Volume returns the measured loudness once EndAnalysis has run.
func (a *Amplitude) Volume() (float64, bool) {
	return a.volume, a.hasVolume
}

// PeakDBFS returns the largest sample magnitude in dBFS.
func (a *Amplitude) PeakDBFS() (float64, bool) {
	if a.analyzer == nil || a.analyzer.Peak() <= 0 {
		return 0, false
	}
	return 20 * math.Log10(a.analyzer.Peak()), true
}

// rate grades value against a fail and a warn threshold; larger is worse.
func rate(value, fail, warn float64) report.Validity {
	switch {
	case value > fail:
		return report.Fail
	case value > warn:
		return report.Warn
	default:
		return report.Pass
	}
}
