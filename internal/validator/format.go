package validator

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"audiocheck/internal/audio"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// Format checks the stream header and measures the decoded length.
type Format struct {
	Base

	allowedRates  []int
	minBitRate    int
	allowVBR      bool
	requireStereo bool
	minDuration   time.Duration

	sampleRate int
	samples    int64
}

func newFormat(deps Deps) Validator {
	f := &Format{Base: newBase(IDFormat, deps)}
	v := f.settings.For(IDFormat)
	f.allowedRates = v.Ints("allowed_sample_rates", []int{44100, 48000})
	f.minBitRate = v.Int("min_bitrate_kbps", 128)
	f.allowVBR = v.Bool("allow_vbr", true)
	f.requireStereo = v.Bool("require_stereo", false)
	f.minDuration = time.Duration(v.Number("min_duration_seconds", 1) * float64(time.Second))
	return f
}

func (f *Format) Initialize(_ context.Context, file File, rep *report.Report) error {
	f.bind(file, rep)
	if err := f.Info(report.CategoryFile, "Name", "%s", file.Name); err != nil {
		return err
	}
	if file.Source != "" && file.Source != file.Path {
		if err := f.Info(report.CategoryFile, "Source", "%s", file.Source); err != nil {
			return err
		}
	}
	return f.Info(report.CategoryFile, "Size", "%d bytes", file.Size)
}

func (f *Format) BeginAnalysis(_ context.Context, h audio.Header, _ []Validator) error {
	f.sampleRate = h.SampleRate
	encoding := "CBR"
	if h.VBR {
		encoding = "VBR"
	}
	facts := []struct{ label, value string }{
		{"Codec", h.Codec},
		{"Container", h.Container},
		{"Sample rate", strconv.Itoa(h.SampleRate) + " Hz"},
		{"Bit rate", strconv.Itoa(h.BitRate/1000) + " kbps"},
		{"Channels", strconv.Itoa(h.Channels) + " (" + string(h.Mode) + ")"},
		{"Encoding", encoding},
	}
	if h.Duration > 0 {
		facts = append(facts, struct{ label, value string }{"Reported duration", h.Duration.Round(time.Millisecond).String()})
	}
	for _, fact := range facts {
		if err := f.Info(report.CategoryFormat, fact.label, "%s", fact.value); err != nil {
			return err
		}
	}

	checks := []struct {
		rule string
		bad  bool
		key  string
		args []any
	}{
		{"format.codec", !strings.EqualFold(h.Codec, "mp3"), settings.MsgCodec, []any{h.Codec}},
		{"format.sample_rate", len(f.allowedRates) > 0 && !slices.Contains(f.allowedRates, h.SampleRate),
			settings.MsgSampleRate, []any{h.SampleRate, joinInts(f.allowedRates)}},
		{"format.bitrate", h.BitRate > 0 && h.BitRate/1000 < f.minBitRate, settings.MsgBitRate, []any{h.BitRate / 1000, f.minBitRate}},
		{"format.vbr", h.VBR && !f.allowVBR, settings.MsgVBR, nil},
		{"format.channels", h.Channels > 2, settings.MsgChannels, []any{h.Channels}},
	}
	for _, c := range checks {
		validity := report.Pass
		if c.bad {
			validity = report.Fail
		}
		if err := f.Record(c.rule, report.CategoryFormat, validity, c.key, c.args...); err != nil {
			return err
		}
	}
	if f.requireStereo && h.Channels != 2 {
		return f.Record("format.channels", report.CategoryFormat, report.Fail, settings.MsgStereoRequired, string(h.Mode))
	}
	return nil
}

func (f *Format) AnalyzeFrame(frame *audio.Frame) error {
	f.samples += int64(frame.SampleCount())
	if frame.SampleRate > 0 {
		f.sampleRate = frame.SampleRate
	}
	return nil
}

func (f *Format) EndAnalysis(context.Context) error {
	if f.samples == 0 {
		return f.Record("format.duration", report.CategoryFormat, report.Fail, settings.MsgNoFrames)
	}
	decoded := f.DecodedDuration()
	if err := f.Info(report.CategoryFormat, "Decoded duration", "%s", decoded.Round(time.Millisecond)); err != nil {
		return err
	}
	validity := report.Pass
	if f.minDuration > 0 && decoded < f.minDuration {
		validity = report.Fail
	}
	return f.Record("format.duration", report.CategoryFormat, validity, settings.MsgTooShort,
		decoded.Round(time.Millisecond).String(), f.minDuration.String())
}

// DecodedDuration returns the length of the audio delivered so far.
func (f *Format) DecodedDuration() time.Duration {
	if f.sampleRate <= 0 {
		return 0
	}
	return time.Duration(f.samples) * time.Second / time.Duration(f.sampleRate)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
