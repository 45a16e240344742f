package validator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"audiocheck/internal/audio"
	"audiocheck/internal/metadata"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// Metadata checks the tag against presence, version, required fields, and
// the decoded length measured by the format validator.
type Metadata struct {
	Base

	reader     metadata.Reader
	requireTag bool
	minVersion int
	required   []string
	tolerance  time.Duration

	tags   *metadata.Tags
	format *Format
}

func newMetadata(deps Deps) Validator {
	m := &Metadata{Base: newBase(IDMetadata, deps), reader: deps.Metadata}
	if m.reader == nil {
		m.reader = metadata.NewFileReader("ffprobe", deps.Logger)
	}
	v := m.settings.For(IDMetadata)
	m.requireTag = v.Bool("require_tag", true)
	m.minVersion = v.Int("min_id3_version", 3)
	m.required = v.Strings("required_fields", []string{"artist", "title"})
	m.tolerance = time.Duration(v.Number("length_tolerance_seconds", 2) * float64(time.Second))
	return m
}

func (m *Metadata) Initialize(ctx context.Context, file File, rep *report.Report) error {
	m.bind(file, rep)
	tags, err := m.reader.Read(ctx, file.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return m.Record("metadata.tag", report.CategoryMetadata, report.Incomplete, settings.MsgTagUnreadable, err)
	}
	if tags == nil {
		validity := report.Warn
		if m.requireTag {
			validity = report.Fail
		}
		return m.Record("metadata.tag", report.CategoryMetadata, validity, settings.MsgNoTag)
	}
	m.tags = tags

	if err := m.facts(tags); err != nil {
		return err
	}
	for _, w := range tags.Warnings {
		if err := m.Record("metadata.tag", report.CategoryMetadata, report.Warn, settings.MsgTagWarning, w); err != nil {
			return err
		}
	}
	if err := m.Record("metadata.version", report.CategoryMetadata, pass(tags.Major >= m.minVersion),
		settings.MsgTagVersion, tags.Version, m.minVersion); err != nil {
		return err
	}
	for _, field := range m.required {
		if strings.TrimSpace(field) == "" {
			continue
		}
		if err := m.Record("metadata.fields", report.CategoryMetadata, pass(tags.Field(field) != ""),
			settings.MsgFieldMissing, field); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metadata) facts(tags *metadata.Tags) error {
	track := ""
	if tags.Track > 0 {
		track = strconv.Itoa(tags.Track)
		if tags.TrackTotal > 0 {
			track += "/" + strconv.Itoa(tags.TrackTotal)
		}
	}
	lines := []struct{ label, value string }{
		{"Tag", tags.Version},
		{"Artist", tags.Artist},
		{"Title", tags.Title},
		{"Album", tags.Album},
		{"Year", tags.Year},
		{"Genre", tags.Genre},
		{"Track", track},
	}
	for _, line := range lines {
		if line.value == "" {
			continue
		}
		if err := m.Info(report.CategoryMetadata, line.label, "%s", line.value); err != nil {
			return err
		}
	}
	if tags.Length > 0 {
		return m.Info(report.CategoryMetadata, "Tagged length", "%s", tags.Length)
	}
	return nil
}

func (m *Metadata) BeginAnalysis(_ context.Context, _ audio.Header, predecessors []Validator) error {
	if f, ok := Find[*Format](predecessors); ok {
		m.format = f
	}
	return nil
}

func (m *Metadata) EndAnalysis(context.Context) error {
	if m.tags == nil || m.tags.Length <= 0 || m.format == nil {
		return nil
	}
	decoded := m.format.DecodedDuration()
	if decoded <= 0 {
		return nil
	}
	diff := m.tags.Length - decoded
	if diff < 0 {
		diff = -diff
	}
	validity := report.Pass
	if diff > m.tolerance {
		validity = report.Warn
	}
	return m.Record("metadata.length", report.CategoryMetadata, validity, settings.MsgLengthMismatch,
		m.tags.Length.Round(time.Millisecond).String(), decoded.Round(time.Millisecond).String())
}

// Tags returns the tag view read during Initialize, or nil.
func (m *Metadata) Tags() *metadata.Tags {
	return m.tags
}
