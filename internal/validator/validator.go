package validator

import (
	"context"
	"log/slog"

	"audiocheck/internal/audio"
	"audiocheck/internal/metadata"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// File identifies the local file under analysis.
type File struct {
	Path string
	// Name is the display name; for downloads it comes from the source URL.
	Name   string
	Size   int64
	Source string
}

// Validator is one pluggable check. Instances are single use.
type Validator interface {
	ID() string
	Initialize(ctx context.Context, file File, rep *report.Report) error
	// BeginAnalysis receives the stream header and the validators that run
	// before this one, in declared order.
	BeginAnalysis(ctx context.Context, header audio.Header, predecessors []Validator) error
	EndAnalysis(ctx context.Context) error
}

// FrameConsumer is implemented by validators that inspect decoded audio.
type FrameConsumer interface {
	Validator
	AnalyzeFrame(frame *audio.Frame) error
}

// Deps are the collaborators handed to a validator constructor.
type Deps struct {
	Settings   *settings.Settings
	Strictness report.Strictness
	Metadata   metadata.Reader
	Logger     *slog.Logger
}

// Descriptor is one row of the immutable validator table.
type Descriptor struct {
	ID string
	// Strictness holds the default per profile: standard, strict, lenient.
	Strictness     [3]report.Strictness
	DefaultEnabled bool
	New            func(Deps) Validator
}

func profileIndex(profile string) int {
	switch profile {
	case settings.ProfileStrict:
		return 1
	case settings.ProfileLenient:
		return 2
	default:
		return 0
	}
}

// Find returns the first predecessor of type T.
func Find[T Validator](predecessors []Validator) (T, bool) {
	for _, v := range predecessors {
		if typed, ok := v.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}
