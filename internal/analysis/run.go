package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"audiocheck/internal/audio"
	"audiocheck/internal/logging"
	"audiocheck/internal/report"
	"audiocheck/internal/services"
	"audiocheck/internal/settings"
	"audiocheck/internal/validator"
)

// ProgressFunc receives decoded samples per channel against the expected
// total, which is -1 when the stream length is unknown.
type ProgressFunc func(current, max int64)

// Input describes one run.
type Input struct {
	File       validator.File
	Stream     audio.Stream
	Validators []validator.Validator
	Report     *report.Report
	Settings   *settings.Settings
	Progress   ProgressFunc
	Logger     *slog.Logger
}

// Result summarizes a finished run.
type Result struct {
	Frames  int64
	Samples int64
	Elapsed time.Duration
	// Faulted names the validator whose fault ended the run.
	Faulted string
}

// Fault is a validator failure captured during a run.
type Fault struct {
	Validator string
	Phase     string
	Err       error
	Stack     []byte
}

func (f *Fault) Error() string {
	return fmt.Sprintf("validator %s: %s: %v", f.Validator, f.Phase, f.Err)
}

func (f *Fault) Unwrap() []error {
	return []error{services.ErrValidatorFault, f.Err}
}

// Run executes the protocol and closes the report unless the context was
// cancelled. The returned error is ctx.Err() on cancellation, a *Fault when a
// validator failed, or a transient error when the stream broke.
func Run(ctx context.Context, in Input) (Result, error) {
	start := time.Now()
	logger := in.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	s := in.Settings
	if s == nil {
		s = settings.Default()
	}
	r := &runner{in: in, settings: s, logger: logging.WithContext(ctx, logger)}
	err := r.run(ctx)
	r.result.Elapsed = time.Since(start)
	if services.IsCancellation(err) {
		return r.result, err
	}
	r.fileStreamWarnings()
	if err := in.Report.Close(); err != nil {
		return r.result, fmt.Errorf("close report: %w", err)
	}
	return r.result, err
}

type runner struct {
	in       Input
	settings *settings.Settings
	logger   *slog.Logger
	result   Result
}

func (r *runner) run(ctx context.Context) error {
	validators := r.in.Validators
	header := r.in.Stream.Header()

	for _, v := range validators {
		if err := r.call(ctx, v, "initialize", func() error {
			return v.Initialize(ctx, r.in.File, r.in.Report)
		}); err != nil {
			return err
		}
	}
	for i, v := range validators {
		predecessors := validators[:i:i]
		if err := r.call(ctx, v, "begin analysis", func() error {
			return v.BeginAnalysis(ctx, header, predecessors)
		}); err != nil {
			return err
		}
	}

	consumers := make([]validator.FrameConsumer, 0, len(validators))
	for _, v := range validators {
		if fc, ok := v.(validator.FrameConsumer); ok {
			consumers = append(consumers, fc)
		}
	}
	if err := r.decode(ctx, header, consumers); err != nil {
		return err
	}

	for _, v := range validators {
		if err := r.call(ctx, v, "end analysis", func() error {
			return v.EndAnalysis(ctx)
		}); err != nil {
			return err
		}
	}
	r.logger.Debug("analysis finished",
		logging.Int64("frames", r.result.Frames),
		logging.Int64("samples", r.result.Samples),
		logging.Int("validators", len(validators)),
	)
	return nil
}

func (r *runner) decode(ctx context.Context, header audio.Header, consumers []validator.FrameConsumer) error {
	total := int64(-1)
	if header.Duration > 0 && header.SampleRate > 0 {
		total = int64(header.Duration.Seconds() * float64(header.SampleRate))
	}
	progress := newThrottle(r.in.Progress, total)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := r.in.Stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			progress.finish(r.result.Samples)
			return nil
		}
		if err != nil {
			if services.IsCancellation(err) || ctx.Err() != nil {
				return ctx.Err()
			}
			_ = r.in.Report.SetFatal(r.settings.Text(settings.MsgReadFailed, err))
			return services.Wrap(services.ErrTransient, "analysis", "decode", r.in.File.Path, err)
		}
		r.result.Frames++
		r.result.Samples += int64(frame.SampleCount())
		for _, fc := range consumers {
			if err := r.call(ctx, fc, "analyze frame", func() error {
				return fc.AnalyzeFrame(frame)
			}); err != nil {
				return err
			}
		}
		progress.update(r.result.Samples)
	}
}

// fileStreamWarnings records recoverable decode faults under the error
// category, where they stay visible next to a fatal override. It runs on every
// exit except cancellation.
func (r *runner) fileStreamWarnings() {
	for _, w := range r.in.Stream.Warnings() {
		_ = r.in.Report.Add(report.Finding{
			Category: report.CategoryError,
			Validity: report.Warn,
			Rule:     "decode.warning",
			Message:  r.settings.Text(settings.MsgDecodeWarning, w),
		})
	}
}

// call runs one validator step, turning errors and panics into a fatal report
// override. Cancellation passes through untouched.
func (r *runner) call(ctx context.Context, v validator.Validator, phase string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = r.fault(v, phase, fmt.Errorf("panic: %v", rec), debug.Stack())
		}
	}()
	if err := fn(); err != nil {
		if services.IsCancellation(err) && ctx.Err() != nil {
			return err
		}
		return r.fault(v, phase, err, nil)
	}
	return nil
}

func (r *runner) fault(v validator.Validator, phase string, cause error, stack []byte) error {
	f := &Fault{Validator: v.ID(), Phase: phase, Err: cause, Stack: stack}
	r.result.Faulted = f.Validator
	msg := r.settings.Text(settings.MsgValidatorFault, f.Validator, cause)
	if len(stack) > 0 {
		msg += "\n" + string(stack)
	}
	_ = r.in.Report.SetFatal(msg)
	logging.ErrorWithContext(r.logger, "validator fault", "validator_fault",
		logging.String(logging.FieldValidator, f.Validator),
		logging.String("phase", phase),
		logging.Error(cause),
	)
	return f
}

type throttle struct {
	fn    ProgressFunc
	total int64
	last  int64
}

func newThrottle(fn ProgressFunc, total int64) *throttle {
	return &throttle{fn: fn, total: total, last: -1}
}

// update forwards progress at most once per percent, or once per 64 Ki
// samples when the length is unknown.
func (t *throttle) update(current int64) {
	if t.fn == nil {
		return
	}
	var step int64
	if t.total > 0 {
		step = min(current, t.total) * 100 / t.total
	} else {
		step = current >> 16
	}
	if step == t.last {
		return
	}
	t.last = step
	t.fn(current, t.total)
}

func (t *throttle) finish(current int64) {
	if t.fn == nil {
		return
	}
	if t.total > 0 && current < t.total {
		current = t.total
	}
	t.fn(current, t.total)
}
