package analysis

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"audiocheck/internal/audio"
	"audiocheck/internal/report"
	"audiocheck/internal/services"
	"audiocheck/internal/testsupport"
	"audiocheck/internal/validator"
)

type spy struct {
	id       string
	mu       sync.Mutex
	calls    []string
	frames   []int16
	preds    []string
	panicAt  int
	failOn   string
	onFrame  func(n int)
	consumer bool
}

func (s *spy) ID() string { return s.id }

func (s *spy) record(call string) error {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	if s.failOn == call {
		return errors.New(call + " broke")
	}
	return nil
}

func (s *spy) Initialize(context.Context, validator.File, *report.Report) error {
	return s.record("init")
}

func (s *spy) BeginAnalysis(_ context.Context, _ audio.Header, preds []validator.Validator) error {
	for _, p := range preds {
		s.preds = append(s.preds, p.ID())
	}
	return s.record("begin")
}

func (s *spy) EndAnalysis(context.Context) error {
	return s.record("end")
}

type consumerSpy struct{ *spy }

func (c consumerSpy) AnalyzeFrame(f *audio.Frame) error {
	c.frames = append(c.frames, f.Samples[0])
	n := len(c.frames)
	if c.onFrame != nil {
		c.onFrame(n)
	}
	if c.panicAt > 0 && n == c.panicAt {
		panic("boom")
	}
	return c.record("frame")
}

func (s *spy) has(call string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == call {
			return true
		}
	}
	return false
}

// numbered builds n single-sample mono blocks whose value is their index.
func numbered(n int) [][]int16 {
	blocks := make([][]int16, n)
	for i := range blocks {
		blocks[i] = []int16{int16(i)}
	}
	return blocks
}

func TestZeroFrameStreamStillEndsEveryValidator(t *testing.T) {
	a, b := &spy{id: "a"}, &spy{id: "b"}
	rep := report.New("empty.mp3")
	stream := audio.NewSliceStream(testsupport.Header(44100, 1), nil)
	_, err := Run(context.Background(), Input{
		File:       validator.File{Path: "empty.mp3"},
		Stream:     stream,
		Validators: []validator.Validator{a, consumerSpy{b}},
		Report:     rep,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !a.has("end") || !b.has("end") {
		t.Fatalf("end not called: a=%v b=%v", a.calls, b.calls)
	}
	if b.has("frame") {
		t.Fatal("frame delivered from an empty stream")
	}
	if !rep.Closed() || rep.Text(report.Validation) == "" || rep.Text(report.Information) == "" {
		t.Fatal("report not closed with both documents rendered")
	}
	if rep.HTML(report.Validation) == "" || rep.HTML(report.Information) == "" {
		t.Fatal("html documents missing")
	}
}

func TestFramesReachEachConsumerOnceInOrder(t *testing.T) {
	plain := &spy{id: "plain"}
	first, second := &spy{id: "first"}, &spy{id: "second"}
	var progress [][2]int64
	header := testsupport.Header(44100, 1)
	stream := audio.NewSliceStream(header, numbered(10))
	res, err := Run(context.Background(), Input{
		Stream:     stream,
		Validators: []validator.Validator{consumerSpy{first}, plain, consumerSpy{second}},
		Report:     report.New("x"),
		Progress:   func(cur, max int64) { progress = append(progress, [2]int64{cur, max}) },
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Frames != 10 {
		t.Fatalf("frames = %d", res.Frames)
	}
	for _, s := range []*spy{first, second} {
		if len(s.frames) != 10 {
			t.Fatalf("%s got %d frames", s.id, len(s.frames))
		}
		for i, v := range s.frames {
			if int(v) != i {
				t.Fatalf("%s frame %d out of order: %d", s.id, i, v)
			}
		}
	}
	if plain.has("frame") {
		t.Fatal("non-consumer received frames")
	}
	if strings.Join(second.preds, ",") != "first,plain" || len(first.preds) != 0 {
		t.Fatalf("predecessors first=%v second=%v", first.preds, second.preds)
	}
	if len(progress) == 0 || progress[len(progress)-1][0] != 10 {
		t.Fatalf("progress = %v", progress)
	}
}

func TestPanicBecomesFatalAndSkipsRemaining(t *testing.T) {
	bad := &spy{id: "bad", panicAt: 2}
	after := &spy{id: "after"}
	rep := report.New("x")
	stream := audio.NewSliceStream(testsupport.Header(44100, 1), numbered(5), "bad frame header at 0x10")
	res, err := Run(context.Background(), Input{
		Stream:     stream,
		Validators: []validator.Validator{consumerSpy{bad}, consumerSpy{after}},
		Report:     rep,
	})
	if !errors.Is(err, services.ErrValidatorFault) {
		t.Fatalf("err = %v, want validator fault", err)
	}
	var fault *Fault
	if !errors.As(err, &fault) || fault.Validator != "bad" || fault.Phase != "analyze frame" || len(fault.Stack) == 0 {
		t.Fatalf("fault = %+v", fault)
	}
	if res.Faulted != "bad" {
		t.Fatalf("faulted = %q", res.Faulted)
	}
	if len(after.frames) != 1 || after.has("end") || bad.has("end") {
		t.Fatalf("remaining steps ran: bad=%v after=%v", bad.calls, after.calls)
	}
	if !rep.Closed() || rep.Validity() != report.Incomplete {
		t.Fatalf("closed=%v validity=%v", rep.Closed(), rep.Validity())
	}
	msg, ok := rep.Fatal()
	if !ok || !strings.Contains(msg, "bad") || !strings.Contains(msg, "goroutine") {
		t.Fatalf("fatal = %q", msg)
	}
	if n := len(rep.Entries(report.Validation, report.CategoryAudio)); n != 0 {
		t.Fatalf("audio entries visible under fatal: %d", n)
	}
}

func TestErrorInBeginIsFault(t *testing.T) {
	bad := &spy{id: "bad", failOn: "begin"}
	rep := report.New("x")
	_, err := Run(context.Background(), Input{
		Stream:     audio.NewSliceStream(testsupport.Header(44100, 1), numbered(3)),
		Validators: []validator.Validator{bad},
		Report:     rep,
	})
	if !errors.Is(err, services.ErrValidatorFault) {
		t.Fatalf("err = %v", err)
	}
	if bad.has("frame") || bad.has("end") {
		t.Fatalf("ran past fault: %v", bad.calls)
	}
	if rep.Validity() != report.Incomplete {
		t.Fatalf("validity = %v", rep.Validity())
	}
}

func TestStreamWarningsFiledUnderErrorCategory(t *testing.T) {
	rep := report.New("x")
	stream := audio.NewSliceStream(testsupport.Header(44100, 1), numbered(2), "invalid frame at 0x400")
	if _, err := Run(context.Background(), Input{Stream: stream, Report: rep}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries := rep.Entries(report.Validation, report.CategoryError)
	if len(entries) != 1 || entries[0].Validity != report.Warn || !strings.Contains(entries[0].Message, "0x400") {
		t.Fatalf("entries = %+v", entries)
	}
	if rep.Validity() != report.Warn {
		t.Fatalf("validity = %v", rep.Validity())
	}
}

// brokenStream yields its frames and then fails.
type brokenStream struct {
	*audio.SliceStream
	warnings []string
}

func (b brokenStream) Next(ctx context.Context) (*audio.Frame, error) {
	frame, err := b.SliceStream.Next(ctx)
	if errors.Is(err, io.EOF) {
		return nil, errors.New("corrupt frame")
	}
	return frame, err
}

func (b brokenStream) Warnings() []string { return b.warnings }

func TestStreamWarningsSurviveDecodeFailure(t *testing.T) {
	rep := report.New("x")
	stream := brokenStream{
		SliceStream: audio.NewSliceStream(testsupport.Header(44100, 1), numbered(1)),
		warnings:    []string{"Header missing at 0x1234"},
	}
	if _, err := Run(context.Background(), Input{Stream: stream, Report: rep}); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want transient", err)
	}
	if _, fatal := rep.Fatal(); !fatal {
		t.Fatal("decode failure must set the fatal override")
	}
	var found bool
	for _, e := range rep.Entries(report.Validation, report.CategoryError) {
		if e.Validity == report.Warn && strings.Contains(e.Message, "0x1234") {
			found = true
		}
	}
	if !found {
		t.Fatalf("decode warning dropped: %+v", rep.Entries(report.Validation, report.CategoryError))
	}
}

func TestStreamWarningsSurviveValidatorFault(t *testing.T) {
	rep := report.New("x")
	s := &spy{id: "s", failOn: "end"}
	stream := audio.NewSliceStream(testsupport.Header(44100, 1), numbered(2), "invalid frame at 0x400")
	if _, err := Run(context.Background(), Input{Stream: stream, Validators: []validator.Validator{s}, Report: rep}); err == nil {
		t.Fatal("expected fault")
	}
	var found bool
	for _, e := range rep.Entries(report.Validation, report.CategoryError) {
		if e.Validity == report.Warn && strings.Contains(e.Message, "0x400") {
			found = true
		}
	}
	if !found {
		t.Fatal("decode warning dropped after validator fault")
	}
}

func TestCancellationStopsBeforeEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &spy{id: "s", onFrame: func(n int) {
		if n == 3 {
			cancel()
		}
	}}
	rep := report.New("x")
	_, err := Run(ctx, Input{
		Stream:     audio.NewSliceStream(testsupport.Header(44100, 1), numbered(50)),
		Validators: []validator.Validator{consumerSpy{s}},
		Report:     rep,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(s.frames) != 3 || s.has("end") {
		t.Fatalf("frames=%d calls=%v", len(s.frames), s.calls)
	}
	if rep.Closed() {
		t.Fatal("cancelled run must leave the report open")
	}
}
