package audio

import (
	"context"
	"io"
	"sync"
)

// SliceStream serves pre-decoded sample blocks. It reuses one buffer across
// calls to Next the same way a real decoder does.
type SliceStream struct {
	header   Header
	blocks   [][]int16
	warnings []string

	mu     sync.Mutex
	next   int
	buf    []int16
	frame  Frame
	closed bool
}

// NewSliceStream builds a stream that yields each block as one frame.
func NewSliceStream(header Header, blocks [][]int16, warnings ...string) *SliceStream {
	return &SliceStream{header: header, blocks: blocks, warnings: warnings}
}

func (s *SliceStream) Header() Header { return s.header }

func (s *SliceStream) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.next >= len(s.blocks) {
		return nil, io.EOF
	}
	block := s.blocks[s.next]
	s.next++
	s.buf = append(s.buf[:0], block...)
	s.frame = Frame{Channels: s.header.Channels, SampleRate: s.header.SampleRate, Samples: s.buf}
	return &s.frame, nil
}

func (s *SliceStream) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

func (s *SliceStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Delivered reports how many frames have been handed out.
func (s *SliceStream) Delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Closed reports whether Close has been called.
func (s *SliceStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
