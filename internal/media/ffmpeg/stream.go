package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"audiocheck/internal/audio"
	"audiocheck/internal/services"
)

const maxWarnings = 100

type pcmStream struct {
	header audio.Header
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *lineCollector

	raw     []byte
	samples []int16
	frame   audio.Frame

	done     bool
	waitOnce sync.Once
	waitErr  error
}

func startPCM(ctx context.Context, binary, path string, header audio.Header, frameSamples int) (*pcmStream, error) {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "warning",
		"-i", path,
		"-map", "0:a:0",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	}
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stderr := &lineCollector{limit: maxWarnings}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg pipe", "", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "decode", "start ffmpeg", "", err)
	}
	size := frameSamples * header.Channels
	return &pcmStream{
		header:  header,
		cmd:     cmd,
		stdout:  stdout,
		stderr:  stderr,
		raw:     make([]byte, size*2),
		samples: make([]int16, size),
	}, nil
}

func (s *pcmStream) Header() audio.Header { return s.header }

func (s *pcmStream) Next(ctx context.Context) (*audio.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.done {
		return nil, io.EOF
	}

	n, err := io.ReadFull(s.stdout, s.raw)
	n -= n % (2 * s.header.Channels)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.done = true
		if werr := s.wait(); werr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, services.Wrap(services.ErrExternalTool, "decode", "ffmpeg", s.stderr.tail(), werr)
		}
		if n == 0 {
			return nil, io.EOF
		}
	default:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrTransient, "decode", "read pcm", "", err)
	}

	count := n / 2
	decodeLE(s.samples[:count], s.raw[:n])
	s.frame = audio.Frame{
		Channels:   s.header.Channels,
		SampleRate: s.header.SampleRate,
		Samples:    s.samples[:count],
	}
	return &s.frame, nil
}

func (s *pcmStream) Warnings() []string {
	return s.stderr.lines()
}

func (s *pcmStream) Close() error {
	if !s.done {
		s.done = true
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.wait()
		return nil
	}
	return nil
}

func (s *pcmStream) wait() error {
	s.waitOnce.Do(func() {
		s.waitErr = s.cmd.Wait()
	})
	return s.waitErr
}

func decodeLE(dst []int16, src []byte) {
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(src[2*i:]))
	}
}

// lineCollector keeps the first limit non-empty stderr lines.
type lineCollector struct {
	mu      sync.Mutex
	limit   int
	partial bytes.Buffer
	items   []string
	dropped int
}

func (c *lineCollector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partial.Write(p)
	for {
		line, err := c.partial.ReadString('\n')
		if err != nil {
			// Keep the unterminated remainder for the next write.
			c.partial.Reset()
			c.partial.WriteString(line)
			break
		}
		c.add(line)
	}
	return len(p), nil
}

func (c *lineCollector) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if len(c.items) >= c.limit {
		c.dropped++
		return
	}
	c.items = append(c.items, line)
}

func (c *lineCollector) lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]string(nil), c.items...)
	if rest := strings.TrimSpace(c.partial.String()); rest != "" && len(out) < c.limit {
		out = append(out, rest)
	}
	if c.dropped > 0 {
		out = append(out, fmt.Sprintf("%d further decoder warnings suppressed", c.dropped))
	}
	return out
}

func (c *lineCollector) tail() string {
	items := c.lines()
	if len(items) == 0 {
		return "exited with error"
	}
	return items[len(items)-1]
}
