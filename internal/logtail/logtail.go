// Package logtail turns an input stream into numbered text lines, with
// optional tail-style windowing of the last N lines and tail -f style
// following of a growing file.
package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"
)

const (
	// MaxLineSize bounds a single input line.
	MaxLineSize = 16 << 20

	defaultInterval = time.Second
	maxBackoff      = 5 * time.Second
)

// ErrLineTooLong is returned when a line exceeds MaxLineSize.
var ErrLineTooLong = errors.New("line too long")

// Line is one input line with its 1-based position in the stream.
type Line struct {
	No   int
	Text string
}

// Options controls windowing and following.
type Options struct {
	// Tail keeps only the last Tail lines of the existing input. Zero keeps all.
	Tail int
	// Follow keeps polling for appended data after EOF until ctx is done.
	Follow bool
	// Interval is the base poll interval in follow mode.
	Interval time.Duration
}

// Lines yields the lines of r. Trailing "\n" and "\r" are removed and invalid
// UTF-8 is replaced with U+FFFD. Iteration ends at EOF, at the first read
// error, or when ctx is done; ctx cancellation ends the sequence without an
// error.
func Lines(ctx context.Context, r io.Reader, opts Options) iter.Seq2[Line, error] {
	return func(yield func(Line, error) bool) {
		lr := &lineReader{br: bufio.NewReaderSize(r, 64*1024)}

		if opts.Tail > 0 {
			window, err := lr.last(ctx, opts.Tail, opts.Follow)
			for _, line := range window {
				if !yield(line, nil) {
					return
				}
			}
			if err != nil {
				yield(Line{}, err)
				return
			}
			if !opts.Follow || ctx.Err() != nil {
				return
			}
		}

		idle := 0
		for {
			if ctx.Err() != nil {
				return
			}
			line, err := lr.next(opts.Follow)
			switch {
			case err == nil:
				idle = 0
				if !yield(line, nil) {
					return
				}
			case errors.Is(err, io.EOF):
				if !opts.Follow {
					return
				}
				if !sleep(ctx, calculateBackoff(idle, opts.Interval)) {
					return
				}
				idle++
			default:
				yield(Line{}, err)
				return
			}
		}
	}
}

type lineReader struct {
	br      *bufio.Reader
	no      int
	partial strings.Builder
}

// next returns the next complete line. When keepPartial is set, an
// unterminated line at EOF is held back until its newline arrives.
func (lr *lineReader) next(keepPartial bool) (Line, error) {
	for {
		chunk, err := lr.br.ReadSlice('\n')
		if lr.partial.Len()+len(chunk) > MaxLineSize {
			return Line{}, fmt.Errorf("read line %d: %w", lr.no+1, ErrLineTooLong)
		}
		lr.partial.Write(chunk)
		switch {
		case err == nil:
			return lr.emit(), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if lr.partial.Len() == 0 || keepPartial {
				return Line{}, io.EOF
			}
			return lr.emit(), nil
		default:
			return Line{}, fmt.Errorf("read input: %w", err)
		}
	}
}

func (lr *lineReader) emit() Line {
	text := lr.partial.String()
	lr.partial.Reset()
	text = strings.TrimSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\r")
	lr.no++
	return Line{No: lr.no, Text: strings.ToValidUTF8(text, "\uFFFD")}
}

// last reads to EOF and returns at most n of the final lines.
func (lr *lineReader) last(ctx context.Context, n int, keepPartial bool) ([]Line, error) {
	ring := make([]Line, n)
	count := 0
	idx := 0
	for ctx.Err() == nil {
		line, err := lr.next(keepPartial)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return unroll(ring, idx, count), err
		}
		ring[idx] = line
		idx = (idx + 1) % n
		if count < n {
			count++
		}
	}
	return unroll(ring, idx, count), nil
}

func unroll(ring []Line, idx, count int) []Line {
	lines := make([]Line, count)
	if count == len(ring) {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%count]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines
}

// calculateBackoff doubles the poll interval for every idle poll, capped at
// maxBackoff.
func calculateBackoff(idlePolls int, base time.Duration) time.Duration {
	if base <= 0 {
		base = defaultInterval
	}
	if base >= maxBackoff {
		return base
	}
	d := base
	for i := 0; i < idlePolls; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
