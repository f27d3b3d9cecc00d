// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package aggregate

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strings"
	"sync"
)

const (
	// DefaultOpen is written before the first block.
	DefaultOpen = "["
	// DefaultClose is written after the last block.
	DefaultClose = "]"
	// DefaultSeparator is written between consecutive blocks.
	DefaultSeparator = ","
	// DefaultNoisePattern matches the summary count lines a documentation tool prints.
	DefaultNoisePattern = `^\d+\s+(warnings?|errors?)$`
)

var (
	// ErrClosed is returned when writing to a Writer after End.
	ErrClosed = errors.New("aggregate writer is closed")
	// ErrWrite is returned when the underlying writer fails. The error is sticky.
	ErrWrite = errors.New("failed to write aggregated output")
	// ErrRead is returned when a block cannot be read.
	ErrRead = errors.New("failed to read output block")
	// ErrInvalidNoisePattern is returned by NewE for a pattern that does not compile.
	ErrInvalidNoisePattern = errors.New("invalid noise pattern")
)

var defaultNoise = regexp.MustCompile(DefaultNoisePattern)

// Writer assembles blocks into one document. It is safe for concurrent use, but blocks are
// written in the order Append is called.
type Writer struct {
	w       *bufio.Writer
	open    string
	close   string
	sep     string
	noise     []*regexp.Regexp
	skipEmpty bool
	begun     bool
	ended     bool
	appended  int
	emitted   int
	err       error
	mu        sync.Mutex
}

// Option configures a Writer.
type Option func(*Writer) error

// WithMarkers sets the opening and closing markers.
func WithMarkers(open, close string) Option {
	return func(w *Writer) error {
		w.open, w.close = open, close
		return nil
	}
}

// WithSeparator sets the delimiter written between blocks.
func WithSeparator(sep string) Option {
	return func(w *Writer) error {
		w.sep = sep
		return nil
	}
}

// WithNoise replaces the noise patterns. No patterns disables filtering.
func WithNoise(patterns ...string) Option {
	return func(w *Writer) error {
		w.noise = w.noise[:0]

		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return errors.Join(ErrInvalidNoisePattern, err)
			}

			w.noise = append(w.noise, re)
		}

		return nil
	}
}

// WithSkipEmptyBlocks drops blank lines and writes a block's separator only once the
// block produces its first kept line, so empty and noise-only blocks leave no trace.
func WithSkipEmptyBlocks() Option {
	return func(w *Writer) error {
		w.skipEmpty = true
		return nil
	}
}

// New returns a Writer with the default markers, separator and noise pattern.
// It panics if an option fails, use NewE for patterns that come from user input.
func New(w io.Writer, opts ...Option) *Writer {
	aw, err := NewE(w, opts...)
	if err != nil {
		panic(err)
	}

	return aw
}

// NewE is New but returns option errors.
func NewE(w io.Writer, opts ...Option) (*Writer, error) {
	aw := &Writer{
		w:     bufio.NewWriter(w),
		open:  DefaultOpen,
		close: DefaultClose,
		sep:   DefaultSeparator,
		noise: []*regexp.Regexp{defaultNoise},
	}

	for _, opt := range opts {
		if err := opt(aw); err != nil {
			return nil, err
		}
	}

	return aw, nil
}

// Begin writes the opening marker. It is called implicitly by Append and End.
func (a *Writer) Begin() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.begin()
}

// Append streams one block. Every block after the first is preceded by the separator,
// even when it is empty. Noise lines are dropped. It reports whether the block
// contributed any lines.
func (a *Writer) Append(r io.Reader) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.begin(); err != nil {
		return false, err
	}

	if !a.skipEmpty && a.appended > 0 {
		a.write(a.sep)
	}

	a.appended++

	br := bufio.NewReader(r)
	kept := 0

	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			if kept > 0 {
				a.emitted++
			}

			_ = a.w.Flush()

			return kept > 0, errors.Join(ErrRead, readErr)
		}

		// EOF right after a newline is not a line of its own.
		if readErr != nil && line == "" {
			break
		}

		line = strings.TrimRight(line, "\r\n")

		if a.keep(line) {
			switch {
			case kept > 0:
				a.write("\n")
			case a.skipEmpty && a.emitted > 0:
				a.write(a.sep)
			}

			a.write(line)
			kept++
		}

		if readErr != nil {
			break
		}
	}

	if kept > 0 {
		a.emitted++
	}

	if a.err == nil {
		if err := a.w.Flush(); err != nil {
			a.err = errors.Join(ErrWrite, err)
		}
	}

	return kept > 0, a.err
}

// End writes the closing marker and flushes. Further calls are no-ops.
func (a *Writer) End() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ended {
		return a.err
	}

	if err := a.begin(); err != nil {
		return err
	}

	a.write(a.close)
	a.ended = true

	if a.err == nil {
		if err := a.w.Flush(); err != nil {
			a.err = errors.Join(ErrWrite, err)
		}
	}

	return a.err
}

// Blocks returns the number of blocks that contributed output so far.
func (a *Writer) Blocks() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.emitted
}

// WriteBlocks writes a complete document from in-memory blocks.
func (a *Writer) WriteBlocks(blocks ...string) error {
	for _, b := range blocks {
		if _, err := a.Append(strings.NewReader(b)); err != nil {
			return err
		}
	}

	return a.End()
}

func (a *Writer) begin() error {
	if a.ended {
		return ErrClosed
	}

	if !a.begun {
		a.begun = true
		a.write(a.open)
	}

	return a.err
}

func (a *Writer) keep(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" && a.skipEmpty {
		return false
	}

	for _, re := range a.noise {
		if re.MatchString(trimmed) {
			return false
		}
	}

	return true
}

func (a *Writer) write(s string) {
	if a.err != nil {
		return
	}

	if _, err := a.w.WriteString(s); err != nil {
		a.err = errors.Join(ErrWrite, err)
	}
}
