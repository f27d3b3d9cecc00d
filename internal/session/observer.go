// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package session

import (
	"io"
	"sync"
)

// Stream identifies one of the two output channels of a child process.
type Stream int

const (
	// Stdout is the child's standard output.
	Stdout Stream = iota
	// Stderr is the child's standard error.
	Stderr
)

// String implements the Stringer interface for Stream.
func (s Stream) String() string {
	switch s {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Observer receives every line read from a stream, in order, on the drain goroutine.
// Implementations should return quickly: the drain does not read the next line until
// OnLine returns.
type Observer interface {
	OnLine(line string)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(line string)

// OnLine implements Observer.
func (f ObserverFunc) OnLine(line string) {
	f(line)
}

// WriterObserver writes each line, followed by a newline, to an io.Writer.
// The first write error is kept and further lines are discarded.
type WriterObserver struct {
	w   io.Writer
	err error
	mu  sync.Mutex
}

// NewWriterObserver returns an observer that pipes lines to w.
func NewWriterObserver(w io.Writer) *WriterObserver {
	return &WriterObserver{w: w}
}

// OnLine implements Observer.
func (o *WriterObserver) OnLine(line string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.err != nil {
		return
	}

	if _, err := io.WriteString(o.w, line+"\n"); err != nil {
		o.err = err
	}
}

// Err returns the first error encountered while writing.
func (o *WriterObserver) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.err
}

// Collector keeps every line it observes.
type Collector struct {
	lines []string
	mu    sync.Mutex
}

// OnLine implements Observer.
func (c *Collector) OnLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = append(c.lines, line)
}

// Lines returns a copy of the collected lines.
func (c *Collector) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.lines))
	copy(out, c.lines)

	return out
}
