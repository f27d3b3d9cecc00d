// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linebuffer

import "sync"

// Unbounded is the capacity value that disables eviction.
const Unbounded = 0

// Buffer is a ring of lines with a fixed capacity.
// A Buffer created with a capacity <= 0 never evicts.
// It is safe for concurrent use.
type Buffer struct {
	lines []string
	head  int // index of the oldest line when the ring is full
	size  int
	limit int
	mu    sync.RWMutex
}

// New creates a new Buffer holding at most n lines.
func New(n int) *Buffer {
	if n < 0 {
		n = Unbounded
	}

	b := &Buffer{limit: n}
	if n > 0 {
		b.lines = make([]string, 0, min(n, initialCap))
	}

	return b
}

const initialCap = 64

// Add appends the line at the tail, evicting the head while the buffer is over capacity.
func (b *Buffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.limit == Unbounded {
		b.lines = append(b.lines, line)
		b.size++

		return
	}

	// grow until we reach the limit, then overwrite in place
	if len(b.lines) < b.limit {
		b.lines = append(b.lines, line)
		b.size++

		return
	}

	b.lines[b.head] = line
	b.head = (b.head + 1) % b.limit
}

// Lines returns a copy of the buffered lines, oldest first.
func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, b.size)
	out = append(out, b.lines[b.head:]...)
	out = append(out, b.lines[:b.head]...)

	return out
}

// Len returns the number of lines currently held.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.size
}

// Cap returns the capacity, or Unbounded.
func (b *Buffer) Cap() int {
	return b.limit
}

// Last returns the most recently added line and true, or "" and false if empty.
func (b *Buffer) Last() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return "", false
	}

	if b.limit == Unbounded || len(b.lines) < b.limit {
		return b.lines[len(b.lines)-1], true
	}

	return b.lines[(b.head+b.limit-1)%b.limit], true
}
