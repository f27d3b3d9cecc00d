// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package linebuffer provides a fixed-capacity FIFO of text lines.
// Once the buffer is full, adding a line evicts the oldest one, so the buffer
// always holds the most recent lines written by a child process.
// It is used as the default per-stream sink for process sessions so that
// unbounded output cannot exhaust memory, while a diagnostic tail is still
// available for failure reporting.
package linebuffer
