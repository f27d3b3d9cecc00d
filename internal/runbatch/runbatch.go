// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrJobFailed is returned by Run when a job fails under PolicyFailFast.
	ErrJobFailed = errors.New("job failed")
	// ErrJobTimeout is recorded for a job that exceeded the job timeout and was destroyed.
	ErrJobTimeout = errors.New("job timed out")
	// ErrCancelled is returned by Run when the context was cancelled before all jobs finished.
	ErrCancelled = errors.New("batch cancelled")
	// ErrNoProgram is returned when the batch template has no program.
	ErrNoProgram = errors.New("no program specified")
	// ErrInvalidPolicy is returned for an unknown failure policy.
	ErrInvalidPolicy = errors.New("invalid failure policy")
	// ErrInvalidSink is returned for an unknown sink kind.
	ErrInvalidSink = errors.New("invalid sink kind")
	// ErrSink is recorded when a job's intermediate sink cannot be created or written.
	ErrSink = errors.New("job output sink failed")
	// ErrAggregate is returned when the aggregated output cannot be written.
	ErrAggregate = errors.New("failed to aggregate job output")
)

// Policy decides how a failing job affects the batch.
type Policy int

const (
	// PolicyBestEffort records failing jobs and aggregates every other job.
	PolicyBestEffort Policy = iota
	// PolicyFailFast aborts the batch at the first failing job in submission order.
	PolicyFailFast
)

// String implements the Stringer interface for Policy.
func (p Policy) String() string {
	switch p {
	case PolicyBestEffort:
		return "best-effort"
	case PolicyFailFast:
		return "fail-fast"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "fail-fast" or "best-effort". The empty string is best-effort.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "best-effort", "besteffort":
		return PolicyBestEffort, nil
	case "fail-fast", "failfast":
		return PolicyFailFast, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
	}
}

// SinkKind selects where each job's output is held until it is aggregated.
type SinkKind int

const (
	// SinkTempFile writes each job's output to its own temporary file.
	SinkTempFile SinkKind = iota
	// SinkMemory keeps each job's output in memory.
	SinkMemory
)

// String implements the Stringer interface for SinkKind.
func (k SinkKind) String() string {
	switch k {
	case SinkTempFile:
		return "tempfile"
	case SinkMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// ParseSinkKind parses "tempfile" or "memory". The empty string is tempfile.
func ParseSinkKind(s string) (SinkKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tempfile", "file":
		return SinkTempFile, nil
	case "memory":
		return SinkMemory, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSink, s)
	}
}
