// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package session

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrCouldNotStartProcess is returned when the operating system refused to create the process.
	ErrCouldNotStartProcess = errors.New("could not start process")
	// ErrFailedToCreatePipe is returned when the operating system pipe could not be created.
	ErrFailedToCreatePipe = errors.New("failed to create pipe")
	// ErrReadFailure is returned by a stream accessor when its drain hit an I/O error mid-stream.
	ErrReadFailure = errors.New("failed to read process output")
	// ErrObserversSealed is returned when an observer is added after draining has started.
	ErrObserversSealed = errors.New("observers must be added before the stream readers are started")
	// ErrNotTerminated is returned when the exit code is requested before the process was reaped.
	ErrNotTerminated = errors.New("process has not terminated")
	// ErrWaitFailed is returned when waiting for the process failed.
	ErrWaitFailed = errors.New("failed to wait for process")
	// ErrProcessFailed is wrapped by every ExecError.
	ErrProcessFailed = errors.New("process exited with a non-zero exit code")
)

// ExecError describes a process that exited unsuccessfully.
// It carries the tails of both output streams as captured at the time of failure.
type ExecError struct {
	Description string
	ExitCode    int
	Stdout      []string
	Stderr      []string
	Err         error // underlying wait error, if any
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	sb := strings.Builder{}
	sb.WriteString("process failed with exit code ")
	sb.WriteString(strconv.Itoa(e.ExitCode))

	if e.Description != "" {
		sb.WriteString("; description: ")
		sb.WriteString(e.Description)
	}

	if e.Err != nil {
		sb.WriteString("; error: ")
		sb.WriteString(e.Err.Error())
	}

	sb.WriteString("\n===== stdout =====\n")
	sb.WriteString(strings.Join(e.Stdout, "\n"))
	sb.WriteString("\n===== stderr =====\n")
	sb.WriteString(strings.Join(e.Stderr, "\n"))

	return sb.String()
}

// Unwrap allows errors.Is(err, ErrProcessFailed) and access to the wait error.
func (e *ExecError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProcessFailed}
	}

	return []error{ErrProcessFailed, e.Err}
}

// Tail returns the last n lines of stderr, falling back to stdout when stderr is empty.
func (e *ExecError) Tail(n int) []string {
	lines := e.Stderr
	if len(lines) == 0 {
		lines = e.Stdout
	}

	if n <= 0 || len(lines) <= n {
		return lines
	}

	return lines[len(lines)-n:]
}
