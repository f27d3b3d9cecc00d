// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
)

// JobStatus is the state of a single job.
type JobStatus int

const (
	// JobPending has not started yet.
	JobPending JobStatus = iota
	// JobSucceeded exited with code zero.
	JobSucceeded
	// JobFailed could not be spawned, exited non-zero, timed out or lost its output.
	JobFailed
	// JobSkipped never ran because the batch was aborted first.
	JobSkipped
	// JobCancelled was destroyed because the batch was aborted while it ran.
	JobCancelled
)

// String implements the Stringer interface for JobStatus.
func (s JobStatus) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	case JobSkipped:
		return "skipped"
	case JobCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// JobFailure records why a job was left out of the aggregate.
type JobFailure struct {
	Index       int
	Description string
	ExitCode    int      // -1 when the process never ran or was killed
	Stdout      []string // tail of stdout
	Stderr      []string // tail of stderr
	Err         error    // *session.ExecError, a spawn error, ErrJobTimeout or ErrSink
}

// Error implements the error interface.
func (f *JobFailure) Error() string {
	return fmt.Sprintf("job %d (%s) failed with exit code %d: %v", f.Index, f.Description, f.ExitCode, f.Err)
}

// Unwrap gives access to the underlying error.
func (f *JobFailure) Unwrap() error {
	return f.Err
}

// Tail returns the last n diagnostic lines, stderr first and stdout if stderr is empty.
func (f *JobFailure) Tail(n int) []string {
	lines := f.Stderr
	if len(lines) == 0 {
		lines = f.Stdout
	}

	if n <= 0 || len(lines) <= n {
		return lines
	}

	return lines[len(lines)-n:]
}

// BatchResult is the outcome of Batch.Run.
type BatchResult struct {
	Label      string
	Success    bool          // true when every job was aggregated
	Jobs       []*Job        // every job, in submission order
	Aggregated []int         // indices of jobs whose output was written
	Failures   []*JobFailure // in submission order
	Duration   time.Duration
}

// Err returns every failure as a *multierror.Error, or nil when there were none.
func (r *BatchResult) Err() error {
	var merr *multierror.Error

	for _, f := range r.Failures {
		merr = multierror.Append(merr, f)
	}

	return merr.ErrorOrNil()
}

// Counts returns the number of jobs in each status.
func (r *BatchResult) Counts() map[JobStatus]int {
	counts := make(map[JobStatus]int, 5)
	for _, j := range r.Jobs {
		counts[j.Status]++
	}

	return counts
}

// Print writes the report to stderr with default options.
func (r *BatchResult) Print() error {
	return WriteReport(os.Stderr, r, nil)
}

// Write writes the report to w with default options.
func (r *BatchResult) Write(w io.Writer) error {
	return WriteReport(w, r, nil)
}
