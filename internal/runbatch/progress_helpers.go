// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/progress"
)

func reportQueued(reporter progress.Reporter, j *Job) {
	reporter.Report(progress.Event{
		JobIndex: j.Index,
		Label:    j.Description,
		Type:     progress.EventQueued,
		Message:  fmt.Sprintf("%d items", len(j.Chunk.Items)),
	})
}

func reportStarted(reporter progress.Reporter, j *Job) {
	reporter.Report(progress.Event{
		JobIndex: j.Index,
		Label:    j.Description,
		Type:     progress.EventStarted,
		Message:  "running " + j.Command.Path,
		Data:     progress.EventData{PID: j.Pid},
	})
}

func reportOutput(reporter progress.Reporter, j *Job, line string) {
	reporter.Report(progress.Event{
		JobIndex: j.Index,
		Label:    j.Description,
		Type:     progress.EventOutput,
		Data: progress.EventData{
			OutputLine: line,
			IsStderr:   true,
		},
	})
}

func reportCompleted(reporter progress.Reporter, j *Job) {
	reporter.Report(progress.Event{
		JobIndex: j.Index,
		Label:    j.Description,
		Type:     progress.EventCompleted,
		Message:  "completed",
		Data:     progress.EventData{ExitCode: j.ExitCode, Duration: time.Since(j.started)},
	})
}

func reportFailed(reporter progress.Reporter, j *Job) {
	e := progress.Event{
		JobIndex: j.Index,
		Label:    j.Description,
		Type:     progress.EventFailed,
		Message:  j.Status.String(),
		Data:     progress.EventData{ExitCode: j.ExitCode, Duration: time.Since(j.started)},
	}

	if j.Failure != nil {
		e.Data.Error = j.Failure.Err
		if tail := j.Failure.Tail(1); len(tail) > 0 {
			e.Data.OutputLine = tail[0]
			e.Data.IsStderr = true
		}
	}

	reporter.Report(e)
}

func reportSkipped(reporter progress.Reporter, j *Job) {
	reporter.Report(progress.Event{
		JobIndex: j.Index,
		Label:    j.Description,
		Type:     progress.EventSkipped,
		Message:  "skipped, batch aborted",
	})
}
