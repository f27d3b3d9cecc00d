// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/chunk"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/progress"
	"github.com/matt-FFFFFF/docfan/internal/session"
)

// Job is one chunk of the batch and the process that handles it.
// Its fields other than Index, Chunk, Command and Description are only valid once the
// batch has finished with it.
type Job struct {
	Index       int
	Chunk       chunk.Chunk
	Command     session.Command
	Description string
	Status      JobStatus
	ExitCode    int
	Pid         int
	Duration    time.Duration
	Failure     *JobFailure

	started time.Time
	sink    sink
	done    chan struct{}
}

func newJob(c chunk.Chunk, cmd session.Command, description string) *Job {
	return &Job{
		Index:       c.Index,
		Chunk:       c,
		Command:     cmd,
		Description: description,
		ExitCode:    -1,
		done:        make(chan struct{}),
	}
}

// run spawns the job's process and waits for it, racing the batch context and the job
// timeout. It always closes j.done.
func (j *Job) run(ctx context.Context, b *Batch) {
	defer close(j.done)

	j.started = time.Now()
	defer func() {
		j.Duration = time.Since(j.started)
	}()

	reporter := b.reporter()
	ctx = ctxlog.With(ctx, "job", j.Index)
	logger := ctxlog.Logger(ctx)

	if ctx.Err() != nil {
		j.Status = JobSkipped
		reportSkipped(reporter, j)

		return
	}

	s, err := newSink(b.Sink, b.TempDir, j.Index)
	if err != nil {
		j.fail(reporter, -1, nil, err)
		return
	}

	j.sink = s
	defer func() {
		if err := s.Close(); err != nil {
			logger.Warn("failed to close job sink", "sink", s.Name(), "error", err)
		}
	}()

	opts := []session.Option{session.WithDescription(j.Description)}
	if b.BufferLines != 0 {
		opts = append(opts, session.WithBufferLines(b.BufferLines))
	}

	sess, err := session.Spawn(ctx, j.Command, opts...)
	if err != nil {
		logger.Error("failed to spawn job", "error", err)
		j.fail(reporter, -1, nil, err)

		return
	}

	j.Pid = sess.Pid()

	stdout := session.NewWriterObserver(s)
	_ = sess.AddObserver(session.Stdout, stdout)
	_ = sess.AddObserver(session.Stderr, session.ObserverFunc(func(line string) {
		reportOutput(reporter, j, line)
	}))

	reportStarted(reporter, j)
	logger.Debug("job started", "pid", j.Pid, "sink", s.Name())

	waitErr, interrupted := waitOrDestroy(ctx, sess, b.JobTimeout)
	code, _ := sess.ExitCode()
	j.ExitCode = code

	switch {
	case interrupted != nil && errors.Is(interrupted, ErrJobTimeout):
		logger.Warn("job timed out", "timeout", b.JobTimeout)
		j.fail(reporter, code, sess, errors.Join(ErrJobTimeout, sess.Failure()))
	case interrupted != nil:
		j.Status = JobCancelled
		j.Failure = j.failure(code, sess, errors.Join(ErrCancelled, interrupted))
		reportFailed(reporter, j)
	case waitErr != nil:
		j.fail(reporter, code, sess, waitErr)
	case code != 0:
		j.fail(reporter, code, sess, sess.Failure())
	case stdout.Err() != nil:
		j.fail(reporter, code, sess, errors.Join(ErrSink, stdout.Err()))
	default:
		if _, err := sess.Stdout(); err != nil {
			j.fail(reporter, code, sess, err)
			return
		}

		j.Status = JobSucceeded
		reportCompleted(reporter, j)
		logger.Info("job completed", "description", j.Description, "duration", time.Since(j.started))
	}
}

func (j *Job) fail(reporter progress.Reporter, code int, sess *session.Session, err error) {
	j.Status = JobFailed
	j.ExitCode = code
	j.Failure = j.failure(code, sess, err)
	reportFailed(reporter, j)
}

func (j *Job) failure(code int, sess *session.Session, err error) *JobFailure {
	f := &JobFailure{
		Index:       j.Index,
		Description: j.Description,
		ExitCode:    code,
		Err:         err,
	}

	if sess != nil {
		f.Stdout = sess.StdoutNow()
		f.Stderr = sess.StderrNow()
	}

	return f
}

// removeSink discards the job's intermediate output.
func (j *Job) removeSink(ctx context.Context) {
	if j.sink == nil {
		return
	}

	if err := j.sink.Remove(); err != nil {
		ctxlog.Warn(ctx, "failed to remove job sink", "job", j.Index, "sink", j.sink.Name(), "error", err)
	}
}

// waitOrDestroy waits for the session unless the context is done or the timeout expires
// first, in which case the process is destroyed and reaped.
// interrupted is nil when the process exited on its own.
func waitOrDestroy(ctx context.Context, s *session.Session, timeout time.Duration) (waitErr, interrupted error) {
	s.SpawnStreamReaders()

	var expired <-chan time.Time

	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()

		expired = t.C
	}

	waited := make(chan error, 1)

	go func() {
		waited <- s.WaitFor()
	}()

	select {
	case err := <-waited:
		return err, nil
	case <-ctx.Done():
		interrupted = context.Cause(ctx)
	case <-expired:
		interrupted = ErrJobTimeout
	}

	ctxlog.Debug(ctx, "destroying job process", "pid", s.Pid(), "reason", interrupted)

	err := s.DestroyAndWaitFor()
	<-waited

	return err, interrupted
}
