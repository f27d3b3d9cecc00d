// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/aggregate"
	"github.com/matt-FFFFFF/docfan/internal/chunk"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/progress"
	"github.com/matt-FFFFFF/docfan/internal/session"
	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is used when Batch.ChunkSize is not positive.
const DefaultChunkSize = 500

// Batch runs Template once per chunk of Items.
type Batch struct {
	Label       string            // Used in job descriptions, defaults to the program name.
	Template    Template          // Command run for every chunk.
	Items       []string          // Work items, in order.
	ChunkSize   int               // Maximum items per chunk.
	GroupByDir  bool              // Partition by parent directory before applying ChunkSize.
	Policy      Policy            // What a failing job does to the batch.
	MaxWorkers  int               // Maximum concurrent processes, 0 for one per chunk.
	JobTimeout  time.Duration     // Per-job limit, 0 for none.
	Dir         string            // Working directory of every process.
	Env         map[string]string // Added to the environment of every process.
	Sink        SinkKind          // Intermediate storage of each job's stdout.
	TempDir     string            // Directory for SinkTempFile, empty for the system default.
	BufferLines int               // Lines kept per stream, 0 for the session default, negative for all.
	Aggregate   []aggregate.Option
	Reporter    progress.Reporter // Receives job events, may be nil.
}

// Validate checks the batch before anything is spawned.
func (b *Batch) Validate() error {
	var errs []error

	if b.Template.Program == "" {
		errs = append(errs, ErrNoProgram)
	}

	if b.Policy != PolicyBestEffort && b.Policy != PolicyFailFast {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPolicy, b.Policy))
	}

	if b.Sink != SinkTempFile && b.Sink != SinkMemory {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidSink, b.Sink))
	}

	return errors.Join(errs...)
}

// Partition splits the items into chunks.
func (b *Batch) Partition() ([]chunk.Chunk, error) {
	size := b.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}

	if b.GroupByDir {
		return chunk.Split(chunk.ByDir(b.Items), size) //nolint:wrapcheck
	}

	return chunk.BySize(b.Items, size) //nolint:wrapcheck
}

// Plan returns the jobs Run would execute, without spawning anything.
func (b *Batch) Plan() ([]*Job, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	chunks, err := b.Partition()
	if err != nil {
		return nil, err
	}

	jobs := make([]*Job, len(chunks))

	for i, c := range chunks {
		cmd := b.Template.Expand(c)
		cmd.Dir = b.Dir
		cmd.Env = maps.Clone(b.Env)
		jobs[i] = newJob(c, cmd, fmt.Sprintf("%s %s", b.label(), c))
	}

	return jobs, nil
}

// Run executes the batch and streams the aggregated output to w.
// It returns an error for invalid batches, fail-fast aborts, cancellation and aggregation
// failures. Under PolicyBestEffort failing jobs are only reported in the result.
func (b *Batch) Run(ctx context.Context, w io.Writer) (*BatchResult, error) {
	start := time.Now()

	jobs, err := b.Plan()
	if err != nil {
		return nil, err
	}

	agg, err := aggregate.NewE(w, b.Aggregate...)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	ctx = ctxlog.With(ctx, ctxlog.ComponentKey, "runbatch", "label", b.label())
	logger := ctxlog.Logger(ctx)
	reporter := b.reporter()

	res := &BatchResult{
		Label:   b.label(),
		Success: true,
		Jobs:    jobs,
	}

	logger.Info("starting batch",
		"items", len(b.Items), "jobs", len(jobs), "policy", b.Policy.String(), "maxWorkers", b.MaxWorkers)

	for _, j := range jobs {
		reportQueued(reporter, j)
	}

	batchCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	join := b.launch(batchCtx, jobs)

	// Every job's sink is removed once all jobs have finished, whatever the outcome.
	defer func() {
		for _, j := range jobs {
			j.removeSink(ctx)
		}
	}()

	if err := agg.Begin(); err != nil {
		cancel(err)
		join()

		return res, errors.Join(ErrAggregate, err)
	}

	abort := func(cause error) (*BatchResult, error) {
		res.Success = false

		cancel(cause)
		join()

		res.Duration = time.Since(start)

		if err := agg.End(); err != nil {
			cause = errors.Join(cause, ErrAggregate, err)
		}

		return res, cause
	}

	for _, j := range jobs {
		<-j.done

		switch j.Status {
		case JobSucceeded:
			if err := b.appendJob(ctx, agg, j); err != nil {
				return abort(errors.Join(ErrAggregate, err))
			}

			res.Aggregated = append(res.Aggregated, j.Index)
		case JobFailed:
			res.Failures = append(res.Failures, j.Failure)
			res.Success = false
			j.removeSink(ctx)

			if b.Policy == PolicyFailFast {
				logger.Error("job failed, aborting batch", "job", j.Index, "exitCode", j.ExitCode, "error", j.Failure.Err)
				return abort(errors.Join(ErrJobFailed, j.Failure))
			}

			logger.Warn("job failed, continuing", "job", j.Index, "exitCode", j.ExitCode,
				"description", j.Description, "tail", j.Failure.Tail(5))
		default:
			// Skipped or cancelled: the batch context is done and we did not cancel it.
			return abort(errors.Join(ErrCancelled, context.Cause(batchCtx)))
		}
	}

	join()

	res.Duration = time.Since(start)

	if err := agg.End(); err != nil {
		return res, errors.Join(ErrAggregate, err)
	}

	logger.Info("batch finished",
		"aggregated", len(res.Aggregated), "failed", len(res.Failures), "duration", res.Duration)

	return res, nil
}

// launch starts the jobs in submission order, at most MaxWorkers at a time. The returned
// function blocks until every job has finished.
func (b *Batch) launch(ctx context.Context, jobs []*Job) (join func()) {
	g := &errgroup.Group{}

	limit := b.MaxWorkers
	if limit <= 0 || limit > len(jobs) {
		limit = len(jobs)
	}

	if limit > 0 {
		g.SetLimit(limit)
	}

	submitted := make(chan struct{})

	go func() {
		defer close(submitted)

		for _, j := range jobs {
			g.Go(func() error {
				j.run(ctx, b)
				return nil
			})
		}
	}()

	return func() {
		<-submitted
		_ = g.Wait()
	}
}

// appendJob streams a successful job's output into the aggregate and removes its sink.
func (b *Batch) appendJob(ctx context.Context, agg *aggregate.Writer, j *Job) error {
	defer j.removeSink(ctx)

	r, err := j.sink.Open()
	if err != nil {
		return errors.Join(ErrSink, err)
	}

	defer r.Close() //nolint:errcheck

	if _, err := agg.Append(r); err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}

func (b *Batch) label() string {
	if b.Label != "" {
		return b.Label
	}

	return session.Command{Path: b.Template.Program}.String()
}

func (b *Batch) reporter() progress.Reporter {
	if b.Reporter == nil {
		return progress.NullReporter{}
	}

	return b.Reporter
}
