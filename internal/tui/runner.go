// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/docfan/internal/progress"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
)

// eventBuffer is the number of progress events held while the TUI catches up.
const eventBuffer = 1024

// Options configure a Runner.
type Options struct {
	// Output receives the TUI. Stdout usually carries the aggregated document, so the
	// default is stderr.
	Output io.Writer
	// Input is read for key presses. Nil disables input.
	Input io.Reader
	// AltScreen draws the TUI on the alternate screen.
	AltScreen bool
	// AutoQuit exits as soon as the batch has finished instead of waiting for a key press.
	AutoQuit bool
}

// Runner runs a batch with the TUI attached.
type Runner struct {
	opts Options
}

// NewRunner creates a Runner.
func NewRunner(opts Options) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	return &Runner{opts: opts}
}

type outcome struct {
	res *runbatch.BatchResult
	err error
}

// Run executes the batch, writing the aggregated document to w, while the TUI shows its
// progress. The batch's Reporter is replaced. Quitting the TUI early aborts the batch.
func (r *Runner) Run(ctx context.Context, b *runbatch.Batch, w io.Writer) (*runbatch.BatchResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(b.Label, cancel)
	model.autoQuit = r.opts.AutoQuit

	popts := []tea.ProgramOption{tea.WithOutput(r.opts.Output), tea.WithInput(r.opts.Input)}
	if r.opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}

	program := tea.NewProgram(model, popts...)

	reporter := progress.NewChannelReporter(runCtx, eventBuffer)
	reporter.Listen(progress.ListenerFunc(func(e progress.Event) {
		program.Send(EventMsg{Event: e})
	}))

	b.Reporter = reporter

	done := make(chan outcome, 1)

	go func() {
		res, err := b.Run(runCtx, w)
		reporter.Close()
		program.Send(DoneMsg{Result: res, Err: err})
		done <- outcome{res: res, err: err}
	}()

	// A cancelled parent context, e.g. a second interrupt, closes the TUI as well.
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			program.Quit()
		case <-stop:
		}
	}()

	_, tuiErr := program.Run()
	if errors.Is(tuiErr, tea.ErrProgramKilled) {
		tuiErr = nil
	}

	cancel()

	out := <-done

	return out.res, errors.Join(out.err, tuiErr)
}
