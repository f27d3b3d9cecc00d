// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/docfan/internal/progress"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
)

// RowStatus is the state of a job as shown in the TUI.
type RowStatus int

const (
	StatusQueued RowStatus = iota
	StatusRunning
	StatusSucceeded
	StatusFailed
	StatusSkipped
)

// String returns a string representation of the row status.
func (s RowStatus) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Done reports whether the row will not change any more.
func (s RowStatus) Done() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// JobRow is one job in the list.
type JobRow struct {
	Index      int
	Label      string
	Detail     string // e.g. the number of items
	Status     RowStatus
	Pid        int
	Start      time.Time
	End        time.Time
	LastOutput string
	ErrorMsg   string
}

// Elapsed is the time the job has been running, or ran for.
func (r *JobRow) Elapsed(now time.Time) time.Duration {
	switch {
	case r.Start.IsZero():
		return 0
	case r.End.IsZero():
		return now.Sub(r.Start)
	default:
		return r.End.Sub(r.Start)
	}
}

// apply updates the row from a progress event.
func (r *JobRow) apply(e progress.Event) {
	if e.Label != "" {
		r.Label = e.Label
	}

	switch e.Type {
	case progress.EventQueued:
		r.Detail = e.Message
	case progress.EventStarted:
		r.Status = StatusRunning
		r.Pid = e.Data.PID
		r.Start = e.Timestamp
	case progress.EventOutput:
		if line := strings.TrimSpace(e.Data.OutputLine); line != "" {
			r.LastOutput = line
		}
	case progress.EventCompleted:
		r.Status = StatusSucceeded
		r.finish(e)
	case progress.EventFailed:
		r.Status = StatusFailed
		r.finish(e)

		if e.Data.Error != nil {
			r.ErrorMsg = firstLine(e.Data.Error.Error())
		}

		if e.Data.OutputLine != "" {
			r.LastOutput = e.Data.OutputLine
		}
	case progress.EventSkipped:
		r.Status = StatusSkipped
	}
}

func (r *JobRow) finish(e progress.Event) {
	r.End = e.Timestamp

	if r.Start.IsZero() && e.Data.Duration > 0 {
		r.Start = r.End.Add(-e.Data.Duration)
	}
}

// settle makes the row agree with the job's final state.
// Events can be dropped when the TUI falls behind, the result cannot.
func (r *JobRow) settle(j *runbatch.Job) {
	switch j.Status {
	case runbatch.JobSucceeded:
		r.Status = StatusSucceeded
	case runbatch.JobFailed, runbatch.JobCancelled:
		r.Status = StatusFailed
	case runbatch.JobSkipped:
		r.Status = StatusSkipped
	case runbatch.JobPending:
		return
	}

	if r.End.IsZero() && !r.Start.IsZero() {
		r.End = r.Start.Add(j.Duration)
	}

	if j.Failure != nil && r.ErrorMsg == "" && j.Failure.Err != nil {
		r.ErrorMsg = firstLine(j.Failure.Err.Error())
	}
}

// Model is the bubbletea model of a running batch.
type Model struct {
	title     string
	rows      []*JobRow
	byIndex   map[int]*JobRow
	spinner   spinner.Model
	viewport  viewport.Model
	width     int
	height    int
	completed bool
	autoQuit  bool
	quitting  bool
	result    *runbatch.BatchResult
	err       error
	cancel    context.CancelFunc
	now       func() time.Time
	styles    *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title     lipgloss.Style
	Queued    lipgloss.Style
	Running   lipgloss.Style
	Succeeded lipgloss.Style
	Failed    lipgloss.Style
	Skipped   lipgloss.Style
	Output    lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
	Border    lipgloss.Style
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Queued: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true),
		Succeeded: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Skipped: lipgloss.NewStyle().
			Foreground(lipgloss.Color("13")),
		Output: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Italic(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// NewModel creates a model. cancel is called when the user quits before the batch has
// finished, it may be nil.
func NewModel(title string, cancel context.CancelFunc) *Model {
	styles := NewStyles()

	return &Model{
		title:    title,
		byIndex:  make(map[int]*JobRow),
		spinner:  spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(styles.Running)),
		viewport: viewport.New(defaultWidth, defaultHeight-reservedLines),
		width:    defaultWidth,
		height:   defaultHeight,
		cancel:   cancel,
		now:      time.Now,
		styles:   styles,
	}
}

// Rows returns the rows in job order.
func (m *Model) Rows() []*JobRow {
	return m.rows
}

// Completed reports whether the batch has finished.
func (m *Model) Completed() bool {
	return m.completed
}

// row returns the row for the job index, creating it in order if needed.
func (m *Model) row(index int) *JobRow {
	if r, ok := m.byIndex[index]; ok {
		return r
	}

	r := &JobRow{Index: index}
	m.byIndex[index] = r

	pos := len(m.rows)
	for pos > 0 && m.rows[pos-1].Index > index {
		pos--
	}

	m.rows = append(m.rows, nil)
	copy(m.rows[pos+1:], m.rows[pos:])
	m.rows[pos] = r

	return r
}

func (m *Model) processEvent(e progress.Event) {
	if e.JobIndex < 0 {
		return
	}

	m.row(e.JobIndex).apply(e)
}

func (m *Model) finish(res *runbatch.BatchResult, err error) {
	m.completed = true
	m.result = res
	m.err = err

	if res == nil {
		return
	}

	for _, j := range res.Jobs {
		r := m.row(j.Index)
		if r.Label == "" {
			r.Label = j.Description
		}

		r.settle(j)
	}
}

// counts returns the number of rows per status.
func (m *Model) counts() map[RowStatus]int {
	c := make(map[RowStatus]int)
	for _, r := range m.rows {
		c[r.Status]++
	}

	return c
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
