// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/docfan/internal/progress"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
)

const (
	defaultWidth     = 100
	defaultHeight    = 24
	reservedLines    = 6 // title, summary, border and help
	minLabelWidth    = 12
	durationRounding = 100 * time.Millisecond
	ellipsis         = "…"
)

// EventMsg wraps a progress event for the tea framework.
type EventMsg struct {
	Event progress.Event
}

// DoneMsg is sent when the batch has finished.
type DoneMsg struct {
	Result *runbatch.BatchResult
	Err    error
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m.quit()
		}

		var cmd tea.Cmd

		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-2, 1)
		m.viewport.Height = max(msg.Height-reservedLines, 1)

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd

		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case EventMsg:
		m.processEvent(msg.Event)
		return m, nil

	case DoneMsg:
		m.finish(msg.Result, msg.Err)

		if m.autoQuit {
			return m.quit()
		}

		return m, nil
	}

	return m, nil
}

// quit stops the program, aborting the batch if it is still running.
func (m *Model) quit() (tea.Model, tea.Cmd) {
	if !m.completed && m.cancel != nil {
		m.cancel()
	}

	m.quitting = true

	return m, tea.Quit
}

// View implements tea.Model.
func (m *Model) View() string {
	var content strings.Builder

	now := m.now()
	for _, r := range m.rows {
		m.renderRow(&content, r, now)
	}

	m.viewport.SetContent(strings.TrimSuffix(content.String(), "\n"))

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("docfan " + m.title))
	view.WriteString("\n")
	view.WriteString(m.renderSummary())
	view.WriteString("\n")
	view.WriteString(m.styles.Border.Render(m.viewport.View()))
	view.WriteString("\n")

	help := "↑/↓ to scroll, q to abort"
	if m.completed {
		help = "↑/↓ to scroll, q to exit"
	}

	view.WriteString(m.styles.Help.Render(help))

	if m.quitting {
		view.WriteString("\n")
	}

	return view.String()
}

func (m *Model) renderSummary() string {
	c := m.counts()
	done := c[StatusSucceeded] + c[StatusFailed] + c[StatusSkipped]
	summary := fmt.Sprintf("%d/%d jobs done, %d running", done, len(m.rows), c[StatusRunning])

	if c[StatusFailed] > 0 {
		summary += ", " + m.styles.Failed.Render(fmt.Sprintf("%d failed", c[StatusFailed]))
	}

	if c[StatusSkipped] > 0 {
		summary += ", " + m.styles.Skipped.Render(fmt.Sprintf("%d skipped", c[StatusSkipped]))
	}

	if !m.completed {
		return summary
	}

	switch {
	case m.err != nil:
		return summary + "  " + m.styles.Failed.Render("aborted: "+firstLine(m.err.Error()))
	case m.result != nil && !m.result.Success:
		return summary + "  " + m.styles.Failed.Render("finished with failures")
	default:
		return summary + "  " + m.styles.Succeeded.Render("finished")
	}
}

func (m *Model) renderRow(b *strings.Builder, r *JobRow, now time.Time) {
	var icon, label string

	switch r.Status {
	case StatusQueued:
		icon, label = m.styles.Queued.Render("·"), m.styles.Queued.Render(r.Label)
	case StatusRunning:
		icon, label = m.spinner.View(), m.styles.Running.Render(r.Label)
	case StatusSucceeded:
		icon, label = m.styles.Succeeded.Render("✓"), m.styles.Succeeded.Render(r.Label)
	case StatusFailed:
		icon, label = m.styles.Failed.Render("✗"), m.styles.Failed.Render(r.Label)
	case StatusSkipped:
		icon, label = m.styles.Skipped.Render("~"), m.styles.Skipped.Render(r.Label)
	}

	left := icon + " " + label

	if d := r.Elapsed(now); d > 0 {
		left += m.styles.Output.Render(fmt.Sprintf(" (%v)", d.Round(durationRounding)))
	} else if r.Detail != "" && r.Status == StatusQueued {
		left += m.styles.Queued.Render(" " + r.Detail)
	}

	leftWidth := max(m.viewport.Width/2, minLabelWidth) //nolint:mnd
	rightWidth := m.viewport.Width - leftWidth

	var right string

	switch {
	case r.Status == StatusFailed && r.ErrorMsg != "":
		right = m.styles.Error.Render(truncate(r.ErrorMsg, rightWidth))
	case r.Status == StatusRunning && r.LastOutput != "":
		right = m.styles.Output.Render(truncate(r.LastOutput, rightWidth))
	}

	if w := lipgloss.Width(left); w < leftWidth {
		left += strings.Repeat(" ", leftWidth-w)
	}

	b.WriteString(left)
	b.WriteString(right)
	b.WriteString("\n")
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	if n <= len([]rune(ellipsis)) {
		return string(runes[:n])
	}

	return string(runes[:n-1]) + ellipsis
}
