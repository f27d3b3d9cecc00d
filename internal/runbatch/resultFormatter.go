// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/color"
)

// OutputOptions controls what WriteReport includes.
type OutputOptions struct {
	IncludeStdOut      bool // Include the stdout tail of failed jobs.
	IncludeStdErr      bool // Include the stderr tail of failed jobs.
	ShowSuccessDetails bool // List successful jobs too, not only the summary.
	TailLines          int  // Lines of each tail to show, 0 for all that were kept.
}

// DefaultOutputOptions shows failed jobs with the last 20 lines of stderr.
func DefaultOutputOptions() *OutputOptions {
	return &OutputOptions{
		IncludeStdOut:      false,
		IncludeStdErr:      true,
		ShowSuccessDetails: false,
		TailLines:          20,
	}
}

// WriteReport writes a human-readable summary of the batch to w.
func WriteReport(w io.Writer, res *BatchResult, options *OutputOptions) error {
	if options == nil {
		options = DefaultOutputOptions()
	}

	sb := &strings.Builder{}

	for _, j := range res.Jobs {
		if j.Status == JobSucceeded && !options.ShowSuccessDetails {
			continue
		}

		writeJob(sb, j, options)
	}

	writeSummary(sb, res)

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

func writeJob(sb *strings.Builder, j *Job, options *OutputOptions) {
	var mark, label string

	switch j.Status {
	case JobSucceeded:
		mark = color.Colorize("✓", color.FgGreen)
		label = color.Colorize(j.Description, color.Bold, color.FgGreen)
	case JobFailed:
		mark = color.Colorize("✗", color.FgRed)
		label = color.Colorize(j.Description, color.Bold, color.FgRed)
	case JobSkipped, JobCancelled:
		mark = color.Colorize("~", color.FgYellow)
		label = color.Colorize(j.Description, color.Bold, color.FgYellow)
	default:
		mark = color.Colorize("?", color.FgWhite)
		label = j.Description
	}

	fmt.Fprintf(sb, "%s %s", mark, label)

	if j.Status == JobSkipped {
		sb.WriteString(" (skipped)")
	} else if j.ExitCode != 0 {
		fmt.Fprintf(sb, " (exit code: %d)", j.ExitCode)
	}

	sb.WriteString("\n")

	f := j.Failure
	if f == nil || j.Status == JobSkipped {
		return
	}

	if f.Err != nil {
		msg, _, _ := strings.Cut(f.Err.Error(), "\n")
		fmt.Fprintf(sb, "  %s %s\n", color.Colorize("➜ Error:", color.FgRed), msg)
	}

	if options.IncludeStdOut && len(f.Stdout) > 0 {
		sb.WriteString("  ➜ Output:\n")
		sb.WriteString(formatOutput(tail(f.Stdout, options.TailLines), "     "))
	}

	if options.IncludeStdErr && len(f.Stderr) > 0 {
		fmt.Fprintf(sb, "  %s\n", color.Colorize("➜ Error Output:", color.FgHiRed))
		sb.WriteString(formatOutput(tail(f.Stderr, options.TailLines), "     "))
	}
}

func writeSummary(sb *strings.Builder, res *BatchResult) {
	counts := res.Counts()

	status := color.Colorize("succeeded", color.Bold, color.FgGreen)
	if !res.Success {
		status = color.Colorize("failed", color.Bold, color.FgRed)
	}

	fmt.Fprintf(sb, "%s %s: %d jobs, %d aggregated, %d failed",
		res.Label, status, len(res.Jobs), len(res.Aggregated), counts[JobFailed])

	if n := counts[JobSkipped] + counts[JobCancelled]; n > 0 {
		fmt.Fprintf(sb, ", %d not run", n)
	}

	fmt.Fprintf(sb, " in %s\n", res.Duration.Round(time.Millisecond))
}

// formatOutput indents every line. Empty lines are kept but not indented.
func formatOutput(lines []string, indent string) string {
	sb := strings.Builder{}

	for _, line := range lines {
		if line != "" {
			sb.WriteString(indent)
			sb.WriteString(line)
		}

		sb.WriteString("\n")
	}

	return sb.String()
}

func tail(lines []string, n int) []string {
	if n <= 0 || len(lines) <= n {
		return lines
	}

	return lines[len(lines)-n:]
}
