// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package plan contains the command that shows how a run would be split into jobs.
package plan

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/matt-FFFFFF/docfan/cmd/docfan/settings"
	"github.com/matt-FFFFFF/docfan/internal/color"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
	"github.com/urfave/cli/v3"
)

const (
	verboseFlag  = "verbose"
	maxShownArgs = 8
	cliExitStr   = ""
)

// New returns the plan command.
func New() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show the jobs a run over SOURCE would start, without starting them",
		ArgsUsage: "SOURCE",
		Flags: append(settings.Flags(),
			&cli.BoolFlag{
				Name:     verboseFlag,
				Aliases:  []string{"v"},
				Usage:    "Print every argument instead of abbreviating long command lines",
				OnlyOnce: true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	ws, err := settings.Open(ctx, cmd)
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}
	defer ws.Close()

	b, err := ws.Batch()
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	jobs, err := b.Plan()
	if err != nil {
		logger.Error(err.Error())
		return cli.Exit(cliExitStr, 1)
	}

	if err := write(cmd.Root().Writer, b, jobs, cmd.Bool(verboseFlag)); err != nil {
		logger.Error(fmt.Sprintf("failed to write plan: %s", err.Error()))
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

func write(w io.Writer, b *runbatch.Batch, jobs []*runbatch.Job, verbose bool) error {
	sb := &strings.Builder{}

	workers := "unlimited"
	if b.MaxWorkers > 0 {
		workers = fmt.Sprint(b.MaxWorkers)
	}

	fmt.Fprintf(sb, "%s %d items in %d jobs, policy %s, workers %s\n",
		color.Colorize(b.Label, color.Bold), len(b.Items), len(jobs), b.Policy, workers)

	for _, j := range jobs {
		fmt.Fprintf(sb, "%s %s\n", color.Colorize("•", color.FgCyan), j.Chunk)
		fmt.Fprintf(sb, "  %s\n", commandLine(j, verbose))
	}

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

func commandLine(j *runbatch.Job, verbose bool) string {
	args := j.Command.Args
	if verbose || len(args) <= maxShownArgs {
		return j.Command.String()
	}

	shown := append([]string{j.Command.Path}, args[:maxShownArgs]...)

	return strings.Join(shown, " ") + color.Colorize(fmt.Sprintf(" … %d more", len(args)-maxShownArgs), color.Faint)
}
