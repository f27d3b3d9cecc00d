// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package run contains the command that runs the documentation tool over a source tree.
package run

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/matt-FFFFFF/docfan/cmd/docfan/settings"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
	"github.com/matt-FFFFFF/docfan/internal/tui"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

const (
	outFlag                  = "out"
	tuiFlag                  = "tui"
	outputStdOutFlag         = "output-stdout"
	noOutputStdErrFlag       = "no-output-stderr"
	outputSuccessDetailsFlag = "output-success-details"
	tailLinesFlag            = "tail-lines"
	cliExitStr               = ""
)

// ErrCreateOutput is returned when the output file cannot be created.
var ErrCreateOutput = errors.New("failed to create output file")

// FS is the file system the output file is created in. Tests replace it.
var FS afero.Fs = afero.NewOsFs()

// New returns the run command.
func New() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the documentation tool over SOURCE and write one aggregated document",
		ArgsUsage: "SOURCE",
		Description: `Splits the source files below SOURCE into chunks, runs one process per chunk in
parallel and concatenates their output, in chunk order, into a single document.

SOURCE is a directory, a local archive (.jar, .zip, .tar, .tar.gz) or a URL in
Hashicorp's go-getter syntax. See https://github.com/hashicorp/go-getter.

The document goes to stdout unless --out is given. Diagnostics and the failure report go to stderr.
Exits with status 1 when any job failed or the batch was aborted.`,
		Flags: append(settings.Flags(),
			&cli.StringFlag{
				Name:      outFlag,
				Aliases:   []string{"o"},
				Usage:     "Write the aggregated document to this file instead of stdout",
				TakesFile: true,
				OnlyOnce:  true,
			},
			&cli.BoolFlag{
				Name:     tuiFlag,
				Aliases:  []string{"t", "interactive"},
				Usage:    "Show the jobs in an interactive Terminal User Interface (TUI) while they run",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     outputStdOutFlag,
				Aliases:  []string{"stdout"},
				Usage:    "Include the stdout of failed jobs in the report",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     noOutputStdErrFlag,
				Aliases:  []string{"no-stderr"},
				Usage:    "Exclude the stderr of failed jobs from the report",
				OnlyOnce: true,
			},
			&cli.BoolFlag{
				Name:     outputSuccessDetailsFlag,
				Aliases:  []string{"success"},
				Usage:    "List successful jobs in the report",
				OnlyOnce: true,
			},
			&cli.IntFlag{
				Name:     tailLinesFlag,
				Usage:    "Lines of output shown per failed job. 0 shows all that were kept",
				Value:    runbatch.DefaultOutputOptions().TailLines,
				OnlyOnce: true,
			},
		),
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)
	logger.Debug("running run command")

	stdout, stderr := cmd.Root().Writer, cmd.Root().ErrWriter

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

	out := stdout

	if name := cmd.String(outFlag); name != "" {
		f, err := FS.Create(name)
		if err != nil {
			logger.Error(errors.Join(ErrCreateOutput, err).Error(), "path", name)
			return cli.Exit(cliExitStr, 1)
		}

		defer f.Close() //nolint:errcheck

		out = f
	}

	var (
		res    *runbatch.BatchResult
		runErr error
	)

	if cmd.Bool(tuiFlag) {
		res, runErr = runWithTUI(ctx, b, out, stderr)
	} else {
		res, runErr = b.Run(ctx, out)
	}

	// The document on stdout does not end with a newline, keep the report on its own line.
	if out == stdout && isTerminal(stdout) {
		fmt.Fprintln(stdout) //nolint:errcheck
	}

	if res != nil {
		opts := runbatch.DefaultOutputOptions()
		opts.IncludeStdOut = cmd.Bool(outputStdOutFlag)
		opts.IncludeStdErr = !cmd.Bool(noOutputStdErrFlag)
		opts.ShowSuccessDetails = cmd.Bool(outputSuccessDetailsFlag)
		opts.TailLines = cmd.Int(tailLinesFlag)

		if err := runbatch.WriteReport(stderr, res, opts); err != nil {
			logger.Error(fmt.Sprintf("failed to write report: %s", err.Error()))
		}
	}

	if runErr != nil {
		logger.Error("batch aborted", "error", runErr)
		return cli.Exit(cliExitStr, 1)
	}

	if !res.Success {
		logger.Error("some jobs failed, see above for details")
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

// runWithTUI runs the batch behind the TUI. Log records are held back while the TUI owns
// the terminal and written to stderr afterwards.
func runWithTUI(ctx context.Context, b *runbatch.Batch, out, stderr io.Writer) (*runbatch.BatchResult, error) {
	buf := new(bytes.Buffer)
	tuiCtx := ctxlog.New(ctx, slog.New(ctxlog.NewPrettyHandler(
		&slog.HandlerOptions{Level: ctxlog.LevelVar},
		ctxlog.WithDestinationWriter(buf),
	)))

	runner := tui.NewRunner(tui.Options{
		Output:    stderr,
		Input:     os.Stdin,
		AltScreen: true,
	})

	res, err := runner.Run(tuiCtx, b, out)

	buf.WriteTo(stderr) //nolint:errcheck

	return res, err //nolint:wrapcheck
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
