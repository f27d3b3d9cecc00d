// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the docfan command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/matt-FFFFFF/docfan"
	"github.com/matt-FFFFFF/docfan/cmd/docfan/plan"
	"github.com/matt-FFFFFF/docfan/cmd/docfan/run"
	"github.com/matt-FFFFFF/docfan/internal/color"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/signalbroker"
	"github.com/urfave/cli/v3"
)

const (
	logLevelFlag = "log-level"
	jsonLogFlag  = "json-log"
	noColorFlag  = "no-color"
)

// newRootCmd returns the root command for the CLI.
func newRootCmd() *cli.Command {
	return &cli.Command{
		Commands: []*cli.Command{
			run.New(),
			plan.New(),
			versionCmd(),
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Name:      "docfan",
		Description: `docfan runs a documentation generator such as javadoc over a large source tree.
It splits the source files into chunks small enough for one command line, runs one
process per chunk in parallel and joins their output into a single document.`,
		Usage:     "docfan run ./src > docs.json",
		Version:   version(),
		Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
		Authors: []any{
			"Matt White (matt-FFFFFF)",
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    logLevelFlag,
				Usage:   "Log level: debug, info, warn or error. Overrides " + ctxlog.LogLevelEnvVar,
				Sources: cli.EnvVars(ctxlog.LogLevelEnvVar),
			},
			&cli.BoolFlag{
				Name:  jsonLogFlag,
				Usage: "Write log records to stderr as JSON",
			},
			&cli.BoolFlag{
				Name:  noColorFlag,
				Usage: "Disable coloured output. NO_COLOR in the environment does the same",
			},
		},
		Before:                before,
		EnableShellCompletion: true,
	}
}

// before applies the global flags.
func before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.IsSet(logLevelFlag) {
		level, ok := ctxlog.ParseLevel(cmd.String(logLevelFlag))
		if !ok {
			return ctx, fmt.Errorf("invalid log level %q", cmd.String(logLevelFlag))
		}

		ctxlog.LevelVar.Set(level)
	}

	if cmd.Bool(noColorFlag) {
		color.Set(false)
	}

	if cmd.Bool(jsonLogFlag) {
		ctx = ctxlog.New(ctx, ctxlog.JSONLogger)
	}

	return ctx, nil
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintf(cmd.Root().Writer, "docfan %s\n", version())
			return err //nolint:wrapcheck
		},
	}
}

func version() string {
	return fmt.Sprintf("%s (commit: %s)", docfan.Version, docfan.Commit)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh, stop := signalbroker.New(ctx)
	defer stop()

	go signalbroker.Watch(ctx, sigCh, cancel)

	err := newRootCmd().Run(ctx, os.Args) // Err is handled by cli framework

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1) //nolint:gocritic
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Debug("command completed successfully")
}
