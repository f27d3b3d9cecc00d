// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package settings holds the flags shared by the run and plan commands and turns them,
// together with the configuration file and the SOURCE argument, into a batch.
package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/matt-FFFFFF/docfan/internal/config"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
	"github.com/matt-FFFFFF/docfan/internal/source"
	"github.com/matt-FFFFFF/docfan/internal/workitems"
	"github.com/urfave/cli/v3"
)

const (
	ConfigFlag      = "config"
	ProgramFlag     = "program"
	ChunkSizeFlag   = "chunk-size"
	GroupByDirFlag  = "group-by-dir"
	PolicyFlag      = "policy"
	ParallelismFlag = "parallelism"
	JobTimeoutFlag  = "job-timeout"
	BufferLinesFlag = "buffer-lines"
	SinkFlag        = "sink"
	IncludeFlag     = "include"
	ExcludeFlag     = "exclude"
)

// ErrNoSource is returned when the SOURCE argument is missing.
var ErrNoSource = errors.New("a SOURCE directory, archive or URL is required")

// Flags returns the flags shared by run and plan. Every call returns new flag values.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:      ConfigFlag,
			Aliases:   []string{"c"},
			Usage:     "Configuration file. Defaults to docfan.yaml, docfan.yml or docfan.hcl in SOURCE, then in the working directory",
			TakesFile: true,
			OnlyOnce:  true,
		},
		&cli.StringFlag{
			Name:     ProgramFlag,
			Usage:    "The documentation tool to run for every chunk",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     ChunkSizeFlag,
			Aliases:  []string{"n"},
			Usage:    "Maximum number of source files per process",
			OnlyOnce: true,
		},
		&cli.BoolFlag{
			Name:     GroupByDirFlag,
			Usage:    "Never mix files from different directories in one chunk",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     PolicyFlag,
			Usage:    "What a failing job does to the batch: best-effort or fail-fast",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     ParallelismFlag,
			Aliases:  []string{"p"},
			Usage:    "Maximum number of concurrent processes. 0 means unlimited",
			OnlyOnce: true,
		},
		&cli.DurationFlag{
			Name:     JobTimeoutFlag,
			Usage:    "Destroy a process that runs longer than this. 0 means no timeout",
			OnlyOnce: true,
		},
		&cli.IntFlag{
			Name:     BufferLinesFlag,
			Usage:    "Output lines kept per stream of each process. Negative keeps everything",
			OnlyOnce: true,
		},
		&cli.StringFlag{
			Name:     SinkFlag,
			Usage:    "Where job output is held until it is aggregated: tempfile or memory",
			OnlyOnce: true,
		},
		&cli.StringSliceFlag{
			Name:  IncludeFlag,
			Usage: "Only use source files matching this glob, relative to SOURCE. Repeatable",
		},
		&cli.StringSliceFlag{
			Name:  ExcludeFlag,
			Usage: "Skip source files matching this glob, relative to SOURCE. Repeatable",
		},
	}
}

// Workspace is a prepared source tree with its configuration and work items.
type Workspace struct {
	Source  string
	Dir     string
	Config  *config.Config
	Items   []string
	cleanup func()
}

// Open prepares the SOURCE argument, loads the configuration, applies flag overrides and
// lists the work items. Close must be called when Open succeeds.
func Open(ctx context.Context, cmd *cli.Command) (*Workspace, error) {
	src := cmd.Args().First()
	if src == "" {
		return nil, ErrNoSource
	}

	dir, cleanup, err := source.Prepare(ctx, src)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	ws := &Workspace{Source: src, Dir: dir, cleanup: cleanup}

	if err := ws.load(ctx, cmd); err != nil {
		ws.Close()
		return nil, err
	}

	return ws, nil
}

func (ws *Workspace) load(ctx context.Context, cmd *cli.Command) error {
	cfg, err := Resolve(ctx, cmd, ws.Dir)
	if err != nil {
		return err
	}

	if cfg.Dir == "" {
		cfg.Dir = ws.Dir
	}

	items, err := workitems.List(ctx, ws.Dir, cfg.Filter())
	if err != nil {
		return err //nolint:wrapcheck
	}

	if len(items) == 0 {
		ctxlog.Warn(ctx, "no matching source files found", "source", ws.Source, "extensions", cfg.Extensions)
	}

	ws.Config = cfg
	ws.Items = items

	return nil
}

// Batch builds the batch for the workspace.
func (ws *Workspace) Batch() (*runbatch.Batch, error) {
	b, err := ws.Config.Batch(ws.Items)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	b.Label = filepath.Base(ws.Config.Program)

	return b, nil
}

// Close removes anything created to prepare the source.
func (ws *Workspace) Close() {
	if ws.cleanup != nil {
		ws.cleanup()
	}
}

// Resolve returns the configuration for a run over dir. The file named by --config wins,
// then a configuration file in dir, then one in the working directory, then the defaults.
// Flags that were set override file values.
func Resolve(ctx context.Context, cmd *cli.Command, dir string) (*config.Config, error) {
	logger := ctxlog.Logger(ctx).With(ctxlog.ComponentKey, "settings")

	path := cmd.String(ConfigFlag)
	if path == "" {
		path = find(dir)
	}

	cfg := config.Defaults()

	if path != "" {
		logger.Debug("loading configuration", "path", path)

		loaded, err := config.Load(path)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		cfg = loaded
	}

	override(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return cfg, nil
}

func find(dir string) string {
	if p, err := config.Find(dir); err == nil {
		return p
	}

	wd, err := os.Getwd()
	if err != nil {
		return ""
	}

	if p, err := config.Find(wd); err == nil {
		return p
	}

	return ""
}

func override(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet(ProgramFlag) {
		cfg.Program = cmd.String(ProgramFlag)
	}

	if cmd.IsSet(ChunkSizeFlag) {
		cfg.ChunkSize = cmd.Int(ChunkSizeFlag)
	}

	if cmd.IsSet(GroupByDirFlag) {
		cfg.GroupByDir = cmd.Bool(GroupByDirFlag)
	}

	if cmd.IsSet(PolicyFlag) {
		cfg.Policy = cmd.String(PolicyFlag)
	}

	if cmd.IsSet(ParallelismFlag) {
		cfg.MaxWorkers = cmd.Int(ParallelismFlag)
	}

	if cmd.IsSet(JobTimeoutFlag) {
		cfg.JobTimeout = cmd.Duration(JobTimeoutFlag).String()
	}

	if cmd.IsSet(BufferLinesFlag) {
		cfg.BufferLines = cmd.Int(BufferLinesFlag)
	}

	if cmd.IsSet(SinkFlag) {
		cfg.Sink = cmd.String(SinkFlag)
	}

	if cmd.IsSet(IncludeFlag) {
		cfg.Include = cmd.StringSlice(IncludeFlag)
	}

	if cmd.IsSet(ExcludeFlag) {
		cfg.Exclude = cmd.StringSlice(ExcludeFlag)
	}
}
