// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package source turns the SOURCE argument into a local directory of source files.
//
// A directory is used as is. A local archive is unpacked into a temporary directory by an
// external tool. Anything else is handed to go-getter, which also understands archive URLs.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	getter "github.com/hashicorp/go-getter/v2"
	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/session"
)

var (
	// ErrEmptySource is returned when no source is given.
	ErrEmptySource = errors.New("source must not be empty")
	// ErrPrepare is returned when a temporary directory cannot be created.
	ErrPrepare = errors.New("failed to prepare source")
	// ErrExtract is returned when an archive cannot be unpacked.
	ErrExtract = errors.New("failed to extract archive")
	// ErrGet is returned when go-getter cannot retrieve a source.
	ErrGet = errors.New("failed to retrieve source")
)

// Kind is the way a source is turned into a directory.
type Kind int

const (
	KindDir Kind = iota
	KindArchive
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "directory"
	case KindArchive:
		return "archive"
	case KindURL:
		return "url"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Extractor is the command that unpacks an archive into its working directory.
// The archive path is appended to Args.
type Extractor struct {
	Program string
	Args    []string
}

// Extractors maps archive suffixes to the tool that unpacks them.
var Extractors = map[string]Extractor{
	".jar":    {Program: "jar", Args: []string{"-xf"}},
	".zip":    {Program: "jar", Args: []string{"-xf"}},
	".tar":    {Program: "tar", Args: []string{"-xf"}},
	".tar.gz": {Program: "tar", Args: []string{"-xzf"}},
	".tgz":    {Program: "tar", Args: []string{"-xzf"}},
}

// TempDir is the parent of every directory Prepare creates. Empty means os.TempDir.
var TempDir = ""

const tempDirPattern = "docfan-src-*"

// Classify reports how src will be prepared.
func Classify(src string) Kind {
	fi, err := os.Stat(src)

	switch {
	case err == nil && fi.IsDir():
		return KindDir
	case err == nil && archiveSuffix(src) != "":
		return KindArchive
	default:
		return KindURL
	}
}

// Prepare returns a directory holding the source files and a cleanup function that
// removes anything Prepare created. cleanup is never nil and is safe to call more than once.
func Prepare(ctx context.Context, src string) (string, func(), error) {
	noop := func() {}

	if src == "" {
		return "", noop, ErrEmptySource
	}

	kind := Classify(src)
	logger := ctxlog.Logger(ctx).With("component", "source", "source", src, "kind", kind.String())
	logger.Debug("preparing source")

	if kind == KindDir {
		abs, err := filepath.Abs(src)
		if err != nil {
			return "", noop, errors.Join(ErrPrepare, err)
		}

		return abs, noop, nil
	}

	tmp, err := os.MkdirTemp(TempDir, tempDirPattern)
	if err != nil {
		return "", noop, errors.Join(ErrPrepare, err)
	}

	cleanup := cleanupFunc(ctx, tmp)

	var dir string

	switch kind {
	case KindArchive:
		dir, err = extract(ctx, src, tmp)
	default:
		dir, err = get(ctx, src, tmp)
	}

	if err != nil {
		cleanup()
		return "", noop, err
	}

	logger.Debug("source ready", "dir", dir)

	return dir, cleanup, nil
}

// extract unpacks the archive at src into dir.
func extract(ctx context.Context, src, dir string) (string, error) {
	x := Extractors[archiveSuffix(src)]

	abs, err := filepath.Abs(src)
	if err != nil {
		return "", errors.Join(ErrExtract, err)
	}

	cmd := session.Command{
		Path: x.Program,
		Args: append(append([]string{}, x.Args...), abs),
		Dir:  dir,
	}

	s, err := session.Spawn(ctx, cmd, session.WithDescription("extract "+filepath.Base(src)))
	if err != nil {
		return "", errors.Join(ErrExtract, err)
	}

	logger := ctxlog.Logger(ctx).With("component", "source")
	_ = s.AddObserver(session.Stdout, session.ObserverFunc(func(line string) {
		logger.Debug(line, "stream", session.Stdout.String())
	}))
	_ = s.AddObserver(session.Stderr, session.ObserverFunc(func(line string) {
		logger.Debug(line, "stream", session.Stderr.String())
	}))

	if err := waitFor(ctx, s); err != nil {
		return "", errors.Join(ErrExtract, err)
	}

	if code, _ := s.ExitCode(); code != 0 {
		return "", s.Failure()
	}

	return dir, nil
}

// waitFor waits for s, destroying it if ctx is done first.
func waitFor(ctx context.Context, s *session.Session) error {
	waited := make(chan error, 1)

	go func() {
		waited <- s.WaitFor()
	}()

	select {
	case err := <-waited:
		return err
	case <-ctx.Done():
		_ = s.DestroyAndWaitFor()
		<-waited

		return context.Cause(ctx)
	}
}

// get retrieves src with go-getter into a directory below tmp.
func get(ctx context.Context, src, tmp string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", errors.Join(ErrGet, err)
	}

	cli := getter.Client{
		DisableSymlinks: true,
	}

	req := &getter.Request{
		Src:     getterSource(src),
		Dst:     filepath.Join(tmp, "src"),
		Pwd:     wd,
		GetMode: getter.ModeDir,
		Copy:    true,
	}

	res, err := cli.Get(ctx, req)
	if err != nil {
		return "", errors.Join(ErrGet, err)
	}

	return res.Dst, nil
}

// getterSource asks go-getter to unzip jar URLs, which it does not recognise by suffix.
func getterSource(src string) string {
	u, err := url.Parse(src)
	if err != nil || !strings.HasSuffix(strings.ToLower(u.Path), ".jar") || u.Query().Has("archive") {
		return src
	}

	q := u.Query()
	q.Set("archive", "zip")
	u.RawQuery = q.Encode()

	return u.String()
}

func archiveSuffix(p string) string {
	lower := strings.ToLower(p)

	var best string

	for suffix := range Extractors {
		if strings.HasSuffix(lower, suffix) && len(suffix) > len(best) {
			best = suffix
		}
	}

	return best
}

func cleanupFunc(ctx context.Context, dir string) func() {
	done := false

	return func() {
		if done {
			return
		}

		done = true

		if err := os.RemoveAll(dir); err != nil {
			ctxlog.Warn(ctx, "failed to remove temporary source directory", "dir", dir, "error", err)
		}
	}
}
