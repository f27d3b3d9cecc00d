// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package workitems finds the files a batch should process.
package workitems

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

// FS is the file system that List walks. Tests replace it.
var FS afero.Fs = afero.NewOsFs()

var (
	// ErrInvalidGlob is returned when an include or exclude pattern does not compile.
	ErrInvalidGlob = errors.New("invalid glob pattern")
	// ErrNotADirectory is returned when the root is not a directory.
	ErrNotADirectory = errors.New("not a directory")
)

// Filter selects files. The zero value selects every non-hidden file.
type Filter struct {
	// Extensions, including the dot, that a file must have. Empty accepts any extension.
	Extensions []string
	// Include globs, matched against the slash separated path relative to the root.
	// When set, a file must match at least one. "**" crosses directories, "*" does not.
	Include []string
	// Exclude globs. A file matching any of them is dropped.
	Exclude []string
	// SkipDirNames are directory names that are not descended into, wherever they are.
	SkipDirNames []string
	// IncludeHidden also walks dot files and dot directories.
	IncludeHidden bool
}

type compiledFilter struct {
	Filter
	include []glob.Glob
	exclude []glob.Glob
}

// List walks root and returns the matching files as absolute paths, sorted.
func List(ctx context.Context, root string, f Filter) ([]string, error) {
	cf, err := compile(f)
	if err != nil {
		return nil, err
	}

	root, err = filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := FS.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	var files []string

	err = afero.Walk(FS, root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		name := info.Name()
		hidden := strings.HasPrefix(name, ".")

		if info.IsDir() {
			if (hidden && !cf.IncludeHidden) || slices.Contains(cf.SkipDirNames, name) {
				return filepath.SkipDir
			}

			return nil
		}

		if hidden && !cf.IncludeHidden {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}

		if cf.match(filepath.ToSlash(rel)) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files in %s: %w", root, err)
	}

	slices.Sort(files)

	return files, nil
}

func compile(f Filter) (*compiledFilter, error) {
	cf := &compiledFilter{Filter: f}

	for _, p := range f.Include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidGlob, p, err)
		}

		cf.include = append(cf.include, g)
	}

	for _, p := range f.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidGlob, p, err)
		}

		cf.exclude = append(cf.exclude, g)
	}

	return cf, nil
}

func (cf *compiledFilter) match(rel string) bool {
	if len(cf.Extensions) > 0 && !slices.Contains(cf.Extensions, filepath.Ext(rel)) {
		return false
	}

	if len(cf.include) > 0 && !slices.ContainsFunc(cf.include, func(g glob.Glob) bool { return g.Match(rel) }) {
		return false
	}

	return !slices.ContainsFunc(cf.exclude, func(g glob.Glob) bool { return g.Match(rel) })
}
