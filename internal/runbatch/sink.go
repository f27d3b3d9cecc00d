// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
)

// FS is the file system used for temporary job sinks. Tests replace it.
var FS afero.Fs = afero.NewOsFs()

const tempFilePattern = "docfan-job-*.out"

// sink holds one job's stdout until it is aggregated.
type sink interface {
	io.Writer
	// Close finishes writing.
	Close() error
	// Open returns a reader over everything written.
	Open() (io.ReadCloser, error)
	// Remove discards the content. It is safe to call more than once.
	Remove() error
	// Name identifies the sink in logs.
	Name() string
}

func newSink(kind SinkKind, dir string, index int) (sink, error) {
	switch kind {
	case SinkMemory:
		return &memorySink{name: fmt.Sprintf("memory:%d", index)}, nil
	case SinkTempFile:
		if dir != "" {
			if err := FS.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Join(ErrSink, err)
			}
		}

		f, err := afero.TempFile(FS, dir, tempFilePattern)
		if err != nil {
			return nil, errors.Join(ErrSink, err)
		}

		return &tempFileSink{f: f, name: f.Name()}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidSink, kind)
	}
}

type tempFileSink struct {
	f       afero.File
	name    string
	closed  bool
	removed bool
}

func (s *tempFileSink) Write(p []byte) (int, error) {
	return s.f.Write(p) //nolint:wrapcheck
}

func (s *tempFileSink) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	return s.f.Close() //nolint:wrapcheck
}

func (s *tempFileSink) Open() (io.ReadCloser, error) {
	return FS.Open(s.name) //nolint:wrapcheck
}

func (s *tempFileSink) Remove() error {
	if s.removed {
		return nil
	}

	closeErr := s.Close()
	s.removed = true

	if err := FS.Remove(s.name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(closeErr, err)
	}

	return closeErr
}

func (s *tempFileSink) Name() string {
	return s.name
}

type memorySink struct {
	bytes.Buffer
	name string
}

func (s *memorySink) Close() error {
	return nil
}

func (s *memorySink) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Bytes())), nil
}

func (s *memorySink) Remove() error {
	s.Reset()
	return nil
}

func (s *memorySink) Name() string {
	return s.name
}
