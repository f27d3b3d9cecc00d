// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/linebuffer"
)

const (
	// DefaultBufferLines is the number of lines kept per stream unless overridden.
	DefaultBufferLines = 1000
	// readerSize is the bufio buffer used by each drain.
	readerSize = 64 * 1024
	// destroyDrainGrace bounds how long a destroyed session waits for its drains after the
	// process has been reaped. A grandchild holding the pipe open would otherwise block forever.
	destroyDrainGrace = 5 * time.Second
)

// Command describes the process to spawn.
type Command struct {
	Path string            // Program name (looked up in PATH) or path to the executable. Relative paths are resolved against Dir.
	Args []string          // Arguments, not including the program itself.
	Dir  string            // Working directory, empty for the current one.
	Env  map[string]string // Added to the parent environment.
}

// lookPath finds the executable for cmd. A bare name is searched in PATH, a relative
// path is taken from the child's working directory.
func lookPath(cmd Command) (string, error) {
	if cmd.Dir == "" || filepath.IsAbs(cmd.Path) || !strings.ContainsRune(cmd.Path, filepath.Separator) {
		return exec.LookPath(cmd.Path) //nolint:wrapcheck
	}

	abs, err := filepath.Abs(filepath.Join(cmd.Dir, cmd.Path))
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	return exec.LookPath(abs) //nolint:wrapcheck
}

// String returns the command line for display purposes.
func (c Command) String() string {
	return strings.Join(slices.Concat([]string{c.Path}, c.Args), " ")
}

// Session wraps one spawned OS process.
type Session struct {
	ctx         context.Context
	description string
	cmd         Command
	ps          *os.Process
	pipes       [2]*os.File
	drains      [2]*drain
	observers   [2][]Observer
	obsMu       sync.Mutex
	started     bool // guarded by obsMu
	startOnce   sync.Once
	waitOnce    sync.Once
	destroyed   atomic.Bool
	state       *os.ProcessState
	waitErr     error
	exited      chan struct{} // closed once the process has been reaped
	done        chan struct{} // closed once the session is terminal
}

type drain struct {
	stream Stream
	buf    *linebuffer.Buffer
	done   chan struct{}
	err    error // written before done is closed
}

type options struct {
	description string
	bufferLines int
	stdin       *os.File
}

// Option configures a Session at spawn time.
type Option func(*options)

// WithDescription sets the human-readable description used in logs and failures.
func WithDescription(d string) Option {
	return func(o *options) {
		o.description = d
	}
}

// WithBufferLines sets the per-stream line capacity. n <= 0 keeps every line.
func WithBufferLines(n int) Option {
	return func(o *options) {
		o.bufferLines = n
	}
}

// WithStdin connects the child's stdin to f. By default the child reads from the null device.
func WithStdin(f *os.File) Option {
	return func(o *options) {
		o.stdin = f
	}
}

// Spawn starts the process described by cmd.
// If the process cannot be created, the returned error wraps ErrCouldNotStartProcess
// and no Session is returned.
// The context is only used for logging, the process is not tied to its lifetime.
func Spawn(ctx context.Context, cmd Command, opts ...Option) (*Session, error) {
	o := &options{
		bufferLines: DefaultBufferLines,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.description == "" {
		o.description = cmd.String()
	}

	logger := ctxlog.Logger(ctx).With("component", "session", "description", o.description)

	path, err := lookPath(cmd)
	if err != nil {
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	rOut, wOut, err := os.Pipe()
	if err != nil {
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	rErr, wErr, err := os.Pipe()
	if err != nil {
		closeAll(rOut, wOut)
		return nil, errors.Join(ErrFailedToCreatePipe, err)
	}

	stdin := o.stdin
	if stdin == nil {
		devNull, err := os.Open(os.DevNull)
		if err != nil {
			closeAll(rOut, wOut, rErr, wErr)
			return nil, errors.Join(ErrCouldNotStartProcess, err)
		}

		defer devNull.Close() //nolint:errcheck

		stdin = devNull
	}

	env := os.Environ()
	for _, k := range slices.Sorted(maps.Keys(cmd.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", k, cmd.Env[k]))
	}

	logger.Debug("starting process", "path", path, "args", cmd.Args, "cwd", cmd.Dir)

	ps, err := os.StartProcess(path, slices.Concat([]string{path}, cmd.Args), &os.ProcAttr{
		Dir:   cmd.Dir,
		Env:   env,
		Files: []*os.File{stdin, wOut, wErr},
	})

	// The child holds its own copies of the write ends. Ours must be closed so the
	// drains see EOF once the child exits.
	closeAll(wOut, wErr)

	if err != nil {
		closeAll(rOut, rErr)
		return nil, errors.Join(ErrCouldNotStartProcess, err)
	}

	logger.Debug("process started", "pid", ps.Pid)

	s := &Session{
		ctx:         ctx,
		description: o.description,
		cmd:         cmd,
		ps:          ps,
		pipes:       [2]*os.File{rOut, rErr},
		exited:      make(chan struct{}),
		done:        make(chan struct{}),
	}

	for _, stream := range []Stream{Stdout, Stderr} {
		s.drains[stream] = &drain{
			stream: stream,
			buf:    linebuffer.New(o.bufferLines),
			done:   make(chan struct{}),
		}
	}

	return s, nil
}

// Description returns the human-readable description of the session.
func (s *Session) Description() string {
	return s.description
}

// Command returns the command the session was spawned with.
func (s *Session) Command() Command {
	return s.cmd
}

// Pid returns the operating system process id.
func (s *Session) Pid() int {
	return s.ps.Pid
}

// Done returns a channel that is closed once the session is terminal.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// AddObserver registers an observer for the given stream.
// A nil observer is ignored. Observers cannot be added once draining has started.
func (s *Session) AddObserver(stream Stream, o Observer) error {
	if o == nil {
		return nil
	}

	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	if s.started {
		return ErrObserversSealed
	}

	s.observers[stream] = append(s.observers[stream], o)

	return nil
}

// AddObserverBoth registers the observer for both stdout and stderr.
func (s *Session) AddObserverBoth(o Observer) error {
	return errors.Join(s.AddObserver(Stdout, o), s.AddObserver(Stderr, o))
}

// PipeTo writes every line of the stream to w.
func (s *Session) PipeTo(stream Stream, w io.Writer) error {
	return s.AddObserver(stream, NewWriterObserver(w))
}

// SpawnStreamReaders starts the two drain goroutines. It is idempotent.
func (s *Session) SpawnStreamReaders() {
	s.startOnce.Do(func() {
		s.obsMu.Lock()
		s.started = true
		observers := s.observers
		s.obsMu.Unlock()

		for _, d := range s.drains {
			go s.drainStream(d, s.pipes[d.stream], observers[d.stream])
		}
	})
}

// WaitFor makes sure the drains are running, blocks until the process exits and then
// until both drains have finished.
// A non-zero exit code is not an error, check ExitCode.
func (s *Session) WaitFor() error {
	s.SpawnStreamReaders()
	s.waitOnce.Do(s.reap)

	return s.waitErr
}

// DestroyAndWaitFor forcibly terminates the process and then waits for it like WaitFor.
func (s *Session) DestroyAndWaitFor() error {
	s.SpawnStreamReaders()

	select {
	case <-s.exited:
	default:
		s.destroyed.Store(true)
		killPs(s.ctx, s.ps)
	}

	return s.WaitFor()
}

// ExitCode returns the process exit code.
// It returns ErrNotTerminated until WaitFor or DestroyAndWaitFor has reaped the process.
// A process terminated by a signal reports -1.
func (s *Session) ExitCode() (int, error) {
	select {
	case <-s.exited:
	default:
		return -1, ErrNotTerminated
	}

	if s.state == nil {
		return -1, s.waitErr
	}

	return s.state.ExitCode(), nil
}

// Destroyed reports whether DestroyAndWaitFor killed the process.
func (s *Session) Destroyed() bool {
	return s.destroyed.Load()
}

// Stdout blocks until the stdout drain has finished and returns the buffered lines.
func (s *Session) Stdout() ([]string, error) {
	return s.drains[Stdout].result()
}

// Stderr blocks until the stderr drain has finished and returns the buffered lines.
func (s *Session) Stderr() ([]string, error) {
	return s.drains[Stderr].result()
}

// Output blocks until both drains have finished and returns stdout followed by stderr.
func (s *Session) Output() ([]string, error) {
	out, outErr := s.Stdout()
	errLines, errErr := s.Stderr()

	return slices.Concat(out, errLines), errors.Join(outErr, errErr)
}

// StdoutNow returns the stdout lines without blocking.
// If the drain has not finished, or failed, a diagnostic is returned instead.
func (s *Session) StdoutNow() []string {
	return s.drains[Stdout].now()
}

// StderrNow returns the stderr lines without blocking.
// If the drain has not finished, or failed, a diagnostic is returned instead.
func (s *Session) StderrNow() []string {
	return s.drains[Stderr].now()
}

// Failure builds the ExecError for this session from the current stream tails.
func (s *Session) Failure() *ExecError {
	code, err := s.ExitCode()
	if errors.Is(err, ErrNotTerminated) {
		err = nil
	}

	return &ExecError{
		Description: s.description,
		ExitCode:    code,
		Stdout:      s.StdoutNow(),
		Stderr:      s.StderrNow(),
		Err:         err,
	}
}

// reap waits for the process, then for both drains. It runs exactly once.
func (s *Session) reap() {
	logger := ctxlog.Logger(s.ctx).With("component", "session", "description", s.description, "pid", s.ps.Pid)
	logger.Debug("waiting for process to finish")

	state, err := s.ps.Wait()
	if err != nil {
		s.waitErr = errors.Join(ErrWaitFailed, err)
	}

	s.state = state
	close(s.exited)

	if s.destroyed.Load() {
		s.forceDrainsAfter(destroyDrainGrace)
	}

	for _, d := range s.drains {
		<-d.done
	}

	closeAll(s.pipes[:]...)
	close(s.done)

	code, _ := s.ExitCode()
	logger.Debug("process finished", "exitCode", code, "destroyed", s.destroyed.Load())
}

// forceDrainsAfter sets a read deadline on both pipes if the drains have not finished
// within grace.
func (s *Session) forceDrainsAfter(grace time.Duration) {
	timer := time.NewTimer(grace)
	defer timer.Stop()

	for _, d := range s.drains {
		select {
		case <-d.done:
		case <-timer.C:
			ctxlog.Logger(s.ctx).Warn("drain did not finish after destroy, forcing",
				"description", s.description, "pid", s.ps.Pid)

			for _, p := range s.pipes {
				_ = p.SetReadDeadline(time.Now())
			}

			return
		}
	}
}

func (s *Session) drainStream(d *drain, r io.Reader, observers []Observer) {
	defer close(d.done)

	br := bufio.NewReaderSize(r, readerSize)

	for {
		line, err := br.ReadString('\n')
		if err == nil || len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			d.buf.Add(line)

			for _, o := range observers {
				s.notify(o, d.stream, line)
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.err = errors.Join(ErrReadFailure, err)
			}

			return
		}
	}
}

// notify calls the observer, recovering from panics so that later lines are still delivered.
func (s *Session) notify(o Observer, stream Stream, line string) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.Logger(s.ctx).Warn("observer panicked",
				"description", s.description, "stream", stream.String(), "panic", r)
		}
	}()

	o.OnLine(line)
}

func (d *drain) result() ([]string, error) {
	<-d.done

	if d.err != nil {
		return nil, d.err
	}

	return d.buf.Lines(), nil
}

func (d *drain) now() []string {
	select {
	case <-d.done:
	default:
		return []string{d.stream.String() + " could not be retrieved because the process is not done"}
	}

	if d.err != nil {
		return []string{d.stream.String() + " could not be retrieved due to an error", d.err.Error()}
	}

	return d.buf.Lines()
}

// killPs kills the process, ignoring processes that are already done.
func killPs(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Logger(ctx).Debug("process already done", "pid", ps.Pid)
			return
		}

		ctxlog.Logger(ctx).Error("process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Logger(ctx).Info("process killed", "pid", ps.Pid)
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
