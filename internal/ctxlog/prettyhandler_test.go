// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf *bytes.Buffer, opts ...Option) *PrettyHandler {
	return NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelDebug},
		append([]Option{WithDestinationWriter(buf)}, opts...)...)
}

func TestPrettyHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		level    slog.Level
		msg      string
		attrs    []slog.Attr
		options  []Option
		contains []string
		absent   []string
	}{
		{
			name:     "message and attributes",
			level:    slog.LevelInfo,
			msg:      "job finished",
			attrs:    []slog.Attr{slog.Int("index", 2), slog.String("key", "com/acme")},
			contains: []string{"INFO:", "job finished", `"index": 2`, `"key": "com/acme"`},
		},
		{
			name:     "component becomes a tag",
			level:    slog.LevelWarn,
			msg:      "observer panicked",
			attrs:    []slog.Attr{slog.String(ComponentKey, "session")},
			contains: []string{"WARN:", "[session] observer panicked"},
			absent:   []string{`"component"`},
		},
		{
			name:     "no attributes",
			level:    slog.LevelDebug,
			msg:      "bare",
			contains: []string{"DEBUG:", "bare"},
			absent:   []string{"{"},
		},
		{
			name:     "empty attributes rendered on request",
			level:    slog.LevelError,
			msg:      "bare",
			options:  []Option{WithOutputEmptyAttrs()},
			contains: []string{"ERROR:", "{}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			h := newTestHandler(buf, tt.options...)

			r := slog.NewRecord(time.Date(2025, 1, 2, 3, 4, 5, 6000000, time.UTC), tt.level, tt.msg, 0)
			r.AddAttrs(tt.attrs...)

			require.NoError(t, h.Handle(context.Background(), r))

			out := buf.String()
			assert.True(t, strings.HasPrefix(out, "[03:04:05.006] "), out)
			assert.True(t, strings.HasSuffix(out, "\n"))

			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}

			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPrettyHandler_WithAttrsAndGroup(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newTestHandler(buf)).
		With(ComponentKey, "runbatch").
		WithGroup("job").
		With("index", 4)

	logger.Info("started", "pid", 99)

	out := buf.String()
	assert.Contains(t, out, "[runbatch] started")
	assert.Contains(t, out, `"job": {`)
	assert.Contains(t, out, `"index": 4`)
	assert.Contains(t, out, `"pid": 99`)
}

func TestPrettyHandler_ReplaceAttrDropsTime(t *testing.T) {
	buf := &bytes.Buffer{}
	h := NewPrettyHandler(&slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}

			return a
		},
	}, WithDestinationWriter(buf))

	slog.New(h).Info("no clock")

	assert.True(t, strings.HasPrefix(buf.String(), "INFO: no clock"), buf.String())
}

func TestPrettyHandler_Colour(t *testing.T) {
	buf := &bytes.Buffer{}
	h := newTestHandler(buf)
	slog.New(h).Error("plain")
	assert.NotContains(t, buf.String(), "\033[", "colour is off unless requested")
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
}

type failingWriter struct{}

func (failingWriter) Write(_ []byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestPrettyHandler_WriteError(t *testing.T) {
	h := NewPrettyHandler(nil, WithDestinationWriter(failingWriter{}))

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "x", 0))
	require.ErrorIs(t, err, ErrIoWrite)
}

func TestPrettyHandler_Concurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newTestHandler(buf))

	wg := sync.WaitGroup{}

	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			logger.Info("line", "i", i)
		}()
	}

	wg.Wait()

	assert.Equal(t, 20, strings.Count(buf.String(), "INFO: line"))
}

func TestSuppressDefaults(t *testing.T) {
	f := suppressDefaults(nil)

	for _, k := range []string{slog.TimeKey, slog.LevelKey, slog.MessageKey} {
		assert.True(t, f(nil, slog.String(k, "x")).Equal(slog.Attr{}), k)
	}

	kept := slog.String("msg", "inside a group")
	assert.True(t, f([]string{"g"}, kept).Equal(kept), "grouped keys are not built-ins")

	upper := suppressDefaults(func(_ []string, a slog.Attr) slog.Attr {
		return slog.String(a.Key, strings.ToUpper(a.Value.String()))
	})
	assert.Equal(t, "ABC", upper(nil, slog.String("other", "abc")).Value.String())
}
