// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package plan

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/matt-FFFFFF/docfan/internal/chunk"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
	"github.com/matt-FFFFFF/docfan/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestPlanCommand(t *testing.T) {
	src := t.TempDir()
	t.Chdir(t.TempDir())

	for _, name := range []string{"a/A.java", "a/B.java", "b/C.java"} {
		p := filepath.Join(src, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("class X {}"), 0o644))
	}

	var out bytes.Buffer

	root := &cli.Command{
		Name:           "docfan",
		Commands:       []*cli.Command{New()},
		Writer:         &out,
		ErrWriter:      &bytes.Buffer{},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}

	err := root.Run(context.Background(), []string{
		"docfan", "plan", "--program", "javadoc", "--chunk-size", "5", "--group-by-dir", "-p", "2", src,
	})
	require.NoError(t, err)

	abs, _ := filepath.Abs(src)
	got := out.String()

	assert.Contains(t, got, "javadoc 3 items in 2 jobs, policy best-effort, workers 2")
	assert.Contains(t, got, fmt.Sprintf("chunk 0 %s (2 items)", filepath.Join(abs, "a")))
	assert.Contains(t, got, fmt.Sprintf("javadoc %s %s", filepath.Join(abs, "a", "A.java"), filepath.Join(abs, "a", "B.java")))
	assert.Contains(t, got, fmt.Sprintf("chunk 1 %s (1 items)", filepath.Join(abs, "b")))
}

func TestCommandLine(t *testing.T) {
	args := make([]string, 10)
	for i := range args {
		args[i] = fmt.Sprintf("F%d.java", i)
	}

	j := &runbatch.Job{
		Chunk:   chunk.Chunk{Items: args},
		Command: session.Command{Path: "javadoc", Args: args},
	}

	assert.Equal(t, "javadoc F0.java F1.java F2.java F3.java F4.java F5.java F6.java F7.java … 2 more", commandLine(j, false))
	assert.Equal(t, session.Command{Path: "javadoc", Args: args}.String(), commandLine(j, true))
}
