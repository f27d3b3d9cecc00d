// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
	"github.com/matt-FFFFFF/docfan/internal/session"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

// tempRoot points TempDir at a fresh directory and returns it.
func tempRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	stubs := gostub.Stub(&TempDir, root)
	t.Cleanup(stubs.Reset)

	return root
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	defer f.Close() //nolint:errcheck

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib-sources.jar")
	tgz := filepath.Join(dir, "src.TAR.GZ")
	txt := filepath.Join(dir, "notes.txt")

	for _, p := range []string{jar, tgz, txt} {
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}

	tests := []struct {
		src  string
		want Kind
	}{
		{src: dir, want: KindDir},
		{src: jar, want: KindArchive},
		{src: tgz, want: KindArchive},
		{src: txt, want: KindURL},
		{src: filepath.Join(dir, "missing.jar"), want: KindURL},
		{src: "git::https://example.com/repo.git", want: KindURL},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.src), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.src))
		})
	}
}

func TestArchiveSuffixPrefersLongest(t *testing.T) {
	assert.Equal(t, ".tar.gz", archiveSuffix("a/b.tar.gz"))
	assert.Equal(t, ".tar", archiveSuffix("a/b.tar"))
	assert.Equal(t, ".jar", archiveSuffix("B-SOURCES.JAR"))
	assert.Empty(t, archiveSuffix("b.java"))
}

func TestPrepareEmpty(t *testing.T) {
	dir, cleanup, err := Prepare(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptySource)
	assert.Empty(t, dir)
	assert.NotNil(t, cleanup)
}

func TestPrepareDirectory(t *testing.T) {
	src := t.TempDir()

	dir, cleanup, err := Prepare(context.Background(), src)
	require.NoError(t, err)

	abs, _ := filepath.Abs(src)
	assert.Equal(t, abs, dir)

	cleanup()
	assert.DirExists(t, src)
}

func TestPrepareTarGz(t *testing.T) {
	skipOnWindows(t)

	if _, err := exec.LookPath("tar"); err != nil {
		t.Skip("tar not available")
	}

	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	archive := filepath.Join(t.TempDir(), "sources.tar.gz")
	writeTarGz(t, archive, map[string]string{
		"com/acme/A.java": "class A {}",
		"com/acme/B.java": "class B {}",
	})

	dir, cleanup, err := Prepare(context.Background(), archive)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "com", "acme", "A.java"))
	assert.FileExists(t, filepath.Join(dir, "com", "acme", "B.java"))

	cleanup()
	cleanup()
	assert.NoDirExists(t, dir)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepareExtractFailure(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	root := tempRoot(t)
	stubs := gostub.Stub(&Extractors, map[string]Extractor{
		".jar": {Program: "/bin/sh", Args: []string{"-c", "echo \"corrupt $1\" >&2; exit 3", "sh"}},
	})
	defer stubs.Reset()

	archive := filepath.Join(t.TempDir(), "broken.jar")
	require.NoError(t, os.WriteFile(archive, []byte("not a zip"), 0o644))

	_, _, err := Prepare(context.Background(), archive)
	require.Error(t, err)

	var ee *session.ExecError

	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 3, ee.ExitCode)
	assert.Equal(t, []string{"corrupt " + archive}, ee.Stderr)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary directory must be removed on failure")
}

func TestPrepareExtractLogsOutput(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	tempRoot(t)
	stubs := gostub.Stub(&Extractors, map[string]Extractor{
		".zip": {Program: "/bin/sh", Args: []string{"-c", "echo inflating; echo skipped >&2", "sh"}},
	})
	defer stubs.Reset()

	archive := filepath.Join(t.TempDir(), "docs.zip")
	require.NoError(t, os.WriteFile(archive, nil, 0o644))

	var logs bytes.Buffer

	ctx := ctxlog.New(context.Background(), slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))

	_, cleanup, err := Prepare(ctx, archive)
	require.NoError(t, err)

	defer cleanup()

	assert.Contains(t, logs.String(), "msg=inflating component=source stream=stdout")
	assert.Contains(t, logs.String(), "msg=skipped component=source stream=stderr")
}

func TestPrepareExtractCancelled(t *testing.T) {
	skipOnWindows(t)
	defer goleak.VerifyNone(t)

	tempRoot(t)
	stubs := gostub.Stub(&Extractors, map[string]Extractor{
		".zip": {Program: "/bin/sh", Args: []string{"-c", "exec sleep 10", "sh"}},
	})
	defer stubs.Reset()

	archive := filepath.Join(t.TempDir(), "slow.zip")
	require.NoError(t, os.WriteFile(archive, nil, 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := Prepare(ctx, archive)

	require.ErrorIs(t, err, ErrExtract)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestPrepareExtractorMissing(t *testing.T) {
	tempRoot(t)
	stubs := gostub.Stub(&Extractors, map[string]Extractor{
		".jar": {Program: "docfan-no-such-extractor", Args: []string{"-xf"}},
	})
	defer stubs.Reset()

	archive := filepath.Join(t.TempDir(), "a.jar")
	require.NoError(t, os.WriteFile(archive, nil, 0o644))

	_, _, err := Prepare(context.Background(), archive)
	require.ErrorIs(t, err, ErrExtract)
	require.ErrorIs(t, err, session.ErrCouldNotStartProcess)
}

func TestPrepareGetterLocalDirectory(t *testing.T) {
	root := tempRoot(t)

	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "com", "acme"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "com", "acme", "A.java"), []byte("class A {}"), 0o644))

	dir, cleanup, err := Prepare(context.Background(), "file::"+src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "com", "acme", "A.java"))

	cleanup()

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepareGetterFailure(t *testing.T) {
	root := tempRoot(t)

	_, _, err := Prepare(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, ErrGet)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGetterSource(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{
			src:  "https://repo.example.com/lib/1.0/lib-1.0-sources.jar",
			want: "https://repo.example.com/lib/1.0/lib-1.0-sources.jar?archive=zip",
		},
		{
			src:  "https://repo.example.com/lib-sources.jar?archive=false",
			want: "https://repo.example.com/lib-sources.jar?archive=false",
		},
		{
			src:  "https://example.com/src.tar.gz",
			want: "https://example.com/src.tar.gz",
		},
		{
			src:  "git::https://example.com/repo.git",
			want: "git::https://example.com/repo.git",
		},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, getterSource(tt.src))
		})
	}
}
