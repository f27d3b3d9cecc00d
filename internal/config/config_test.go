// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/matt-FFFFFF/docfan/internal/aggregate"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFS(t *testing.T, files map[string]string) {
	t.Helper()

	fs := afero.NewMemMapFs()
	stubs := gostub.Stub(&FS, fs)
	t.Cleanup(stubs.Reset)

	for name, body := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(body), 0o644))
	}
}

func TestDefaults(t *testing.T) {
	c := Defaults()

	assert.Equal(t, DefaultProgram, c.Program)
	assert.Equal(t, runbatch.DefaultChunkSize, c.ChunkSize)
	assert.Equal(t, "best-effort", c.Policy)
	assert.Equal(t, "tempfile", c.Sink)
	assert.Equal(t, []string{".java"}, c.Extensions)
	assert.Equal(t, []string{"test"}, c.SkipDirNames)
	assert.Equal(t, []string{aggregate.DefaultNoisePattern}, c.Noise)
	assert.Equal(t, "[", *c.OpenMarker)
	assert.Equal(t, "]", *c.CloseMarker)
	assert.Equal(t, ",", *c.Separator)
	require.NoError(t, c.Validate())
}

func TestApplyDefaultsKeepsExplicitEmpty(t *testing.T) {
	c := &Config{SkipDirNames: []string{}, Noise: []string{}, Separator: ptr("")}
	c.ApplyDefaults()

	assert.Empty(t, c.SkipDirNames)
	assert.Empty(t, c.Noise)
	assert.Empty(t, *c.Separator)
}

func TestLoadYAML(t *testing.T) {
	memFS(t, map[string]string{
		"/work/docfan.yaml": `
program: /opt/jdk/bin/javadoc
args: ["-quiet", "-doclet", "com.acme.JsonDoclet", "{items}"]
chunk_size: 100
group_by_dir: true
policy: fail-fast
max_workers: 4
job_timeout: 90s
sink: memory
env:
  LANG: C
exclude: ["**/generated/**"]
separator: ",\n"
`,
	})

	c, err := Load("/work/docfan.yaml")
	require.NoError(t, err)

	assert.Equal(t, "/opt/jdk/bin/javadoc", c.Program)
	assert.Equal(t, []string{"-quiet", "-doclet", "com.acme.JsonDoclet", "{items}"}, c.Args)
	assert.Equal(t, 100, c.ChunkSize)
	assert.True(t, c.GroupByDir)
	assert.Equal(t, "fail-fast", c.Policy)
	assert.Equal(t, 4, c.MaxWorkers)
	assert.Equal(t, map[string]string{"LANG": "C"}, c.Env)
	assert.Equal(t, ",\n", *c.Separator)
	assert.Equal(t, []string{".java"}, c.Extensions)

	d, err := c.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)
}

func TestLoadYAMLUnknownField(t *testing.T) {
	memFS(t, map[string]string{"/work/docfan.yml": "progrm: javadoc\n"})

	_, err := Load("/work/docfan.yml")
	require.ErrorIs(t, err, ErrParse)
}

func TestLoadHCL(t *testing.T) {
	t.Setenv("DOCFAN_TEST_JDK", "/opt/jdk")

	memFS(t, map[string]string{
		"/work/docfan.hcl": `
program    = "${env.DOCFAN_TEST_JDK}/bin/javadoc"
args       = concat(["-quiet"], ["{items}"])
policy     = lower("FAIL-FAST")
chunk_size = 50
extensions = [".java", ".kt"]
`,
	})

	c, err := Load("/work/docfan.hcl")
	require.NoError(t, err)

	assert.Equal(t, "/opt/jdk/bin/javadoc", c.Program)
	assert.Equal(t, []string{"-quiet", "{items}"}, c.Args)
	assert.Equal(t, "fail-fast", c.Policy)
	assert.Equal(t, 50, c.ChunkSize)
	assert.Equal(t, []string{".java", ".kt"}, c.Extensions)
	assert.Equal(t, "[", *c.OpenMarker)
}

func TestLoadHCLSyntaxError(t *testing.T) {
	memFS(t, map[string]string{"/work/docfan.hcl": "program = \n"})

	_, err := Load("/work/docfan.hcl")
	require.ErrorIs(t, err, ErrParse)
}

func TestLoadUnknownFormat(t *testing.T) {
	memFS(t, map[string]string{"/work/docfan.toml": "program = 'javadoc'\n"})

	_, err := Load("/work/docfan.toml")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadMissingFile(t *testing.T) {
	memFS(t, nil)

	_, err := Load("/work/docfan.yaml")
	require.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	memFS(t, map[string]string{
		"/work/docfan.yaml": "policy: sometimes\nchunk_size: -1\n",
	})

	_, err := Load("/work/docfan.yaml")
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "policy")
	assert.Contains(t, err.Error(), "chunk_size")
}

func TestFind(t *testing.T) {
	memFS(t, map[string]string{
		"/a/docfan.hcl": "",
		"/b/docfan.yml": "",
		"/b/docfan.hcl": "",
	})

	p, err := Find("/a")
	require.NoError(t, err)
	assert.Equal(t, "/a/docfan.hcl", p)

	p, err = Find("/b")
	require.NoError(t, err)
	assert.Equal(t, "/b/docfan.yml", p)

	_, err = Find("/c")
	require.ErrorIs(t, err, ErrNoConfigFile)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{name: "defaults"},
		{
			name:    "empty program",
			mutate:  func(c *Config) { c.Program = "" },
			wantErr: []string{"program must be set"},
		},
		{
			name:    "negative workers",
			mutate:  func(c *Config) { c.MaxWorkers = -2 },
			wantErr: []string{"max_workers"},
		},
		{
			name:    "bad sink and timeout",
			mutate:  func(c *Config) { c.Sink = "disk"; c.JobTimeout = "soon" },
			wantErr: []string{"sink", "job_timeout"},
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.JobTimeout = "-1s" },
			wantErr: []string{"must not be negative"},
		},
		{
			name:    "extension without dot",
			mutate:  func(c *Config) { c.Extensions = []string{"java"} },
			wantErr: []string{`extension "java"`},
		},
		{
			name:    "bad glob",
			mutate:  func(c *Config) { c.Exclude = []string{"[unclosed"} },
			wantErr: []string{`glob "[unclosed"`},
		},
		{
			name:    "bad noise pattern",
			mutate:  func(c *Config) { c.Noise = []string{"(warnings"} },
			wantErr: []string{`noise pattern "(warnings"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			if tt.mutate != nil {
				tt.mutate(c)
			}

			err := c.Validate()
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, ErrInvalidConfig)

			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestBatch(t *testing.T) {
	c := Defaults()
	c.Program = "javadoc"
	c.Args = []string{"-quiet", "{items}"}
	c.Policy = "fail-fast"
	c.Sink = "memory"
	c.ChunkSize = 2
	c.MaxWorkers = 3
	c.JobTimeout = "2m"
	c.BufferLines = -1
	c.Dir = "/src"

	b, err := c.Batch([]string{"A.java", "B.java", "C.java"})
	require.NoError(t, err)

	assert.Equal(t, runbatch.PolicyFailFast, b.Policy)
	assert.Equal(t, runbatch.SinkMemory, b.Sink)
	assert.Equal(t, 2, b.ChunkSize)
	assert.Equal(t, 3, b.MaxWorkers)
	assert.Equal(t, 2*time.Minute, b.JobTimeout)
	assert.Equal(t, -1, b.BufferLines)
	assert.Equal(t, "/src", b.Dir)
	assert.Equal(t, "javadoc -quiet {items}", b.Template.String())
	require.NoError(t, b.Validate())

	chunks, err := b.Partition()
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestBatchAggregateOptions(t *testing.T) {
	c := Defaults()
	c.OpenMarker = ptr("<docs>")
	c.CloseMarker = ptr("</docs>")
	c.Separator = ptr("")

	b, err := c.Batch(nil)
	require.NoError(t, err)

	var out bytes.Buffer

	w, err := aggregate.NewE(&out, b.Aggregate...)
	require.NoError(t, err)
	require.NoError(t, w.WriteBlocks("<a/>\n3 warnings", "<b/>"))
	assert.Equal(t, "<docs><a/><b/></docs>", out.String())
}

func TestBatchSkipEmptyBlocks(t *testing.T) {
	for _, tc := range []struct {
		skip bool
		want string
	}{
		{skip: false, want: "[A,,C]"},
		{skip: true, want: "[A,C]"},
	} {
		c := Defaults()
		c.SkipEmptyBlocks = tc.skip

		b, err := c.Batch(nil)
		require.NoError(t, err)

		var out bytes.Buffer

		w, err := aggregate.NewE(&out, b.Aggregate...)
		require.NoError(t, err)
		require.NoError(t, w.WriteBlocks("A", "", "C"))
		assert.Equal(t, tc.want, out.String(), "skip_empty_blocks=%v", tc.skip)
	}
}

func TestFilter(t *testing.T) {
	c := Defaults()
	c.Include = []string{"com/**"}

	f := c.Filter()
	assert.Equal(t, []string{".java"}, f.Extensions)
	assert.Equal(t, []string{"com/**"}, f.Include)
	assert.Equal(t, []string{"test"}, f.SkipDirNames)
	assert.False(t, f.IncludeHidden)
}

func TestEnvObject(t *testing.T) {
	t.Setenv("DOCFAN_TEST_VALUE", "a=b")

	v := envObject().GetAttr("DOCFAN_TEST_VALUE")
	assert.Equal(t, "a=b", v.AsString())
	assert.False(t, envObject().Type().HasAttribute("DOCFAN_TEST_MISSING"))
}
