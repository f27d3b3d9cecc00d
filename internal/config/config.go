// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads the docfan configuration file.
//
// The file is YAML (docfan.yaml, docfan.yml) or HCL (docfan.hcl). HCL files can refer to
// environment variables through the env object:
//
//	program = "${env.JAVA_HOME}/bin/javadoc"
//	args    = ["-quiet", "-doclet", "com.acme.JsonDoclet", "{items}"]
//	policy  = "fail-fast"
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/docfan/internal/aggregate"
	"github.com/matt-FFFFFF/docfan/internal/runbatch"
	"github.com/matt-FFFFFF/docfan/internal/workitems"
)

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownFormat is returned for a file that is neither YAML nor HCL.
	ErrUnknownFormat = errors.New("unknown configuration file format")
	// ErrNoConfigFile is returned by Find when the directory holds no configuration file.
	ErrNoConfigFile = errors.New("no configuration file found")
	// ErrParse is returned when the file cannot be decoded.
	ErrParse = errors.New("failed to parse configuration file")
)

// Defaults applied to unset fields.
const (
	DefaultProgram   = "javadoc"
	DefaultChunkSize = runbatch.DefaultChunkSize
	DefaultExtension = ".java"
	DefaultSkipDir   = "test"
)

// Config is the docfan configuration.
type Config struct {
	Program     string            `yaml:"program"           hcl:"program,optional"`
	Args        []string          `yaml:"args"              hcl:"args,optional"`
	Dir         string            `yaml:"working_directory" hcl:"working_directory,optional"`
	Env         map[string]string `yaml:"env"               hcl:"env,optional"`
	ChunkSize   int               `yaml:"chunk_size"        hcl:"chunk_size,optional"`
	GroupByDir  bool              `yaml:"group_by_dir"      hcl:"group_by_dir,optional"`
	Policy      string            `yaml:"policy"            hcl:"policy,optional"`
	MaxWorkers  int               `yaml:"max_workers"       hcl:"max_workers,optional"`
	JobTimeout  string            `yaml:"job_timeout"       hcl:"job_timeout,optional"`
	BufferLines int               `yaml:"buffer_lines"      hcl:"buffer_lines,optional"`
	Sink        string            `yaml:"sink"              hcl:"sink,optional"`
	TempDir     string            `yaml:"temp_dir"          hcl:"temp_dir,optional"`

	Include      []string `yaml:"include"        hcl:"include,optional"`
	Exclude      []string `yaml:"exclude"        hcl:"exclude,optional"`
	Extensions   []string `yaml:"extensions"     hcl:"extensions,optional"`
	SkipDirNames []string `yaml:"skip_dir_names" hcl:"skip_dir_names,optional"`

	Noise           []string `yaml:"noise"             hcl:"noise,optional"`
	OpenMarker      *string  `yaml:"open_marker"       hcl:"open_marker,optional"`
	CloseMarker     *string  `yaml:"close_marker"      hcl:"close_marker,optional"`
	Separator       *string  `yaml:"separator"         hcl:"separator,optional"`
	SkipEmptyBlocks bool     `yaml:"skip_empty_blocks" hcl:"skip_empty_blocks,optional"`
}

// Defaults returns a Config with every default set.
func Defaults() *Config {
	c := &Config{}
	c.ApplyDefaults()

	return c
}

// ApplyDefaults fills unset fields. Nil slices count as unset, empty ones do not.
func (c *Config) ApplyDefaults() {
	if c.Program == "" {
		c.Program = DefaultProgram
	}

	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}

	if c.Policy == "" {
		c.Policy = runbatch.PolicyBestEffort.String()
	}

	if c.Sink == "" {
		c.Sink = runbatch.SinkTempFile.String()
	}

	if c.Extensions == nil {
		c.Extensions = []string{DefaultExtension}
	}

	if c.SkipDirNames == nil {
		c.SkipDirNames = []string{DefaultSkipDir}
	}

	if c.Noise == nil {
		c.Noise = []string{aggregate.DefaultNoisePattern}
	}

	if c.OpenMarker == nil {
		c.OpenMarker = ptr(aggregate.DefaultOpen)
	}

	if c.CloseMarker == nil {
		c.CloseMarker = ptr(aggregate.DefaultClose)
	}

	if c.Separator == nil {
		c.Separator = ptr(aggregate.DefaultSeparator)
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var merr *multierror.Error

	invalid := func(format string, args ...any) {
		merr = multierror.Append(merr, fmt.Errorf(format, args...))
	}

	if c.Program == "" {
		invalid("program must be set")
	}

	if c.ChunkSize < 0 {
		invalid("chunk_size must not be negative, got %d", c.ChunkSize)
	}

	if c.MaxWorkers < 0 {
		invalid("max_workers must not be negative, got %d", c.MaxWorkers)
	}

	if _, err := runbatch.ParsePolicy(c.Policy); err != nil {
		invalid("policy: %w", err)
	}

	if _, err := runbatch.ParseSinkKind(c.Sink); err != nil {
		invalid("sink: %w", err)
	}

	if _, err := c.Timeout(); err != nil {
		invalid("job_timeout: %w", err)
	}

	for _, e := range c.Extensions {
		if !strings.HasPrefix(e, ".") {
			invalid("extension %q must start with a dot", e)
		}
	}

	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if _, err := glob.Compile(p, '/'); err != nil {
			invalid("glob %q: %w", p, err)
		}
	}

	for _, p := range c.Noise {
		if _, err := regexp.Compile(p); err != nil {
			invalid("noise pattern %q: %w", p, err)
		}
	}

	if err := merr.ErrorOrNil(); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	return nil
}

// Timeout parses JobTimeout. The empty string means no timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.JobTimeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.JobTimeout)
	if err != nil {
		return 0, err //nolint:wrapcheck
	}

	if d < 0 {
		return 0, fmt.Errorf("must not be negative, got %s", d)
	}

	return d, nil
}

// Filter returns the work item filter described by the configuration.
func (c *Config) Filter() workitems.Filter {
	return workitems.Filter{
		Extensions:   c.Extensions,
		Include:      c.Include,
		Exclude:      c.Exclude,
		SkipDirNames: c.SkipDirNames,
	}
}

// Batch builds the batch for the given work items. The configuration must be valid.
func (c *Config) Batch(items []string) (*runbatch.Batch, error) {
	policy, err := runbatch.ParsePolicy(c.Policy)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	sink, err := runbatch.ParseSinkKind(c.Sink)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}

	var aggOpts []aggregate.Option

	aggOpts = append(aggOpts, aggregate.WithNoise(c.Noise...))

	if c.OpenMarker != nil && c.CloseMarker != nil {
		aggOpts = append(aggOpts, aggregate.WithMarkers(*c.OpenMarker, *c.CloseMarker))
	}

	if c.Separator != nil {
		aggOpts = append(aggOpts, aggregate.WithSeparator(*c.Separator))
	}

	if c.SkipEmptyBlocks {
		aggOpts = append(aggOpts, aggregate.WithSkipEmptyBlocks())
	}

	return &runbatch.Batch{
		Template:    runbatch.Template{Program: c.Program, Args: c.Args},
		Items:       items,
		ChunkSize:   c.ChunkSize,
		GroupByDir:  c.GroupByDir,
		Policy:      policy,
		MaxWorkers:  c.MaxWorkers,
		JobTimeout:  timeout,
		Dir:         c.Dir,
		Env:         c.Env,
		Sink:        sink,
		TempDir:     c.TempDir,
		BufferLines: c.BufferLines,
		Aggregate:   aggOpts,
	}, nil
}

func ptr[T any](v T) *T {
	return &v
}
