// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
)

// FS is the file system configuration files are read from. Tests replace it.
var FS afero.Fs = afero.NewOsFs()

// FileNames are the names Find looks for, in order.
var FileNames = []string{"docfan.yaml", "docfan.yml", "docfan.hcl"}

// Find returns the path of the first configuration file in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)

		if _, err := FS.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrNoConfigFile, dir)
}

// Load reads, decodes, defaults and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := afero.ReadFile(FS, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	c, err := Parse(filepath.Base(path), data)
	if err != nil {
		return nil, err
	}

	c.ApplyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Parse decodes data, choosing the format from the file name extension.
// Defaults are not applied.
func Parse(filename string, data []byte) (*Config, error) {
	c := &Config{}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, c, yaml.Strict()); err != nil {
			return nil, errors.Join(ErrParse, errors.New(yaml.FormatError(err, false, true)))
		}
	case ".hcl":
		if err := hclsimple.Decode(filename, data, evalContext(), c); err != nil {
			return nil, errors.Join(ErrParse, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
	}

	return c, nil
}

// envObject exposes the process environment to HCL expressions as env.NAME.
func envObject() cty.Value {
	vars := make(map[string]cty.Value)

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}

		vars[k] = cty.StringVal(v)
	}

	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}

	return cty.ObjectVal(vars)
}
