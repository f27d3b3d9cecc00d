// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package runbatch

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matt-FFFFFF/docfan/internal/chunk"
	"github.com/matt-FFFFFF/docfan/internal/session"
)

const (
	// ItemsPlaceholder, as a whole argument, is replaced by the chunk's items, one argument each.
	ItemsPlaceholder = "{items}"
	// KeyPlaceholder is replaced by the chunk's grouping key.
	KeyPlaceholder = "{key}"
	// IndexPlaceholder is replaced by the chunk's index.
	IndexPlaceholder = "{index}"
)

// Template is the command run for every chunk.
type Template struct {
	Program string
	Args    []string
}

// String returns the unexpanded command line.
func (t Template) String() string {
	return strings.Join(slices.Concat([]string{t.Program}, t.Args), " ")
}

// Expand builds the command for one chunk. If no argument is ItemsPlaceholder the items
// are appended after the other arguments.
func (t Template) Expand(c chunk.Chunk) session.Command {
	r := strings.NewReplacer(KeyPlaceholder, c.Key, IndexPlaceholder, strconv.Itoa(c.Index))
	args := make([]string, 0, len(t.Args)+len(c.Items))
	spread := false

	for _, a := range t.Args {
		if a == ItemsPlaceholder {
			args = append(args, c.Items...)
			spread = true

			continue
		}

		args = append(args, r.Replace(a))
	}

	if !spread {
		args = append(args, c.Items...)
	}

	return session.Command{
		Path: t.Program,
		Args: args,
	}
}
