// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package chunk splits an ordered list of work items into ordered partitions.
package chunk

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrInvalidChunkSize is returned when the maximum chunk size is not positive.
var ErrInvalidChunkSize = errors.New("chunk size must be greater than zero")

// Chunk is one partition of the input.
type Chunk struct {
	Index int      // Position in the returned slice.
	Key   string   // Grouping key, empty for size based partitions.
	Items []string // Items in input order.
}

// String returns a short label suitable for logs and job descriptions.
func (c Chunk) String() string {
	if c.Key == "" {
		return fmt.Sprintf("chunk %d (%d items)", c.Index, len(c.Items))
	}

	return fmt.Sprintf("chunk %d %s (%d items)", c.Index, c.Key, len(c.Items))
}

// BySize returns ceil(len(items)/k) chunks of k items, the last one possibly shorter.
// Concatenating the chunks in order reproduces items.
func BySize(items []string, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, k)
	}

	chunks := make([]Chunk, 0, (len(items)+k-1)/k)

	for start := 0; start < len(items); start += k {
		end := min(start+k, len(items))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Items: items[start:end:end],
		})
	}

	return chunks, nil
}

// ByKey returns one chunk per distinct key, ordered by the first appearance of each key.
// Items keep their input order within a chunk.
func ByKey(items []string, keyFn func(string) string) []Chunk {
	var (
		chunks []Chunk
		pos    = make(map[string]int)
	)

	for _, item := range items {
		key := keyFn(item)

		i, ok := pos[key]
		if !ok {
			i = len(chunks)
			pos[key] = i
			chunks = append(chunks, Chunk{Index: i, Key: key})
		}

		chunks[i].Items = append(chunks[i].Items, item)
	}

	return chunks
}

// ByDir groups items by their parent directory.
func ByDir(items []string) []Chunk {
	return ByKey(items, filepath.Dir)
}

// Split applies BySize inside every chunk so that no chunk exceeds k items.
// Keys are kept and indices renumbered.
func Split(chunks []Chunk, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, k)
	}

	var out []Chunk

	for _, c := range chunks {
		parts, _ := BySize(c.Items, k)
		for _, p := range parts {
			p.Index = len(out)
			p.Key = c.Key
			out = append(out, p)
		}
	}

	return out, nil
}
