// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package linebuffer

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer_Eviction(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		adds     int
	}{
		{name: "under capacity", capacity: 5, adds: 3},
		{name: "exactly capacity", capacity: 5, adds: 5},
		{name: "over capacity", capacity: 5, adds: 12},
		{name: "capacity one", capacity: 1, adds: 4},
		{name: "many wraps", capacity: 7, adds: 1000},
		{name: "nothing added", capacity: 3, adds: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(tt.capacity)

			all := make([]string, 0, tt.adds)
			for i := range tt.adds {
				line := "line " + strconv.Itoa(i)
				all = append(all, line)
				b.Add(line)
				assert.LessOrEqual(t, b.Len(), tt.capacity)
			}

			want := all[max(0, len(all)-tt.capacity):]
			assert.Equal(t, want, b.Lines())
			assert.Equal(t, len(want), b.Len())

			last, ok := b.Last()
			if tt.adds == 0 {
				assert.False(t, ok)
				return
			}

			assert.True(t, ok)
			assert.Equal(t, all[len(all)-1], last)
		})
	}
}

func TestBuffer_Unbounded(t *testing.T) {
	for _, capacity := range []int{Unbounded, -1} {
		b := New(capacity)
		for i := range 5000 {
			b.Add(strconv.Itoa(i))
		}

		lines := b.Lines()
		assert.Len(t, lines, 5000)
		assert.Equal(t, "0", lines[0])
		assert.Equal(t, "4999", lines[4999])
		assert.Equal(t, Unbounded, b.Cap())
	}
}

func TestBuffer_LinesIsACopy(t *testing.T) {
	b := New(2)
	b.Add("a")
	b.Add("b")

	lines := b.Lines()
	lines[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, b.Lines())
}

func TestBuffer_Concurrent(t *testing.T) {
	b := New(100)
	wg := sync.WaitGroup{}

	for w := range 8 {
		wg.Add(1)

		go func(w int) {
			defer wg.Done()

			for i := range 500 {
				b.Add(strconv.Itoa(w*1000 + i))
				_ = b.Lines()
			}
		}(w)
	}

	wg.Wait()
	assert.Equal(t, 100, b.Len())
}
