// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv(NoColor, "1")
	t.Setenv(ForceColor, "1")
	assert.False(t, isColorCapable(nil), "NO_COLOR wins over FORCE_COLOR")

	t.Setenv(NoColor, "")
	assert.True(t, isColorCapable(nil), "FORCE_COLOR without a terminal")

	t.Setenv(ForceColor, "")
	assert.False(t, isColorCapable(nil), "no terminal")
}

func TestColorize(t *testing.T) {
	orig := Enabled()
	defer Set(orig)

	Set(false)
	assert.Equal(t, "plain", Colorize("plain", FgRed))

	Set(true)
	assert.Equal(t, "\033[31mred\033[0m", Colorize("red", FgRed))
	assert.Equal(t, "\033[1;32mok\033[0m", Colorize("ok", Bold, FgGreen))
	assert.Equal(t, "bare", Colorize("bare"), "no codes means no escapes")
}
