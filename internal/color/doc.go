// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color colorizes console output with ANSI escape codes.
// Output is colored when stderr is a terminal, unless NO_COLOR is set.
// FORCE_COLOR enables it regardless of the terminal.
package color
