// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui shows the jobs of a running batch in the terminal.
//
// Each job is one row with its status, elapsed time and the last diagnostic line its process
// wrote. The model is fed by progress events, the final BatchResult settles every row once
// the batch has finished.
package tui
