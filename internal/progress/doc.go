// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries job lifecycle events from the orchestrator to whoever is
// watching, typically the terminal UI. Reporting never blocks the job that reports.
package progress
