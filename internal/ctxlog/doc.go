// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default handler is a pretty console handler writing to stderr. The initial level
// comes from the DOCFAN_LOG_LEVEL environment variable (DEBUG, INFO, WARN or ERROR) and
// falls back to WARN.
package ctxlog
