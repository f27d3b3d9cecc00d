// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
)

// Watch reads sigCh until it is closed or ctx is done. The second signal of a given type
// calls cancel and returns.
func Watch(ctx context.Context, sigCh <-chan os.Signal, cancel context.CancelFunc) {
	logger := ctxlog.Logger(ctx).With(ctxlog.ComponentKey, "signalbroker")
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case <-ctx.Done():
			return
		case sig, ok := <-sigCh:
			if !ok {
				return
			}

			if _, dup := seen[sig]; dup {
				logger.Warn("received second signal, destroying running jobs", "signal", sig.String())
				cancel()

				return
			}

			logger.Warn("received signal, send again to abort the batch", "signal", sig.String())

			seen[sig] = struct{}{}
		}
	}
}
