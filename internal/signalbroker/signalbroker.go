// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker turns operating system termination signals into context cancellation.
// By default it listens for os.Interrupt, SIGINT, SIGTERM and SIGQUIT.
//
// Child processes in the same process group receive a terminal interrupt themselves.
// Watch therefore ignores the first signal of each type and only cancels the context,
// which destroys every running job, when the same signal arrives a second time.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/matt-FFFFFF/docfan/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	os.Interrupt,
}

// New registers for the given signals, or the termination signals when none are given.
// Call the returned stop function to unregister.
func New(ctx context.Context, sigs ...os.Signal) (ch chan os.Signal, stop func()) {
	ch = make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "creating signal broker", ctxlog.ComponentKey, "signalbroker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch, func() {
		signal.Stop(ch)
	}
}
