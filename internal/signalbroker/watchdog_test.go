// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		defer close(done)

		Watch(ctx, sigCh, cancel)
	}()

	return done
}

func TestWatch_FirstSignalDoesNotCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	done := watch(ctx, sigCh, cancel)

	sigCh <- os.Interrupt

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, ctx.Err(), "first signal must not cancel")

	close(sigCh)
	<-done
}

func TestWatch_SecondSignalCancels(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	done := watch(ctx, sigCh, cancel)

	sigCh <- os.Interrupt
	sigCh <- os.Interrupt

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watch did not return")
	}

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestWatch_DifferentSignalsDoNotCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	done := watch(ctx, sigCh, cancel)

	sigCh <- syscall.SIGINT
	sigCh <- syscall.SIGTERM

	time.Sleep(50 * time.Millisecond)
	assert.NoError(t, ctx.Err())

	cancel()
	<-done
}

func TestNew_Stop(t *testing.T) {
	ch, stop := New(context.Background(), syscall.SIGUSR1)
	defer stop()

	assert.NotNil(t, ch)
	assert.Equal(t, 1, cap(ch))
}
