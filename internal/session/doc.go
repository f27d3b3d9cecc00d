// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package session wraps a single spawned OS process and drains its stdout and stderr
// concurrently.
//
// A child process writes to pipes with a bounded kernel buffer. If the parent blocks
// waiting for the child to exit while the child blocks writing to a full pipe, neither
// side makes progress. A Session therefore always starts one drain goroutine per stream
// before any blocking wait on the process, regardless of output volume.
//
// Typical use:
//
//	s, err := session.Spawn(ctx, session.Command{Path: "javadoc", Args: args},
//		session.WithDescription("javadoc against src/main/java/com/acme"))
//	if err != nil {
//		return err // the process was never started
//	}
//
//	_ = s.PipeTo(session.Stdout, f)
//
//	if err := s.WaitFor(); err != nil {
//		return err
//	}
//
//	if code, _ := s.ExitCode(); code != 0 {
//		return s.Failure()
//	}
//
// Observers must be registered before the drains start (SpawnStreamReaders, WaitFor or
// DestroyAndWaitFor). Later registrations are rejected with ErrObserversSealed.
//
// A Session has no built-in timeout. Callers that need one race WaitFor against their own
// deadline and fall back to DestroyAndWaitFor, which is safe to call concurrently with
// WaitFor.
package session
