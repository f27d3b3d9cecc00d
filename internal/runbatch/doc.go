// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runbatch fans a list of work items out over many processes of the same program
// and streams their output, in submission order, into one document.
//
// The items are partitioned into chunks, one process is spawned per chunk and at most
// MaxWorkers processes run at the same time. Each job writes its stdout to its own
// intermediate sink, a temporary file by default. Jobs are consumed in submission order:
// a successful job's sink is appended to the aggregate.Writer and removed.
//
// Two policies decide what happens when a job fails:
//
//   - PolicyFailFast stops at the first failing job, in submission order. Jobs that have
//     not started are skipped, running ones are destroyed. Run returns an error that
//     wraps ErrJobFailed and the job's *session.ExecError.
//   - PolicyBestEffort records the failure, leaves the job out of the aggregate and
//     carries on. Run returns a nil error and the failures in the BatchResult.
//
// Whatever the policy, Run does not return before every spawned process has been reaped
// and every intermediate sink removed.
package runbatch
