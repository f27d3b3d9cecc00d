// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"
)

// Event is a single update about one job of a batch.
type Event struct {
	JobIndex  int       // Submission index of the job, -1 for batch level events.
	Label     string    // Human-readable job description.
	Type      EventType // What happened.
	Message   string    // Short status message.
	Timestamp time.Time // When it happened.
	Data      EventData // Type specific payload.
}

// EventType is the kind of Event.
type EventType int

const (
	// EventQueued is reported for every job once the work has been partitioned.
	EventQueued EventType = iota
	// EventStarted is reported when the job's process has been spawned.
	EventStarted
	// EventOutput carries one diagnostic line from the job's process.
	EventOutput
	// EventCompleted is reported when the job's process exited with code zero.
	EventCompleted
	// EventFailed is reported when the job could not be spawned or exited non-zero.
	EventFailed
	// EventSkipped is reported for jobs that never ran because the batch was aborted.
	EventSkipped
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventQueued:
		return "queued"
	case EventStarted:
		return "started"
	case EventOutput:
		return "output"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events follow for the job.
func (et EventType) Terminal() bool {
	return et == EventCompleted || et == EventFailed || et == EventSkipped
}

// EventData holds the type specific fields of an Event.
type EventData struct {
	// EventStarted
	PID int

	// EventOutput
	OutputLine string
	IsStderr   bool

	// EventCompleted, EventFailed
	ExitCode int
	Duration time.Duration
	Error    error
}

// Reporter receives events. Implementations must not block.
type Reporter interface {
	Report(event Event)
	Close()
}

// Listener consumes events delivered by a ChannelReporter.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(event Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter discards every event.
type NullReporter struct{}

// Report implements Reporter.
func (NullReporter) Report(Event) {}

// Close implements Reporter.
func (NullReporter) Close() {}

// NewNullReporter returns a Reporter that discards every event.
func NewNullReporter() Reporter {
	return NullReporter{}
}
