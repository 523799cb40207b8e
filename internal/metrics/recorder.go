package metrics

import "time"

// PartOutcome enumerates per-part check results.
type PartOutcome string

const (
	PartCurrent  PartOutcome = "current"
	PartUpdates  PartOutcome = "updates"
	PartSkipped  PartOutcome = "skipped"
	PartError    PartOutcome = "error"
	PartNoFormat PartOutcome = "missing_format"
)

// RunOutcome enumerates results of a whole check run.
type RunOutcome string

const (
	RunClean   RunOutcome = "clean"
	RunFlagged RunOutcome = "flagged"
	RunFailed  RunOutcome = "failed"
)

// Recorder defines observability hooks for check runs and forge traffic.
type Recorder interface {
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome RunOutcome)
	IncPartOutcome(outcome PartOutcome)
	SetPendingUpdates(part string, n int)
	ObserveForgeRequest(forge string, d time.Duration, status int)
	IncForgeRetry(forge string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(time.Duration)               {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                       {}
func (NoopRecorder) IncPartOutcome(PartOutcome)                     {}
func (NoopRecorder) SetPendingUpdates(string, int)                  {}
func (NoopRecorder) ObserveForgeRequest(string, time.Duration, int) {}
func (NoopRecorder) IncForgeRetry(string)                           {}
