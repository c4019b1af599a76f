// Package engine implements the pipeline state machine that owns a
// repository's merge queue: the queue itself, the single running slot, and
// the transition table that reacts to worker events and emits worker
// commands. The package never speaks a wire protocol; concrete workers live
// in adapters/.
package engine

import "time"

// SubState is one of the four states a pipeline's running slot occupies.
type SubState string

const (
	// SubStateIdle means the running slot is empty.
	SubStateIdle SubState = "idle"
	// SubStateStartingBuild means a VCS merge command has been issued and the
	// engine is waiting for the staging commit.
	SubStateStartingBuild SubState = "starting_build"
	// SubStateWaitingOnCI means a CI start command has been issued and the
	// engine is waiting for a terminal build event.
	SubStateWaitingOnCI SubState = "waiting_on_ci"
	// SubStateFastForwarding means a VCS fast-forward command has been issued
	// and the engine is waiting for confirmation.
	SubStateFastForwarding SubState = "fast_forwarding"
)

// IsTerminal reports whether the sub-state has no running slot.
func (s SubState) IsTerminal() bool {
	return s == SubStateIdle
}

// Entry is a queued, approved pull request.
type Entry struct {
	ID          string
	PRID        string
	HeadCommit  string
	Message     string
	Requester   string
	Priority    int
	ApprovedAt  time.Time
}

// RunningSlot is the pipeline's at-most-one active attempt.
type RunningSlot struct {
	Entry            Entry
	SubState         SubState
	StagingCommit    string
	CIBuildHandle    string
	Attempts         int
	CorrelationID    string
	DeadlineAt       time.Time
	EnteredStateAt   time.Time
}

// IsEmpty reports whether the slot holds no attempt.
func (r *RunningSlot) IsEmpty() bool {
	return r == nil || r.SubState == SubStateIdle
}

// CachedTip is the engine's advisory copy of the default branch tip.
type CachedTip struct {
	Commit     string
	ObservedAt time.Time
}

// Config is per-pipeline configuration, opaque to the engine except for the
// fields it needs to drive timeouts and retries.
type Config struct {
	ID                string
	UIWorkerName      string
	VCSWorkerName     string
	CIWorkerName      string
	DefaultBranch     string
	StateTimeout      time.Duration
	MaxStaleRetries   int
	WorkerConfig      map[string]any
}

// DefaultConfig returns a Config with the spec's documented defaults filled
// in; callers still must set ID/UIWorkerName/VCSWorkerName/CIWorkerName.
func DefaultConfig() Config {
	return Config{
		DefaultBranch:   "main",
		StateTimeout:    2 * time.Hour,
		MaxStaleRetries: 3,
	}
}

func (c Config) withDefaults() Config {
	if c.StateTimeout <= 0 {
		c.StateTimeout = 2 * time.Hour
	}
	if c.MaxStaleRetries <= 0 {
		c.MaxStaleRetries = 3
	}
	if c.DefaultBranch == "" {
		c.DefaultBranch = "main"
	}
	return c
}
