package engine

// Command is implemented by every engine-emitted command. Concrete adapters
// in adapters/ translate these into protocol-specific calls.
type Command interface {
	PipelineID() string
	CorrelationID() string
	commandTag()
}

type baseCommand struct {
	Pipeline string
	Corr     string
}

func (b baseCommand) PipelineID() string    { return b.Pipeline }
func (b baseCommand) CorrelationID() string { return b.Corr }
func (baseCommand) commandTag()             {}

// VCSMerge asks the VCS worker to merge prHead onto base, producing a
// staging commit.
type VCSMerge struct {
	baseCommand
	BaseTipHint string
	PRHead      string
	Message     string
}

// VCSFastForward asks the VCS worker to advance base to staging.
type VCSFastForward struct {
	baseCommand
	Base    string
	Staging string
}

// VCSQueryTip asks the VCS worker for the current tip of base.
type VCSQueryTip struct {
	baseCommand
	Base string
}

// CIStart asks the CI worker to start a build for commit against the named
// pipeline config.
type CIStart struct {
	baseCommand
	Commit       string
	PipelineCfg  map[string]any
}

// CICancel asks the CI worker to cancel a build best-effort.
type CICancel struct {
	baseCommand
	BuildHandle string
}

// CIQueryStatus asks the CI worker for a build's current terminal status,
// used on crash recovery (§4.3) instead of re-starting a build that may
// already be running or finished.
type CIQueryStatus struct {
	baseCommand
	BuildHandle string
}

// UIComment asks the UI worker to post a comment against the originating PR.
type UIComment struct {
	baseCommand
	PRID string
	Text string
	URL  string
}

// UIStatus asks the UI worker to update a status indicator for the PR.
type UIStatus struct {
	baseCommand
	PRID   string
	Status string
	Ref    string
}
