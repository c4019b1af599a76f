package engine

// Event is implemented by every worker-emitted event. PipelineID is required
// on all events; CorrelationID is empty for events that do not answer a
// specific attempt (e.g. a fresh UI approval).
type Event interface {
	PipelineID() string
	CorrelationID() string
	eventTag()
}

type baseEvent struct {
	Pipeline string
	Corr     string
}

func (b baseEvent) PipelineID() string    { return b.Pipeline }
func (b baseEvent) CorrelationID() string { return b.Corr }
func (baseEvent) eventTag()               {}

// UIApproved is emitted when a reviewer approves (or re-approves) a pull
// request. It carries no correlation id: approvals are not attempt-scoped.
type UIApproved struct {
	baseEvent
	Entry Entry
}

// NewUIApproved builds a UIApproved event for pipelineID.
func NewUIApproved(pipelineID string, entry Entry) UIApproved {
	return UIApproved{baseEvent: baseEvent{Pipeline: pipelineID}, Entry: entry}
}

// UICancelled is emitted when an operator cancels a queued or running PR.
type UICancelled struct {
	baseEvent
	PRID string
}

// NewUICancelled builds a UICancelled event for pipelineID.
func NewUICancelled(pipelineID, prID string) UICancelled {
	return UICancelled{baseEvent: baseEvent{Pipeline: pipelineID}, PRID: prID}
}

// VCSMerged is emitted when the VCS worker has produced a staging commit.
type VCSMerged struct {
	baseEvent
	StagingCommit string
	BaseTip       string
}

// NewVCSMerged builds a VCSMerged event answering correlationID.
func NewVCSMerged(pipelineID, correlationID, stagingCommit, baseTip string) VCSMerged {
	return VCSMerged{
		baseEvent:     baseEvent{Pipeline: pipelineID, Corr: correlationID},
		StagingCommit: stagingCommit,
		BaseTip:       baseTip,
	}
}

// VCSMergeFailed is emitted when the VCS worker could not merge (conflict).
type VCSMergeFailed struct {
	baseEvent
	Reason string
}

// NewVCSMergeFailed builds a VCSMergeFailed event answering correlationID.
func NewVCSMergeFailed(pipelineID, correlationID, reason string) VCSMergeFailed {
	return VCSMergeFailed{baseEvent: baseEvent{Pipeline: pipelineID, Corr: correlationID}, Reason: reason}
}

// VCSFastForwardOK is emitted when the default branch has advanced.
type VCSFastForwardOK struct {
	baseEvent
	NewTip string
}

// NewVCSFastForwardOK builds a VCSFastForwardOK event answering correlationID.
func NewVCSFastForwardOK(pipelineID, correlationID, newTip string) VCSFastForwardOK {
	return VCSFastForwardOK{baseEvent: baseEvent{Pipeline: pipelineID, Corr: correlationID}, NewTip: newTip}
}

// VCSFastForwardStale is emitted when the fast-forward target is no longer a
// descendant of the current default branch tip.
type VCSFastForwardStale struct {
	baseEvent
	ObservedTip string
}

// NewVCSFastForwardStale builds a VCSFastForwardStale event answering correlationID.
func NewVCSFastForwardStale(pipelineID, correlationID, observedTip string) VCSFastForwardStale {
	return VCSFastForwardStale{baseEvent: baseEvent{Pipeline: pipelineID, Corr: correlationID}, ObservedTip: observedTip}
}

// CIStarted is emitted when the CI worker has accepted a build.
type CIStarted struct {
	baseEvent
	BuildHandle string
}

// NewCIStarted builds a CIStarted event answering correlationID.
func NewCIStarted(pipelineID, correlationID, buildHandle string) CIStarted {
	return CIStarted{baseEvent: baseEvent{Pipeline: pipelineID, Corr: correlationID}, BuildHandle: buildHandle}
}

// CISucceeded is emitted when CI reports a passing build.
type CISucceeded struct {
	baseEvent
	BuildHandle string
}

// NewCISucceeded builds a CISucceeded event answering correlationID.
func NewCISucceeded(pipelineID, correlationID, buildHandle string) CISucceeded {
	return CISucceeded{baseEvent: baseEvent{Pipeline: pipelineID, Corr: correlationID}, BuildHandle: buildHandle}
}

// CIFailed is emitted when CI reports a failing build, or is synthesized by
// the engine itself on sub-state timeout (Reason == "timeout").
type CIFailed struct {
	baseEvent
	BuildHandle string
	Reason      string
	URL         string
}

// NewCIFailed builds a CIFailed event answering correlationID.
func NewCIFailed(pipelineID, correlationID, reason, url string) CIFailed {
	return CIFailed{baseEvent: baseEvent{Pipeline: pipelineID, Corr: correlationID}, Reason: reason, URL: url}
}
