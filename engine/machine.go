package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// transitionAttributes builds the span attributes every pipeline.transition
// span carries: pipeline id, from-state, event type, and correlation id.
func transitionAttributes(pipelineID string, from SubState, ev Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("pipeline.id", pipelineID),
		attribute.String("pipeline.from_state", string(from)),
		attribute.String("pipeline.event", fmt.Sprintf("%T", ev)),
		attribute.String("pipeline.correlation_id", ev.CorrelationID()),
	}
}

// apply is the transition table from §4.1. It must be called with p.mu held.
func (p *Pipeline) apply(ctx context.Context, ev Event) error {
	switch e := ev.(type) {
	case UIApproved:
		return p.onApproved(ctx, e)
	case UICancelled:
		return p.onCancelled(ctx, e)
	case VCSMerged:
		return p.onVCSMerged(ctx, e)
	case VCSMergeFailed:
		return p.onVCSMergeFailed(ctx, e)
	case VCSFastForwardOK:
		return p.onFastForwardOK(ctx, e)
	case VCSFastForwardStale:
		return p.onFastForwardStale(ctx, e)
	case CISucceeded:
		return p.onCISucceeded(ctx, e)
	case CIFailed:
		return p.onCIFailed(ctx, e)
	case CIStarted:
		return p.onCIStarted(ctx, e)
	default:
		return NewTransitionError("apply", p.cfg.ID, p.subState(), fmt.Sprintf("%T", ev), fmt.Errorf("unknown event type"))
	}
}

// matchesRunning reports whether corrID refers to the currently running
// attempt. Per §4.1/§5, events that don't match are discarded.
func (p *Pipeline) matchesRunning(corrID string) bool {
	return !p.running.IsEmpty() && p.running.CorrelationID == corrID
}

// onApproved handles UI.approve for both new and re-approval cases (§4.2).
func (p *Pipeline) onApproved(ctx context.Context, e UIApproved) error {
	if !p.running.IsEmpty() && p.running.Entry.PRID == e.Entry.PRID {
		// Re-approval of the running entry: cancel current attempt, persist
		// intent to re-enqueue before emitting the cancel command.
		entry := e.Entry
		entry.Priority = max(entry.Priority, p.running.Entry.Priority)
		if err := p.store.Enqueue(ctx, p.cfg.ID, entry); err != nil {
			return NewPersistenceError("enqueue", p.cfg.ID, err)
		}
		p.queue.Upsert(entry)

		buildHandle := p.running.CIBuildHandle
		corrID := p.running.CorrelationID
		if err := p.store.SetRunning(ctx, p.cfg.ID, nil); err != nil {
			return NewPersistenceError("clear_running", p.cfg.ID, err)
		}
		p.running = nil

		if err := p.emit(ctx, CICancel{baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID}, BuildHandle: buildHandle}); err != nil {
			return err
		}
		return p.promoteNext(ctx)
	}

	if err := p.store.Enqueue(ctx, p.cfg.ID, e.Entry); err != nil {
		return NewPersistenceError("enqueue", p.cfg.ID, err)
	}
	p.queue.Upsert(e.Entry)
	return p.promoteNext(ctx)
}

// onCancelled handles UI.cancel for both queued-only and running cases.
func (p *Pipeline) onCancelled(ctx context.Context, e UICancelled) error {
	if !p.running.IsEmpty() && p.running.Entry.PRID == e.PRID {
		buildHandle := p.running.CIBuildHandle
		corrID := p.running.CorrelationID
		if err := p.store.SetRunning(ctx, p.cfg.ID, nil); err != nil {
			return NewPersistenceError("clear_running", p.cfg.ID, err)
		}
		p.running = nil
		if err := p.emit(ctx, CICancel{baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID}, BuildHandle: buildHandle}); err != nil {
			return err
		}
		if err := p.emit(ctx, UIComment{baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID}, PRID: e.PRID, Text: "cancelled"}); err != nil {
			return err
		}
		return p.promoteNext(ctx)
	}

	if p.queue.Contains(e.PRID) {
		if err := p.store.RemoveFromQueue(ctx, p.cfg.ID, e.PRID); err != nil {
			return NewPersistenceError("remove_from_queue", p.cfg.ID, err)
		}
		p.queue.Remove(e.PRID)
	}
	return nil
}

// promoteNext advances Idle -> StartingBuild when the running slot is empty
// and the queue is non-empty, per the "Idle is observable only between
// promotions" edge policy.
func (p *Pipeline) promoteNext(ctx context.Context) error {
	if !p.running.IsEmpty() {
		return nil
	}
	entry, ok := p.queue.PopFront()
	if !ok {
		return nil
	}

	corrID := nextCorrelationID(p.cfg.ID)
	slot := &RunningSlot{
		Entry:          entry,
		SubState:       SubStateStartingBuild,
		CorrelationID:  corrID,
		EnteredStateAt: now(),
		DeadlineAt:     now().Add(p.cfg.StateTimeout),
	}
	if err := p.store.RemoveFromQueue(ctx, p.cfg.ID, entry.PRID); err != nil {
		return NewPersistenceError("remove_from_queue", p.cfg.ID, err)
	}
	if err := p.store.SetRunning(ctx, p.cfg.ID, slot); err != nil {
		return NewPersistenceError("set_running", p.cfg.ID, err)
	}
	p.running = slot

	return p.emit(ctx, VCSMerge{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID},
		BaseTipHint: p.tip.Commit,
		PRHead:      entry.HeadCommit,
		Message:     entry.Message,
	})
}

// onVCSMerged advances StartingBuild -> WaitingOnCI, first checking the
// merge-staleness edge policy from §4.1: if the base tip the VCS worker
// actually merged against no longer matches the engine's cached tip, the
// staging commit's lineage doesn't include the true current tip, so the
// merge is stale and must be redone against the fresher base rather than
// handed to CI. This is the same bounded retry as ffwd_stale.
func (p *Pipeline) onVCSMerged(ctx context.Context, e VCSMerged) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	if e.BaseTip != "" && e.BaseTip != p.tip.Commit {
		p.tip = CachedTip{Commit: e.BaseTip, ObservedAt: now()}
		return p.retryStaleMerge(ctx, e.CorrelationID())
	}
	p.running.SubState = SubStateWaitingOnCI
	p.running.StagingCommit = e.StagingCommit
	p.running.EnteredStateAt = now()
	p.running.DeadlineAt = now().Add(p.cfg.StateTimeout)
	if err := p.store.SetRunning(ctx, p.cfg.ID, p.running); err != nil {
		return NewPersistenceError("set_running", p.cfg.ID, err)
	}

	corrID := p.running.CorrelationID
	if err := p.emit(ctx, CIStart{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID},
		Commit:      e.StagingCommit,
		PipelineCfg: p.cfg.WorkerConfig,
	}); err != nil {
		return err
	}
	return p.emit(ctx, UIStatus{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID},
		PRID:        p.running.Entry.PRID,
		Status:      "testing",
		Ref:         e.StagingCommit,
	})
}

// onCIStarted records the CI worker's build handle on the running slot so
// that a later cancel or a crash-recovery status query can address the
// in-flight build. It does not change sub-state: that only happens on a
// terminal CI event.
func (p *Pipeline) onCIStarted(ctx context.Context, e CIStarted) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	p.running.CIBuildHandle = e.BuildHandle
	if err := p.store.SetRunning(ctx, p.cfg.ID, p.running); err != nil {
		return NewPersistenceError("set_running", p.cfg.ID, err)
	}
	return nil
}

// retryStaleMerge re-issues VCSMerge against the engine's current cached tip,
// bounded at cfg.MaxStaleRetries consecutive attempts, matching the
// ffwd_stale retry bound from §4.1.
func (p *Pipeline) retryStaleMerge(ctx context.Context, corrID string) error {
	p.running.Attempts++
	if p.running.Attempts > p.cfg.MaxStaleRetries {
		return p.dropRunning(ctx, corrID, "base moving too fast", "")
	}

	p.running.SubState = SubStateStartingBuild
	p.running.EnteredStateAt = now()
	p.running.DeadlineAt = now().Add(p.cfg.StateTimeout)
	if err := p.store.SetRunning(ctx, p.cfg.ID, p.running); err != nil {
		return NewPersistenceError("set_running", p.cfg.ID, err)
	}

	return p.emit(ctx, VCSMerge{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID},
		BaseTipHint: p.tip.Commit,
		PRHead:      p.running.Entry.HeadCommit,
		Message:     p.running.Entry.Message,
	})
}

func (p *Pipeline) onVCSMergeFailed(ctx context.Context, e VCSMergeFailed) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	return p.dropRunning(ctx, e.CorrelationID(), "merge conflict", "")
}

func (p *Pipeline) onCISucceeded(ctx context.Context, e CISucceeded) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	p.running.SubState = SubStateFastForwarding
	p.running.EnteredStateAt = now()
	p.running.DeadlineAt = now().Add(p.cfg.StateTimeout)
	if err := p.store.SetRunning(ctx, p.cfg.ID, p.running); err != nil {
		return NewPersistenceError("set_running", p.cfg.ID, err)
	}
	return p.emit(ctx, VCSFastForward{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: p.running.CorrelationID},
		Base:        p.cfg.DefaultBranch,
		Staging:     p.running.StagingCommit,
	})
}

func (p *Pipeline) onCIFailed(ctx context.Context, e CIFailed) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	reason := "tests failed"
	if e.Reason == "timeout" {
		reason = "timed out"
	}
	return p.dropRunning(ctx, e.CorrelationID(), reason, e.URL)
}

func (p *Pipeline) onFastForwardOK(ctx context.Context, e VCSFastForwardOK) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	corrID := p.running.CorrelationID
	prID := p.running.Entry.PRID

	if err := p.store.SaveCachedTip(ctx, p.cfg.ID, CachedTip{Commit: e.NewTip, ObservedAt: now()}); err != nil {
		return NewPersistenceError("save_cached_tip", p.cfg.ID, err)
	}
	p.tip = CachedTip{Commit: e.NewTip, ObservedAt: now()}

	if err := p.store.SetRunning(ctx, p.cfg.ID, nil); err != nil {
		return NewPersistenceError("clear_running", p.cfg.ID, err)
	}
	p.running = nil

	if err := p.emit(ctx, UIComment{baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID}, PRID: prID, Text: "merged"}); err != nil {
		return err
	}
	return p.promoteNext(ctx)
}

// onFastForwardStale implements the bounded ffwd_stale retry: at most
// MaxStaleRetries consecutive retries before the entry fails permanently
// with "base moving too fast".
func (p *Pipeline) onFastForwardStale(ctx context.Context, e VCSFastForwardStale) error {
	if !p.matchesRunning(e.CorrelationID()) {
		return nil
	}
	p.running.Attempts++
	if p.running.Attempts > p.cfg.MaxStaleRetries {
		return p.dropRunning(ctx, e.CorrelationID(), "base moving too fast", "")
	}

	p.tip = CachedTip{Commit: e.ObservedTip, ObservedAt: now()}
	p.running.SubState = SubStateStartingBuild
	p.running.EnteredStateAt = now()
	p.running.DeadlineAt = now().Add(p.cfg.StateTimeout)
	if err := p.store.SetRunning(ctx, p.cfg.ID, p.running); err != nil {
		return NewPersistenceError("set_running", p.cfg.ID, err)
	}

	return p.emit(ctx, VCSMerge{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: p.running.CorrelationID},
		BaseTipHint: e.ObservedTip,
		PRHead:      p.running.Entry.HeadCommit,
		Message:     p.running.Entry.Message,
	})
}

// dropRunning clears the running slot, comments on the PR with reason (and
// optional URL), and attempts the next promotion.
func (p *Pipeline) dropRunning(ctx context.Context, corrID, reason, url string) error {
	prID := p.running.Entry.PRID
	if err := p.store.SetRunning(ctx, p.cfg.ID, nil); err != nil {
		return NewPersistenceError("clear_running", p.cfg.ID, err)
	}
	p.running = nil

	if err := p.emit(ctx, UIComment{
		baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: corrID},
		PRID:        prID,
		Text:        reason,
		URL:         url,
	}); err != nil {
		return err
	}
	return p.promoteNext(ctx)
}

// checkTimeout synthesizes a CI.failed("timeout") event when the running
// slot's deadline has passed, per §5 Timeouts.
func (p *Pipeline) checkTimeout(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running.IsEmpty() || now().Before(p.running.DeadlineAt) {
		return
	}
	corrID := p.running.CorrelationID
	_ = p.apply(ctx, NewCIFailed(p.cfg.ID, corrID, "timeout", ""))
}

// now is a seam for deterministic tests.
var now = time.Now
