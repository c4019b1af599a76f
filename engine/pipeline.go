package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
	"github.com/MyCarrier-DevOps/pr-merge-sync/tracing"
)

// Persistence is the subset of store.Store a Pipeline needs. It is declared
// here, rather than importing the store package, so that engine has no
// dependency on any concrete persistence implementation; any store.Store
// value satisfies this interface structurally.
type Persistence interface {
	Enqueue(ctx context.Context, pipelineID string, entry Entry) error
	Dequeue(ctx context.Context, pipelineID string) (Entry, bool, error)
	RemoveFromQueue(ctx context.Context, pipelineID, prID string) error
	ReplaceInQueue(ctx context.Context, pipelineID string, entry Entry) error
	ListQueue(ctx context.Context, pipelineID string) ([]Entry, error)

	SetRunning(ctx context.Context, pipelineID string, slot *RunningSlot) error
	GetRunning(ctx context.Context, pipelineID string) (*RunningSlot, error)

	SaveCachedTip(ctx context.Context, pipelineID string, tip CachedTip) error
	LoadCachedTip(ctx context.Context, pipelineID string) (CachedTip, bool, error)
}

// Pipeline is one repository's merge queue: a single-threaded state machine
// that owns a Queue, an at-most-one RunningSlot, and a cached default-branch
// tip. All mutation happens on the pipeline's own goroutine via Run; callers
// submit events through Events().
type Pipeline struct {
	cfg     Config
	store   Persistence
	sink    CommandSink
	log     logger.Logger
	mu      sync.Mutex
	queue   *Queue
	running *RunningSlot
	tip     CachedTip
	events  chan Event
	done    chan struct{}
}

// NewPipeline constructs a Pipeline. The caller should then call Resync
// before Run if this pipeline may have persisted state from a prior process.
func NewPipeline(cfg Config, st Persistence, sink CommandSink, log logger.Logger) *Pipeline {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Pipeline{
		cfg:    cfg.withDefaults(),
		store:  st,
		sink:   sink,
		log:    log,
		queue:  NewQueue(),
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}
}

// Events returns the channel callers submit worker events on. The router
// (router.go) is the typical caller.
func (p *Pipeline) Events() chan<- Event { return p.events }

// Resync restores persisted queue/running-slot/tip state and, per §4.3,
// resynchronizes a non-Idle running slot by re-issuing the appropriate
// worker command rather than blindly replaying history.
func (p *Pipeline) Resync(ctx context.Context) error {
	entries, err := p.store.ListQueue(ctx, p.cfg.ID)
	if err != nil {
		return NewPersistenceError("list_queue", p.cfg.ID, err)
	}
	p.queue.Load(entries)

	running, err := p.store.GetRunning(ctx, p.cfg.ID)
	if err != nil {
		return NewPersistenceError("get_running", p.cfg.ID, err)
	}
	p.running = running

	tip, ok, err := p.store.LoadCachedTip(ctx, p.cfg.ID)
	if err != nil {
		return NewPersistenceError("load_cached_tip", p.cfg.ID, err)
	}
	if ok {
		p.tip = tip
	}

	if p.running == nil || p.running.IsEmpty() {
		return nil
	}

	switch p.running.SubState {
	case SubStateStartingBuild:
		return p.emit(ctx, VCSMerge{
			baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: p.running.CorrelationID},
			BaseTipHint: p.tip.Commit,
			PRHead:      p.running.Entry.HeadCommit,
			Message:     p.running.Entry.Message,
		})
	case SubStateWaitingOnCI:
		return p.emit(ctx, CIQueryStatus{
			baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: p.running.CorrelationID},
			BuildHandle: p.running.CIBuildHandle,
		})
	case SubStateFastForwarding:
		return p.emit(ctx, VCSFastForward{
			baseCommand: baseCommand{Pipeline: p.cfg.ID, Corr: p.running.CorrelationID},
			Base:        p.cfg.DefaultBranch,
			Staging:     p.running.StagingCommit,
		})
	}
	return nil
}

// Run processes events until ctx is cancelled or Stop is called. It is the
// pipeline's single serialization point: no two events are ever handled
// concurrently for this pipeline.
func (p *Pipeline) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.done:
			return
		case ev := <-p.events:
			p.handle(ctx, ev)
		case <-ticker.C:
			p.checkTimeout(ctx)
		}
	}
}

// Stop terminates Run.
func (p *Pipeline) Stop() { close(p.done) }

func (p *Pipeline) handle(ctx context.Context, ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "pipeline.transition",
		tracing.WithAttributes(transitionAttributes(p.cfg.ID, p.subState(), ev)...))
	defer span.End()

	if err := p.apply(ctx, ev); err != nil {
		p.log.Error(ctx, "transition failed", err, map[string]interface{}{
			"pipeline": p.cfg.ID,
			"event":    fmt.Sprintf("%T", ev),
		})
	}
}

func (p *Pipeline) subState() SubState {
	if p.running.IsEmpty() {
		return SubStateIdle
	}
	return p.running.SubState
}

// emit delivers a command to the bound worker via the sink. Per §4.3 the
// caller must have already durably persisted the intent this command
// represents before calling emit.
func (p *Pipeline) emit(ctx context.Context, cmd Command) error {
	if err := p.sink.Send(ctx, cmd); err != nil {
		return NewWorkerError(fmt.Sprintf("%T", cmd), p.cfg.ID, cmd.CorrelationID(), err)
	}
	return nil
}
