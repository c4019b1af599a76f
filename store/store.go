// Package store defines the persistence contract the engine relies on for
// crash recovery: every mutation must be durable before the corresponding
// worker command is emitted.
package store

import (
	"context"
	"time"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
)

// Store is the transactional interface the engine drives. Implementations
// must provide per-pipeline serializable transactions: all reads/writes for
// one pipeline's transition are atomic relative to each other.
type Store interface {
	// LoadAllPipelines returns, for every pipeline with persisted state, its
	// queue snapshot and running slot (nil if idle). Called once at startup.
	LoadAllPipelines(ctx context.Context) (map[string]PipelineState, error)

	Enqueue(ctx context.Context, pipelineID string, entry engine.Entry) error
	Dequeue(ctx context.Context, pipelineID string) (engine.Entry, bool, error)
	RemoveFromQueue(ctx context.Context, pipelineID, prID string) error
	ReplaceInQueue(ctx context.Context, pipelineID string, entry engine.Entry) error
	ListQueue(ctx context.Context, pipelineID string) ([]engine.Entry, error)

	SetRunning(ctx context.Context, pipelineID string, slot *engine.RunningSlot) error
	GetRunning(ctx context.Context, pipelineID string) (*engine.RunningSlot, error)

	SaveCachedTip(ctx context.Context, pipelineID string, tip engine.CachedTip) error
	LoadCachedTip(ctx context.Context, pipelineID string) (engine.CachedTip, bool, error)

	Close() error
}

// PipelineState is the persisted snapshot for one pipeline, returned in bulk
// at startup so the engine can resynchronize every non-Idle sub-state.
type PipelineState struct {
	Queue      []engine.Entry
	Running    *engine.RunningSlot
	CachedTip  *engine.CachedTip
	LastLoaded time.Time
}
