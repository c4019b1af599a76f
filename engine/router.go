package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

// Router dispatches incoming worker events to the owning pipeline by
// pipeline id, and runs every registered pipeline on its own goroutine.
type Router struct {
	mu        sync.RWMutex
	pipelines map[string]*Pipeline
	log       logger.Logger
}

// NewRouter returns an empty Router.
func NewRouter(log logger.Logger) *Router {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Router{pipelines: make(map[string]*Pipeline), log: log}
}

// Register adds a pipeline to the router and starts its goroutine under ctx.
func (r *Router) Register(ctx context.Context, p *Pipeline) {
	r.mu.Lock()
	r.pipelines[p.cfg.ID] = p
	r.mu.Unlock()
	go p.Run(ctx)
}

// Dispatch routes ev to the pipeline named by ev.PipelineID(). Events for an
// unregistered pipeline are not delivered; Dispatch returns an error wrapping
// ErrPipelineNotFound.
func (r *Router) Dispatch(ctx context.Context, ev Event) error {
	r.mu.RLock()
	p, ok := r.pipelines[ev.PipelineID()]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPipelineNotFound, ev.PipelineID())
	}
	select {
	case p.Events() <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StopAll stops every registered pipeline's Run loop.
func (r *Router) StopAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pipelines {
		p.Stop()
	}
}
