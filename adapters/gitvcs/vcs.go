// Package gitvcs implements the VCS worker contract (§4.4) by driving a
// persistent on-disk git clone with go-git. It is the generalization of
// github/git.go's CloneRepository: rather than a one-shot clone, a Worker
// keeps its clone around and merges/fast-forwards/queries against it.
package gitvcs

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	ghhttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

// Config describes the repository a Worker manages.
type Config struct {
	PipelineID    string
	RepositoryURL string
	DefaultBranch string
	WorkDir       string
	// AuthToken authenticates over HTTPS the same way github.CloneRepository
	// does: "x-access-token" as the username, the App installation token as
	// the password.
	AuthToken string
}

// Worker implements engine.CommandSink for VCS commands only; every other
// command type is ignored so it can sit in a fanout alongside the UI/CI
// workers without any command routing table.
type Worker struct {
	cfg    Config
	router *engine.Router
	log    logger.Logger
	mu     sync.Mutex
	repo   *git.Repository
}

// New opens (cloning if necessary) the repository described by cfg.
func New(ctx context.Context, cfg Config, router *engine.Router, log logger.Logger) (*Worker, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = fmt.Sprintf("/work/%s", cfg.PipelineID)
	}

	w := &Worker{cfg: cfg, router: router, log: log}

	repo, err := git.PlainOpen(cfg.WorkDir)
	if err != nil {
		repo, err = git.PlainCloneContext(ctx, cfg.WorkDir, false, &git.CloneOptions{
			URL:           cfg.RepositoryURL,
			ReferenceName: plumbing.NewBranchReferenceName(cfg.DefaultBranch),
			SingleBranch:  false,
			Auth:          w.auth(),
		})
		if err != nil {
			return nil, fmt.Errorf("clone %s: %w", cfg.RepositoryURL, err)
		}
	}
	w.repo = repo
	return w, nil
}

func (w *Worker) auth() *ghhttp.BasicAuth {
	if w.cfg.AuthToken == "" {
		return nil
	}
	return &ghhttp.BasicAuth{Username: "x-access-token", Password: w.cfg.AuthToken}
}

// Send implements engine.CommandSink.
func (w *Worker) Send(ctx context.Context, cmd engine.Command) error {
	switch c := cmd.(type) {
	case engine.VCSMerge:
		go w.handleMerge(ctx, c)
	case engine.VCSFastForward:
		go w.handleFastForward(ctx, c)
	case engine.VCSQueryTip:
		go w.handleQueryTip(ctx, c)
	}
	return nil
}

func (w *Worker) fetch(ctx context.Context) error {
	err := w.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		Auth:       w.auth(),
		Force:      true,
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return err
	}
	return nil
}

func (w *Worker) remoteTip(branch string) (plumbing.Hash, error) {
	ref, err := w.repo.Reference(plumbing.NewRemoteReferenceName("origin", branch), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// handleMerge produces a speculative staging commit merging prHead onto the
// current remote tip of the default branch, mirroring the reference merge-bot's
// "merge onto fresh base" semantics: the base used is always re-fetched, never
// the engine's cached hint, because the hint is advisory only (§3).
func (w *Worker) handleMerge(ctx context.Context, cmd engine.VCSMerge) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.fetch(ctx); err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	baseHash, err := w.remoteTip(w.cfg.DefaultBranch)
	if err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	wt, err := w.repo.Worktree()
	if err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	if err := wt.Checkout(&git.CheckoutOptions{Hash: baseHash, Force: true}); err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	prHash := plumbing.NewHash(cmd.PRHead)
	prCommit, err := w.repo.CommitObject(prHash)
	if err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), "pr head not found: "+err.Error()))
		return
	}

	baseCommit, err := w.repo.CommitObject(baseHash)
	if err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	if err := applyMerge(wt, baseCommit, prCommit); err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	sig := &object.Signature{Name: "pr-merge-sync", Email: "pr-merge-sync@localhost"}
	stagingHash, err := wt.Commit(cmd.Message, &git.CommitOptions{
		Author:    sig,
		Committer: sig,
		Parents:   []plumbing.Hash{baseHash, prHash},
		All:       false,
	})
	if err != nil {
		w.emit(ctx, engine.NewVCSMergeFailed(cmd.PipelineID(), cmd.CorrelationID(), err.Error()))
		return
	}

	w.emit(ctx, engine.NewVCSMerged(cmd.PipelineID(), cmd.CorrelationID(), stagingHash.String(), baseHash.String()))
}

// applyMerge writes the PR's changes (relative to the merge base) into the
// checked-out worktree, failing closed on any file both sides touched since
// their common ancestor. go-git ships no recursive three-way merge, so this
// is the same "merge-base diff, reject overlapping paths" approach a minimal
// merge-bot needs; anything subtler is left for CI to catch.
func applyMerge(wt *git.Worktree, base, pr *object.Commit) error {
	mergeBases, err := base.MergeBase(pr)
	if err != nil {
		return fmt.Errorf("compute merge base: %w", err)
	}
	if len(mergeBases) == 0 {
		return fmt.Errorf("no common ancestor between base and pr head")
	}
	mergeBase := mergeBases[0]

	baseTree, err := base.Tree()
	if err != nil {
		return err
	}
	prTree, err := pr.Tree()
	if err != nil {
		return err
	}
	ancestorTree, err := mergeBase.Tree()
	if err != nil {
		return err
	}

	baseChanges, err := ancestorTree.Diff(baseTree)
	if err != nil {
		return fmt.Errorf("diff base from merge base: %w", err)
	}
	baseTouched := make(map[string]bool, len(baseChanges))
	for _, c := range baseChanges {
		baseTouched[c.To.Name] = true
		baseTouched[c.From.Name] = true
	}

	prChanges, err := ancestorTree.Diff(prTree)
	if err != nil {
		return fmt.Errorf("diff pr from merge base: %w", err)
	}

	for _, change := range prChanges {
		path := change.To.Name
		if path == "" {
			path = change.From.Name
		}
		if baseTouched[path] {
			return fmt.Errorf("conflict: %s modified on both sides since merge base", path)
		}

		file, err := prTree.File(path)
		if err != nil {
			// Deleted in the PR branch relative to merge base.
			if rmErr := wt.Filesystem.Remove(path); rmErr != nil {
				return fmt.Errorf("remove %s: %w", path, rmErr)
			}
			if _, addErr := wt.Add(path); addErr != nil && !os.IsNotExist(addErr) {
				return fmt.Errorf("stage removal of %s: %w", path, addErr)
			}
			continue
		}
		contents, err := file.Contents()
		if err != nil {
			return fmt.Errorf("read %s from pr tree: %w", path, err)
		}
		f, err := wt.Filesystem.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if _, err := f.Write([]byte(contents)); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		f.Close()
		if _, err := wt.Add(path); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
	}
	return nil
}

// handleFastForward advances the default branch ref to staging, refusing
// (reporting stale) if the remote tip has moved since staging was produced.
func (w *Worker) handleFastForward(ctx context.Context, cmd engine.VCSFastForward) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.fetch(ctx); err != nil {
		w.emit(ctx, engine.NewVCSFastForwardStale(cmd.PipelineID(), cmd.CorrelationID(), ""))
		return
	}

	currentTip, err := w.remoteTip(w.cfg.DefaultBranch)
	if err != nil {
		w.emit(ctx, engine.NewVCSFastForwardStale(cmd.PipelineID(), cmd.CorrelationID(), ""))
		return
	}

	if currentTip.String() != cmd.Base {
		w.emit(ctx, engine.NewVCSFastForwardStale(cmd.PipelineID(), cmd.CorrelationID(), currentTip.String()))
		return
	}

	stagingHash := plumbing.NewHash(cmd.Staging)
	refName := plumbing.NewBranchReferenceName(w.cfg.DefaultBranch)
	newRef := plumbing.NewHashReference(refName, stagingHash)

	refSpec := config.RefSpec(fmt.Sprintf("%s:refs/heads/%s", stagingHash.String(), w.cfg.DefaultBranch))
	if err := w.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
		Auth:       w.auth(),
	}); err != nil {
		w.emit(ctx, engine.NewVCSFastForwardStale(cmd.PipelineID(), cmd.CorrelationID(), ""))
		return
	}

	if err := w.repo.Storer.SetReference(newRef); err != nil {
		w.log.Error(ctx, "failed to update local ref after push", err, map[string]any{"pipeline": cmd.PipelineID()})
	}

	w.emit(ctx, engine.NewVCSFastForwardOK(cmd.PipelineID(), cmd.CorrelationID(), stagingHash.String()))
}

// handleQueryTip answers an advisory tip lookup. No SPEC_FULL.md transition
// currently consumes a reply to this command (crash recovery for WaitingOnCI
// uses engine.CIQueryStatus instead), so this only refreshes the worker's own
// view of the remote; it exists because §2 names tip-query as a VCS worker
// capability independent of any one caller.
func (w *Worker) handleQueryTip(ctx context.Context, cmd engine.VCSQueryTip) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.fetch(ctx); err != nil {
		w.log.Error(ctx, "query tip fetch failed", err, map[string]any{"pipeline": cmd.PipelineID()})
		return
	}
	tip, err := w.remoteTip(cmd.Base)
	if err != nil {
		w.log.Error(ctx, "query tip failed", err, map[string]any{"pipeline": cmd.PipelineID()})
		return
	}
	w.log.Info(ctx, "observed branch tip", map[string]any{
		"pipeline": cmd.PipelineID(),
		"branch":   cmd.Base,
		"tip":      tip.String(),
	})
}

func (w *Worker) emit(ctx context.Context, ev engine.Event) {
	if err := w.router.Dispatch(ctx, ev); err != nil {
		w.log.Error(ctx, "failed to dispatch VCS event", err, map[string]any{"pipeline": ev.PipelineID()})
	}
}
