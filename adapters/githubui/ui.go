// Package githubui implements the UI worker contract (§4.4) against GitHub:
// posting PR comments and commit-status updates, and recognizing the small
// comment-command vocabulary the specification's §12 supplement describes.
package githubui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/go-github/v73/github"
	"golang.org/x/time/rate"

	github_handler "github.com/MyCarrier-DevOps/pr-merge-sync/github"
	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

// Config describes the repository a Worker posts updates against.
type Config struct {
	PipelineID string
	Owner      string
	Repo       string
	// RequestsPerSecond bounds outbound REST calls; 0 disables limiting.
	RequestsPerSecond float64
	RequestBurst      int
}

// Worker implements engine.CommandSink for UI commands (UIComment, UIStatus);
// other command types are ignored.
type Worker struct {
	cfg     Config
	client  *github.Client
	limiter *rate.Limiter
	log     logger.Logger
}

// New builds a Worker from an authenticated GithubSession.
func New(cfg Config, session *github_handler.GithubSession, log logger.Logger) *Worker {
	if log == nil {
		log = &logger.NopLogger{}
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.RequestBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Worker{cfg: cfg, client: session.Client(), limiter: limiter, log: log}
}

// Send implements engine.CommandSink.
func (w *Worker) Send(ctx context.Context, cmd engine.Command) error {
	switch c := cmd.(type) {
	case engine.UIComment:
		return w.postComment(ctx, c)
	case engine.UIStatus:
		return w.postStatus(ctx, c)
	}
	return nil
}

func (w *Worker) wait(ctx context.Context) error {
	if w.limiter == nil {
		return nil
	}
	return w.limiter.Wait(ctx)
}

func (w *Worker) postComment(ctx context.Context, cmd engine.UIComment) error {
	if err := w.wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	prNumber, err := strconv.Atoi(cmd.PRID)
	if err != nil {
		return fmt.Errorf("invalid pr id %q: %w", cmd.PRID, err)
	}

	body := cmd.Text
	if cmd.URL != "" {
		body = fmt.Sprintf("%s (%s)", cmd.Text, cmd.URL)
	}

	_, _, err = w.client.Issues.CreateComment(ctx, w.cfg.Owner, w.cfg.Repo, prNumber, &github.IssueComment{
		Body: &body,
	})
	if err != nil {
		w.log.Error(ctx, "failed to post PR comment", err, map[string]any{
			"pipeline": cmd.PipelineID(), "pr": cmd.PRID,
		})
		return err
	}
	return nil
}

func (w *Worker) postStatus(ctx context.Context, cmd engine.UIStatus) error {
	if err := w.wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	state := statusState(cmd.Status)
	_, _, err := w.client.Repositories.CreateStatus(ctx, w.cfg.Owner, w.cfg.Repo, cmd.Ref, &github.RepoStatus{
		State:   &state,
		Context: github.Ptr("pr-merge-sync"),
	})
	if err != nil {
		w.log.Error(ctx, "failed to post commit status", err, map[string]any{
			"pipeline": cmd.PipelineID(), "ref": cmd.Ref,
		})
		return err
	}
	return nil
}

// statusState maps the engine's free-form status string onto a GitHub
// commit-status state.
func statusState(status string) string {
	switch status {
	case "testing":
		return "pending"
	case "merged":
		return "success"
	default:
		return "failure"
	}
}

// Comment command vocabulary recognized in PR comment bodies, per the
// reference implementation's comment-driven UI (SPEC_FULL.md §12).
const (
	commandApprove = "/merge"
	commandCancel  = "/cancel"
)

// ParseCommentCommand recognizes an approve/cancel command in a PR comment
// body. The recognized forms are "/merge" and "/cancel" on their own line,
// case-insensitively, matching the original_source's slash-command parser.
func ParseCommentCommand(body string) (action string, ok bool) {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		switch trimmed {
		case commandApprove:
			return "approve", true
		case commandCancel:
			return "cancel", true
		}
	}
	return "", false
}
