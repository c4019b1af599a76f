// Package httpapi is the small internal HTTP surface the reference UI
// adapter sits behind (SPEC_FULL.md §11): a GitHub webhook receiver that
// turns inbound comment events into UI.approved/UI.canceled dispatches, a
// manual operator-override endpoint, and a health check. It is not the HTML
// status dashboard named as a Non-goal — there is no UI here, only a
// machine-readable ingress.
package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v73/github"

	"github.com/MyCarrier-DevOps/pr-merge-sync/adapters/githubui"
	"github.com/MyCarrier-DevOps/pr-merge-sync/auth"
	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

// PRInfoFetcher resolves the head commit and requester login for a pull
// request, needed to build an engine.Entry from a bare comment event (the
// webhook payload itself carries only the PR number).
type PRInfoFetcher interface {
	FetchPRHead(ctx context.Context, owner, repo string, number int) (headCommit, requester string, err error)
}

// githubClientFetcher adapts a *github.Client to PRInfoFetcher.
type githubClientFetcher struct {
	client *github.Client
}

func (f githubClientFetcher) FetchPRHead(ctx context.Context, owner, repo string, number int) (string, string, error) {
	pr, _, err := f.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return "", "", fmt.Errorf("fetch pr %s/%s#%d: %w", owner, repo, number, err)
	}
	return pr.GetHead().GetSHA(), pr.GetUser().GetLogin(), nil
}

// NewGithubClientFetcher builds a PRInfoFetcher backed by an authenticated
// GitHub client, e.g. a *github_handler.GithubSession's Client().
func NewGithubClientFetcher(client *github.Client) PRInfoFetcher {
	return githubClientFetcher{client: client}
}

// RepoBinding maps one GitHub repository to the pipeline its comment-command
// events should be dispatched to.
type RepoBinding struct {
	PipelineID string
	Fetcher    PRInfoFetcher
}

// Config configures a Server.
type Config struct {
	APIKey        string
	WebhookSecret string
	// Repos maps "owner/repo" to the pipeline it feeds.
	Repos map[string]RepoBinding
}

// Server wires gin handlers onto an engine.Router.
type Server struct {
	cfg    Config
	router *engine.Router
	log    logger.Logger
	engine *gin.Engine
}

// NewServer builds a Server with its routes registered.
func NewServer(cfg Config, router *engine.Router, log logger.Logger) *Server {
	if log == nil {
		log = &logger.NopLogger{}
	}
	s := &Server{cfg: cfg, router: router, log: log, engine: gin.New()}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

// Handler returns the gin engine so callers can attach it to an http.Server.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealthz)

	webhooks := s.engine.Group("/webhooks")
	webhooks.Use(s.webhookSignatureMiddleware())
	webhooks.POST("/github", s.handleGithubWebhook)

	api := s.engine.Group("/api")
	api.Use(auth.NewAuthMiddleware(s.cfg.APIKey).MiddlewareFunc())
	api.POST("/pipelines/:id/cancel", s.handleManualCancel)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// webhookSignatureMiddleware verifies the X-Hub-Signature-256 header against
// the configured shared secret before any payload is trusted, per
// SPEC_FULL.md §12 ("Webhook signature verification"). A missing or empty
// configured secret fails closed rather than skipping verification.
func (s *Server) webhookSignatureMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.WebhookSecret == "" {
			s.log.Error(c.Request.Context(), "webhook secret not configured", nil, nil)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			c.Abort()
			return
		}

		payload, err := github.ValidatePayload(c.Request, []byte(s.cfg.WebhookSecret))
		if err != nil {
			s.log.Error(c.Request.Context(), "webhook signature validation failed", err, nil)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			c.Abort()
			return
		}

		c.Set("payload", payload)
		c.Next()
	}
}

func (s *Server) handleGithubWebhook(c *gin.Context) {
	raw, ok := c.Get("payload")
	payload, _ := raw.([]byte)
	if !ok || payload == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payload"})
		return
	}

	eventType := github.WebHookType(c.Request)
	event, err := github.ParseWebHook(eventType, payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unparseable payload"})
		return
	}

	switch ev := event.(type) {
	case *github.IssueCommentEvent:
		s.handleIssueComment(c, ev)
	default:
		// Event types outside the comment-command vocabulary are accepted
		// but ignored; GitHub retries on non-2xx.
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleIssueComment(c *gin.Context, ev *github.IssueCommentEvent) {
	ctx := c.Request.Context()

	if ev.GetAction() != "created" || !ev.GetIssue().IsPullRequest() {
		c.Status(http.StatusNoContent)
		return
	}

	action, ok := githubui.ParseCommentCommand(ev.GetComment().GetBody())
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}

	key := ev.GetRepo().GetOwner().GetLogin() + "/" + ev.GetRepo().GetName()
	binding, ok := s.cfg.Repos[key]
	if !ok {
		s.log.Error(ctx, "webhook for unbound repository", nil, map[string]any{"repo": key})
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown repository"})
		return
	}

	prNumber := ev.GetIssue().GetNumber()
	prID := fmt.Sprintf("%d", prNumber)

	var dispatchErr error
	switch action {
	case "approve":
		headCommit, requester, err := binding.Fetcher.FetchPRHead(ctx, ev.GetRepo().GetOwner().GetLogin(), ev.GetRepo().GetName(), prNumber)
		if err != nil {
			s.log.Error(ctx, "failed to resolve pr head for approval", err, map[string]any{"pr": prID})
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not resolve pull request"})
			return
		}
		entry := engine.Entry{
			ID:         fmt.Sprintf("%s-%s", binding.PipelineID, prID),
			PRID:       prID,
			HeadCommit: headCommit,
			Message:    ev.GetIssue().GetTitle(),
			Requester:  requester,
		}
		dispatchErr = s.router.Dispatch(ctx, engine.NewUIApproved(binding.PipelineID, entry))
	case "cancel":
		dispatchErr = s.router.Dispatch(ctx, engine.NewUICancelled(binding.PipelineID, prID))
	}

	if dispatchErr != nil {
		s.log.Error(ctx, "failed to dispatch ui event", dispatchErr, map[string]any{"pr": prID})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}
	c.Status(http.StatusAccepted)
}

// handleManualCancel lets an operator cancel a pipeline's running attempt
// out of band, protected by the API-key middleware rather than webhook
// signature verification since it is not a GitHub-originated request.
func (s *Server) handleManualCancel(c *gin.Context) {
	pipelineID := c.Param("id")
	var body struct {
		PRID string `json:"pr_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pr_id is required"})
		return
	}

	err := s.router.Dispatch(c.Request.Context(), engine.NewUICancelled(pipelineID, body.PRID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}
