// Package httpci implements the CI worker contract (§4.4) against a generic
// REST CI backend: start a build, poll/query its status, cancel it. Concrete
// backend shapes (Jenkins, a GitHub-status bridge) are bound at construction
// via Config's URL templates rather than separate packages, per SPEC_FULL.md
// §12's "multiple CI backend shapes" supplement.
package httpci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

// Config describes the REST endpoints a Worker drives. URLs may reference
// "{commit}" or "{build}" placeholders that Worker substitutes per request.
type Config struct {
	PipelineID string
	BaseURL    string
	AuthToken  string

	StartPath  string // e.g. "/build?commit={commit}"
	StatusPath string // e.g. "/status/{build}"
	CancelPath string // e.g. "/cancel/{build}"

	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// startResponse is the expected JSON shape a backend's start endpoint
// returns: an opaque build handle.
type startResponse struct {
	BuildHandle string `json:"build_handle"`
}

// statusResponse is the expected JSON shape a backend's status endpoint
// returns. Status is one of "running", "succeeded", "failed".
type statusResponse struct {
	Status string `json:"status"`
	URL    string `json:"url"`
}

// Worker implements engine.CommandSink for CI commands (CIStart, CICancel,
// CIQueryStatus); other command types are ignored. Results are dispatched
// back through the router asynchronously since REST calls block.
type Worker struct {
	cfg    Config
	client *retryablehttp.Client
	router *engine.Router
	log    logger.Logger
}

// New builds a Worker configured with the teacher's retry defaults
// (RetryMax=3, wait window 1s-4s), overridable per cfg.
func New(cfg Config, router *engine.Router, log logger.Logger) *Worker {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}
	if cfg.RetryWaitMin == 0 {
		cfg.RetryWaitMin = 1 * time.Second
	}
	if cfg.RetryWaitMax == 0 {
		cfg.RetryWaitMax = 4 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Backoff = retryablehttp.DefaultBackoff
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Worker{cfg: cfg, client: retryClient, router: router, log: log}
}

// Send implements engine.CommandSink.
func (w *Worker) Send(ctx context.Context, cmd engine.Command) error {
	switch c := cmd.(type) {
	case engine.CIStart:
		go w.handleStart(ctx, c)
	case engine.CICancel:
		go w.handleCancel(ctx, c)
	case engine.CIQueryStatus:
		go w.handleQueryStatus(ctx, c)
	}
	return nil
}

func substitute(template string, replacements map[string]string) string {
	out := template
	for k, v := range replacements {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

func (w *Worker) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if w.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+w.cfg.AuthToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ci backend returned %d: %s", resp.StatusCode, string(body))
	}
	return resp, nil
}

func (w *Worker) handleStart(ctx context.Context, cmd engine.CIStart) {
	url := w.cfg.BaseURL + substitute(w.cfg.StartPath, map[string]string{"commit": cmd.Commit})
	resp, err := w.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		w.emit(ctx, engine.NewCIFailed(cmd.PipelineID(), cmd.CorrelationID(), "ci start failed: "+err.Error(), ""))
		return
	}
	defer resp.Body.Close()

	var parsed startResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		w.emit(ctx, engine.NewCIFailed(cmd.PipelineID(), cmd.CorrelationID(), "invalid ci start response: "+err.Error(), ""))
		return
	}
	w.emit(ctx, engine.NewCIStarted(cmd.PipelineID(), cmd.CorrelationID(), parsed.BuildHandle))
}

func (w *Worker) handleCancel(ctx context.Context, cmd engine.CICancel) {
	if cmd.BuildHandle == "" {
		return
	}
	url := w.cfg.BaseURL + substitute(w.cfg.CancelPath, map[string]string{"build": cmd.BuildHandle})
	resp, err := w.do(ctx, http.MethodPost, url, nil)
	if err != nil {
		w.log.Error(ctx, "failed to cancel ci build", err, map[string]any{
			"pipeline": cmd.PipelineID(), "build": cmd.BuildHandle,
		})
		return
	}
	resp.Body.Close()
}

func (w *Worker) handleQueryStatus(ctx context.Context, cmd engine.CIQueryStatus) {
	if cmd.BuildHandle == "" {
		// No build was ever accepted (crash happened between merge and CI
		// start); report failure so the engine drops the entry with a PR
		// comment rather than waiting forever on a build that never started.
		w.emit(ctx, engine.NewCIFailed(cmd.PipelineID(), cmd.CorrelationID(), "no build in flight", ""))
		return
	}

	url := w.cfg.BaseURL + substitute(w.cfg.StatusPath, map[string]string{"build": cmd.BuildHandle})
	resp, err := w.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		w.emit(ctx, engine.NewCIFailed(cmd.PipelineID(), cmd.CorrelationID(), "status query failed: "+err.Error(), ""))
		return
	}
	defer resp.Body.Close()

	var parsed statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		w.emit(ctx, engine.NewCIFailed(cmd.PipelineID(), cmd.CorrelationID(), "invalid ci status response: "+err.Error(), ""))
		return
	}

	switch parsed.Status {
	case "succeeded":
		w.emit(ctx, engine.NewCISucceeded(cmd.PipelineID(), cmd.CorrelationID(), cmd.BuildHandle))
	case "failed":
		w.emit(ctx, engine.NewCIFailed(cmd.PipelineID(), cmd.CorrelationID(), "tests failed", parsed.URL))
	default:
		w.emit(ctx, engine.NewCIStarted(cmd.PipelineID(), cmd.CorrelationID(), cmd.BuildHandle))
	}
}

func (w *Worker) emit(ctx context.Context, ev engine.Event) {
	if err := w.router.Dispatch(ctx, ev); err != nil {
		w.log.Error(ctx, "failed to dispatch CI event", err, map[string]any{"pipeline": ev.PipelineID()})
	}
}
