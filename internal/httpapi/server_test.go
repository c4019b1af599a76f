package httpapi

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger/loggertest"
	"github.com/MyCarrier-DevOps/pr-merge-sync/store/memory"
)

const testSecret = "s3cr3t"

func sign(t *testing.T, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(testSecret))
	_, err := mac.Write(body)
	require.NoError(t, err)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

type fakeFetcher struct {
	headCommit string
	requester  string
	err        error
}

func (f fakeFetcher) FetchPRHead(ctx context.Context, owner, repo string, number int) (string, string, error) {
	return f.headCommit, f.requester, f.err
}

type recordingSink struct {
	commands []engine.Command
}

func (r *recordingSink) Send(ctx context.Context, cmd engine.Command) error {
	r.commands = append(r.commands, cmd)
	return nil
}

func newTestServer(t *testing.T, repos map[string]RepoBinding) (*Server, *engine.Router) {
	t.Helper()
	s, router, _ := newTestServerWithLogger(t, repos)
	return s, router
}

func newTestServerWithLogger(t *testing.T, repos map[string]RepoBinding) (*Server, *engine.Router, *loggertest.MockLogger) {
	t.Helper()
	router := engine.NewRouter(nil)
	st := memory.New()
	sink := &recordingSink{}
	cfg := engine.DefaultConfig()
	cfg.ID = "widgets"
	cfg.UIWorkerName = "github-main"
	cfg.VCSWorkerName = "git-main"
	cfg.CIWorkerName = "jenkins-main"
	p := engine.NewPipeline(cfg, st, sink, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	router.Register(ctx, p)

	log := loggertest.NewMockLogger()
	s := NewServer(Config{
		APIKey:        "test-key",
		WebhookSecret: testSecret,
		Repos:         repos,
	}, router, log)
	return s, router, log
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookRejectsMissingSignature(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-GitHub-Event", "issue_comment")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := []byte(`{}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "issue_comment")
	req.Header.Set("X-Hub-Signature-256", "sha256=deadbeef")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func issueCommentPayload(t *testing.T, body, owner, repo string, number int) []byte {
	t.Helper()
	payload := map[string]any{
		"action": "created",
		"issue": map[string]any{
			"number":       number,
			"title":        "fix the thing",
			"pull_request": map[string]any{"url": "https://api.github.com/pulls/1"},
		},
		"comment": map[string]any{"body": body},
		"repository": map[string]any{
			"name":  repo,
			"owner": map[string]any{"login": owner},
		},
	}
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return data
}

func TestWebhookApproveDispatchesUIApproved(t *testing.T) {
	repos := map[string]RepoBinding{
		"acme/widgets": {
			PipelineID: "widgets",
			Fetcher:    fakeFetcher{headCommit: "abc123", requester: "octocat"},
		},
	}
	s, _ := newTestServer(t, repos)

	body := issueCommentPayload(t, "/merge", "acme", "widgets", 7)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "issue_comment")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(t, body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestWebhookUnboundRepoReturns404(t *testing.T) {
	s, _, log := newTestServerWithLogger(t, nil)

	body := issueCommentPayload(t, "/merge", "acme", "widgets", 7)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "issue_comment")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(t, body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, log.HasError("unbound repository"))
}

func TestWebhookNonCommandCommentIsIgnored(t *testing.T) {
	repos := map[string]RepoBinding{
		"acme/widgets": {PipelineID: "widgets", Fetcher: fakeFetcher{headCommit: "abc123"}},
	}
	s, _ := newTestServer(t, repos)

	body := issueCommentPayload(t, "looks good to me", "acme", "widgets", 7)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	req.Header.Set("X-GitHub-Event", "issue_comment")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hub-Signature-256", sign(t, body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestWebhookMissingSecretFailsClosed(t *testing.T) {
	router := engine.NewRouter(nil)
	log := loggertest.NewMockLogger()
	s := NewServer(Config{APIKey: "test-key", WebhookSecret: ""}, router, log)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-GitHub-Event", "issue_comment")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, log.HasError("webhook secret not configured"))
}

func TestManualCancelRequiresAPIKey(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := []byte(`{"pr_id":"7"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/pipelines/widgets/cancel", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManualCancelWithValidAPIKeyDispatches(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body := []byte(`{"pr_id":"7"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/pipelines/widgets/cancel", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+base64.StdEncoding.EncodeToString([]byte("test-key")))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
