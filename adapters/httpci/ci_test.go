package httpci

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
)

func TestSubstitute(t *testing.T) {
	got := substitute("/status/{build}?commit={commit}", map[string]string{
		"build":  "b-1",
		"commit": "abc123",
	})
	assert.Equal(t, "/status/b-1?commit=abc123", got)
}

func defaultRetryWorker(baseURL string) *Worker {
	router := engine.NewRouter(&logger.NopLogger{})
	return New(Config{
		PipelineID: "pl-1",
		BaseURL:    baseURL,
		StatusPath: "/status/{build}",
		StartPath:  "/build?commit={commit}",
		CancelPath: "/cancel/{build}",
		RetryMax:   0,
	}, router, &logger.NopLogger{})
}

func TestDoSucceedsOn200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"succeeded"}`))
	}))
	defer srv.Close()

	w := defaultRetryWorker(srv.URL)
	resp, err := w.do(context.Background(), http.MethodGet, srv.URL+"/status/b-1", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDoReturnsErrorOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	w := defaultRetryWorker(srv.URL)
	_, err := w.do(context.Background(), http.MethodGet, srv.URL+"/status/missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDoReturnsErrorOn5xxAfterRetriesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := defaultRetryWorker(srv.URL)
	_, err := w.do(context.Background(), http.MethodGet, srv.URL+"/status/b-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestHandleQueryStatusWithoutBuildHandleSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := defaultRetryWorker(srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.handleQueryStatus(ctx, engine.CIQueryStatus{})

	assert.False(t, called, "no build handle means no status request should be made")
}
