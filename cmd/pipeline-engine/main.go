// Command pipeline-engine is the operator entrypoint (SPEC_FULL.md §6): it
// takes a single argument, the path to a TOML configuration file, wires the
// pipeline engine and its bound workers, and runs until an interrupt signal
// or a fatal error. Exit codes: 0 clean shutdown, 1 configuration error, 2
// persistence failure on startup, 3 unrecoverable worker-binding failure.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ch "github.com/MyCarrier-DevOps/pr-merge-sync/clickhouse"
	"github.com/MyCarrier-DevOps/pr-merge-sync/adapters/githubui"
	"github.com/MyCarrier-DevOps/pr-merge-sync/adapters/gitvcs"
	"github.com/MyCarrier-DevOps/pr-merge-sync/adapters/httpci"
	"github.com/MyCarrier-DevOps/pr-merge-sync/config"
	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	githubhandler "github.com/MyCarrier-DevOps/pr-merge-sync/github"
	"github.com/MyCarrier-DevOps/pr-merge-sync/internal/httpapi"
	"github.com/MyCarrier-DevOps/pr-merge-sync/logger"
	secretvault "github.com/MyCarrier-DevOps/pr-merge-sync/secrets/vault"
	chstore "github.com/MyCarrier-DevOps/pr-merge-sync/store/clickhouse"
	"github.com/MyCarrier-DevOps/pr-merge-sync/tracing"
)

const exitOK, exitConfigError, exitPersistenceError, exitWorkerBindingError = 0, 1, 2, 3

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: pipeline-engine <config.toml>")
		return exitConfigError
	}

	log := logger.NewZapLoggerFromConfig()
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(os.Args[1])
	if err != nil {
		log.Error(ctx, "failed to load configuration", err, nil)
		return exitConfigError
	}

	if err := resolveSecrets(ctx, cfg, log); err != nil {
		log.Error(ctx, "failed to resolve secrets", err, nil)
		return exitConfigError
	}

	shutdownTracing, err := tracing.InitTracerProvider(ctx, "")
	if err != nil {
		log.Error(ctx, "failed to initialize tracing", err, nil)
		return exitConfigError
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Error(ctx, "failed to shut down tracer provider", err, nil)
		}
	}()

	chCfg, err := ch.ClickhouseLoadConfig()
	if err != nil {
		log.Error(ctx, "failed to load clickhouse configuration", err, nil)
		return exitPersistenceError
	}
	st, err := chstore.New(ctx, chCfg, chstore.Options{Logger: log})
	if err != nil {
		log.Error(ctx, "failed to connect to clickhouse", err, nil)
		return exitPersistenceError
	}
	defer st.Close()

	router := engine.NewRouter(log)

	uiSinks, uiSessions, err := buildUIWorkers(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build ui workers", err, nil)
		return exitWorkerBindingError
	}
	vcsSinks, err := buildVCSWorkers(ctx, cfg, router, log)
	if err != nil {
		log.Error(ctx, "failed to build vcs workers", err, nil)
		return exitWorkerBindingError
	}
	ciSinks := buildCIWorkers(cfg, router, log)

	for id, p := range cfg.Pipeline {
		sink := &fanoutSink{
			ui:  uiSinks[p.UI],
			vcs: vcsSinks[p.VCS],
			ci:  ciSinks[p.CI],
		}
		pipeline := engine.NewPipeline(p.ToEngineConfig(id), st, sink, log)
		if err := pipeline.Resync(ctx); err != nil {
			log.Error(ctx, "failed to resync pipeline on startup", err, map[string]any{"pipeline": id})
			return exitWorkerBindingError
		}
		router.Register(ctx, pipeline)
	}

	server := httpapi.NewServer(httpapi.Config{
		APIKey:        cfg.APIKey,
		WebhookSecret: webhookSecret(cfg),
		Repos:         buildRepoBindings(cfg, uiSessions),
	}, router, log)

	httpSrv := &http.Server{Addr: ":8080", Handler: server.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "http server error", err, nil)
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down", nil)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	router.StopAll()

	return exitOK
}

// resolveSecrets resolves every vault:// URI in cfg in place. A vault client
// that fails to initialize is not itself a configuration error: an operator
// who never references vault:// in their config is entitled to run without
// Vault available at all, so resolution falls back to a pass-through-only
// resolver rather than refusing to start.
func resolveSecrets(ctx context.Context, cfg *config.RootConfig, log logger.Logger) error {
	resolver, err := secretvault.NewResolver(ctx)
	if err != nil {
		log.Info(ctx, "vault client unavailable, vault:// secrets will fail if referenced", map[string]any{"reason": err.Error()})
		resolver = secretvault.NewResolverFromClient(nil)
	}
	return config.ResolveSecrets(ctx, cfg, resolver)
}

// fanoutSink routes an engine.Command to the worker bound to its kind,
// generalizing the single-CommandSink contract each pipeline holds into the
// per-lane UI/VCS/CI bindings a [pipeline.<id>] section declares.
type fanoutSink struct {
	ui  engine.CommandSink
	vcs engine.CommandSink
	ci  engine.CommandSink
}

func (f *fanoutSink) Send(ctx context.Context, cmd engine.Command) error {
	switch cmd.(type) {
	case engine.UIComment, engine.UIStatus:
		if f.ui == nil {
			return fmt.Errorf("no ui worker bound for pipeline %s", cmd.PipelineID())
		}
		return f.ui.Send(ctx, cmd)
	case engine.VCSMerge, engine.VCSFastForward, engine.VCSQueryTip:
		if f.vcs == nil {
			return fmt.Errorf("no vcs worker bound for pipeline %s", cmd.PipelineID())
		}
		return f.vcs.Send(ctx, cmd)
	case engine.CIStart, engine.CICancel, engine.CIQueryStatus:
		if f.ci == nil {
			return fmt.Errorf("no ci worker bound for pipeline %s", cmd.PipelineID())
		}
		return f.ci.Send(ctx, cmd)
	}
	return fmt.Errorf("unrecognized command type %T", cmd)
}

func buildUIWorkers(cfg *config.RootConfig, log logger.Logger) (map[string]engine.CommandSink, map[string]*githubhandler.GithubSession, error) {
	sinks := make(map[string]engine.CommandSink, len(cfg.UI))
	sessions := make(map[string]*githubhandler.GithubSession, len(cfg.UI))
	for name, uc := range cfg.UI {
		session, err := githubhandler.NewGithubSession(uc.PrivateKey, strconv.FormatInt(uc.AppID, 10), strconv.FormatInt(uc.InstallationID, 10))
		if err != nil {
			return nil, nil, fmt.Errorf("ui worker %q: %w", name, err)
		}
		sessions[name] = session
		sinks[name] = githubui.New(githubui.Config{
			Owner:             uc.Owner,
			Repo:              uc.Repo,
			RequestsPerSecond: uc.RequestsPerSecond,
			RequestBurst:      uc.RequestBurst,
		}, session, log)
	}
	return sinks, sessions, nil
}

func buildVCSWorkers(ctx context.Context, cfg *config.RootConfig, router *engine.Router, log logger.Logger) (map[string]engine.CommandSink, error) {
	sinks := make(map[string]engine.CommandSink, len(cfg.VCS))
	for name, vc := range cfg.VCS {
		worker, err := gitvcs.New(ctx, gitvcs.Config{
			PipelineID:    name,
			RepositoryURL: vc.RepositoryURL,
			DefaultBranch: vc.DefaultBranch,
			WorkDir:       vc.WorkDir,
			AuthToken:     vc.AuthToken,
		}, router, log)
		if err != nil {
			return nil, fmt.Errorf("vcs worker %q: %w", name, err)
		}
		sinks[name] = worker
	}
	return sinks, nil
}

func buildCIWorkers(cfg *config.RootConfig, router *engine.Router, log logger.Logger) map[string]engine.CommandSink {
	sinks := make(map[string]engine.CommandSink, len(cfg.CI))
	for name, cc := range cfg.CI {
		sinks[name] = httpci.New(httpci.Config{
			BaseURL:    cc.BaseURL,
			AuthToken:  cc.AuthToken,
			StartPath:  cc.StartPath,
			StatusPath: cc.StatusPath,
			CancelPath: cc.CancelPath,
		}, router, log)
	}
	return sinks
}

// webhookSecret uses the first UI worker's webhook secret, since the
// comment-command ingress is shared across every GitHub-backed pipeline
// behind a single gin server.
func webhookSecret(cfg *config.RootConfig) string {
	for _, uc := range cfg.UI {
		if uc.WebhookSecret != "" {
			return uc.WebhookSecret
		}
	}
	return ""
}

func buildRepoBindings(cfg *config.RootConfig, sessions map[string]*githubhandler.GithubSession) map[string]httpapi.RepoBinding {
	bindings := make(map[string]httpapi.RepoBinding, len(cfg.Pipeline))
	for id, p := range cfg.Pipeline {
		uc, ok := cfg.UI[p.UI]
		if !ok {
			continue
		}
		session, ok := sessions[p.UI]
		if !ok {
			continue
		}
		key := uc.Owner + "/" + uc.Repo
		bindings[key] = httpapi.RepoBinding{
			PipelineID: id,
			Fetcher:    httpapi.NewGithubClientFetcher(session.Client()),
		}
	}
	return bindings
}
