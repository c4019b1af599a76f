package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	secretvault "github.com/MyCarrier-DevOps/pr-merge-sync/secrets/vault"
)

const validTOML = `
[database]
url = "clickhouse://localhost:9000/pr_merge_sync"

[ui.github-main]
type = "github"
owner = "acme"
repo = "widgets"

[vcs.git-main]
type = "git"
repository_url = "https://github.com/acme/widgets.git"

[ci.jenkins-main]
type = "http"
base_url = "https://ci.acme.internal"

[pipeline.widgets]
ui = "github-main"
vcs = "git-main"
ci = "jenkins-main"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigValid(t *testing.T) {
	path := writeTempConfig(t, validTOML)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "clickhouse://localhost:9000/pr_merge_sync", cfg.Database.URL)
	assert.Equal(t, "info", cfg.LogLevel)
	require.Contains(t, cfg.Pipeline, "widgets")
	assert.Equal(t, "github-main", cfg.Pipeline["widgets"].UI)
}

func TestLoadConfigMissingDatabaseURL(t *testing.T) {
	path := writeTempConfig(t, `
[pipeline.widgets]
ui = "a"
vcs = "b"
ci = "c"
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigNoPipelines(t *testing.T) {
	path := writeTempConfig(t, `
[database]
url = "clickhouse://localhost:9000/db"
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigUnknownWorkerReference(t *testing.T) {
	path := writeTempConfig(t, `
[database]
url = "clickhouse://localhost:9000/db"

[pipeline.widgets]
ui = "does-not-exist"
vcs = "does-not-exist"
ci = "does-not-exist"
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestPipelineConfigToEngineConfig(t *testing.T) {
	p := PipelineConfig{
		LaneBinding: LaneBinding{UI: "ui-1", VCS: "vcs-1", CI: "ci-1"},
	}
	cfg := p.ToEngineConfig("widgets")

	assert.Equal(t, "widgets", cfg.ID)
	assert.Equal(t, "ui-1", cfg.UIWorkerName)
	assert.Equal(t, "vcs-1", cfg.VCSWorkerName)
	assert.Equal(t, "ci-1", cfg.CIWorkerName)
	assert.Equal(t, "main", cfg.DefaultBranch)
	assert.Equal(t, 2*time.Hour, cfg.StateTimeout)
	assert.Equal(t, 3, cfg.MaxStaleRetries)
}

func TestPipelineConfigToEngineConfigOverridesDefaults(t *testing.T) {
	p := PipelineConfig{
		LaneBinding:     LaneBinding{UI: "ui-1", VCS: "vcs-1", CI: "ci-1"},
		DefaultBranch:   "develop",
		StateTimeout:    30 * time.Minute,
		MaxStaleRetries: 5,
	}
	cfg := p.ToEngineConfig("widgets")

	assert.Equal(t, "develop", cfg.DefaultBranch)
	assert.Equal(t, 30*time.Minute, cfg.StateTimeout)
	assert.Equal(t, 5, cfg.MaxStaleRetries)
}

func TestResolveSecretsPassesThroughNonVaultValues(t *testing.T) {
	cfg := &RootConfig{
		Database: DatabaseConfig{URL: "clickhouse://localhost:9000/db"},
		UI: map[string]UIWorkerConfig{
			"github-main": {PrivateKey: "literal-key", WebhookSecret: "literal-secret"},
		},
	}
	resolver := secretvault.NewResolverFromClient(nil)

	err := ResolveSecrets(context.Background(), cfg, resolver)
	require.NoError(t, err)
	assert.Equal(t, "literal-key", cfg.UI["github-main"].PrivateKey)
	assert.Equal(t, "clickhouse://localhost:9000/db", cfg.Database.URL)
}

func TestResolveSecretsFailsClosedOnUnresolvableVaultURI(t *testing.T) {
	cfg := &RootConfig{
		Database: DatabaseConfig{URL: "vault://secret/db?field=url"},
	}
	resolver := secretvault.NewResolverFromClient(nil)

	err := ResolveSecrets(context.Background(), cfg, resolver)
	assert.Error(t, err)
}
