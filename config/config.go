// Package config loads the root TOML configuration named by the operator
// CLI's single argument (SPEC_FULL.md §6, §10.3), grounded on the teacher's
// viper-based LoadConfig/validateConfig shape but reading a named file
// (`viper.SetConfigFile`/`ReadInConfig`) instead of only binding environment
// variables, since a pipeline's worker bindings and topology cannot be
// expressed as a flat set of env vars the way a single Kafka connection can.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/MyCarrier-DevOps/pr-merge-sync/engine"
	kafkacore "github.com/MyCarrier-DevOps/pr-merge-sync/kafka"
	secretvault "github.com/MyCarrier-DevOps/pr-merge-sync/secrets/vault"
)

// DatabaseConfig points the store layer at its ClickHouse DSN. The
// DATABASE_URL environment variable, when set, overrides the config file's
// value; a vault:// URI in the result is then resolved by ResolveSecrets.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// UIWorkerConfig configures one named UI worker instance (a [ui.<name>]
// section).
type UIWorkerConfig struct {
	Type              string  `mapstructure:"type"`
	Owner             string  `mapstructure:"owner"`
	Repo              string  `mapstructure:"repo"`
	AppID             int64   `mapstructure:"app_id"`
	InstallationID    int64   `mapstructure:"installation_id"`
	PrivateKey        string  `mapstructure:"private_key"`
	WebhookSecret     string  `mapstructure:"webhook_secret"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	RequestBurst      int     `mapstructure:"request_burst"`
}

// VCSWorkerConfig configures one named VCS worker instance (a [vcs.<name>]
// section).
type VCSWorkerConfig struct {
	Type          string `mapstructure:"type"`
	RepositoryURL string `mapstructure:"repository_url"`
	DefaultBranch string `mapstructure:"default_branch"`
	WorkDir       string `mapstructure:"work_dir"`
	AuthToken     string `mapstructure:"auth_token"`
}

// CIWorkerConfig configures one named CI worker instance (a [ci.<name>]
// section).
type CIWorkerConfig struct {
	Type       string `mapstructure:"type"`
	BaseURL    string `mapstructure:"base_url"`
	AuthToken  string `mapstructure:"auth_token"`
	StartPath  string `mapstructure:"start_path"`
	StatusPath string `mapstructure:"status_path"`
	CancelPath string `mapstructure:"cancel_path"`
}

// LaneBinding names the worker instances a pipeline (or its try lane) binds
// to, matching §6's "ui, vcs, ci" key triple.
type LaneBinding struct {
	UI  string `mapstructure:"ui"`
	VCS string `mapstructure:"vcs"`
	CI  string `mapstructure:"ci"`
}

// PipelineConfig configures one repository's merge queue (a [pipeline.<id>]
// section). Try is an optional speculative lane sharing the same state
// machine but never fast-forwarding, per §6.
type PipelineConfig struct {
	LaneBinding     `mapstructure:",squash"`
	DefaultBranch   string        `mapstructure:"default_branch"`
	StateTimeout    time.Duration `mapstructure:"state_timeout"`
	MaxStaleRetries int           `mapstructure:"max_stale_retries"`
	Try             *LaneBinding  `mapstructure:"try"`
}

// RootConfig is the fully parsed and validated configuration file.
type RootConfig struct {
	Database DatabaseConfig             `mapstructure:"database"`
	Kafka    kafkacore.KafkaConfig      `mapstructure:"kafka"`
	LogLevel string                     `mapstructure:"log_level"`
	APIKey   string                     `mapstructure:"apikey"`
	UI       map[string]UIWorkerConfig  `mapstructure:"ui"`
	VCS      map[string]VCSWorkerConfig `mapstructure:"vcs"`
	CI       map[string]CIWorkerConfig  `mapstructure:"ci"`
	Pipeline map[string]PipelineConfig  `mapstructure:"pipeline"`
}

// LoadConfig reads and validates the TOML file at path, matching the
// teacher's LoadConfig-then-validateConfig shape but sourced from a named
// file (per §6's "operator CLI takes a single argument") rather than only
// environment variables. DATABASE_URL and LOG_LEVEL are layered over the
// file here; vault:// URIs are resolved afterward via ResolveSecrets.
func LoadConfig(path string) (*RootConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("APP")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var cfg RootConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validateConfig checks the load-bearing fields every pipeline needs bound,
// following the teacher's flat "if field == "" return fmt.Errorf" style.
func validateConfig(cfg *RootConfig) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url is required")
	}
	if len(cfg.Pipeline) == 0 {
		return fmt.Errorf("at least one [pipeline.<id>] section is required")
	}

	for id, p := range cfg.Pipeline {
		if p.UI == "" || p.VCS == "" || p.CI == "" {
			return fmt.Errorf("pipeline %q must set ui, vcs, and ci worker bindings", id)
		}
		if _, ok := cfg.UI[p.UI]; !ok {
			return fmt.Errorf("pipeline %q references unknown ui worker %q", id, p.UI)
		}
		if _, ok := cfg.VCS[p.VCS]; !ok {
			return fmt.Errorf("pipeline %q references unknown vcs worker %q", id, p.VCS)
		}
		if _, ok := cfg.CI[p.CI]; !ok {
			return fmt.Errorf("pipeline %q references unknown ci worker %q", id, p.CI)
		}
		if p.Try != nil {
			if p.Try.UI != "" {
				if _, ok := cfg.UI[p.Try.UI]; !ok {
					return fmt.Errorf("pipeline %q try lane references unknown ui worker %q", id, p.Try.UI)
				}
			}
			if p.Try.VCS != "" {
				if _, ok := cfg.VCS[p.Try.VCS]; !ok {
					return fmt.Errorf("pipeline %q try lane references unknown vcs worker %q", id, p.Try.VCS)
				}
			}
			if p.Try.CI != "" {
				if _, ok := cfg.CI[p.Try.CI]; !ok {
					return fmt.Errorf("pipeline %q try lane references unknown ci worker %q", id, p.Try.CI)
				}
			}
		}
	}
	return nil
}

// ToEngineConfig translates a parsed pipeline section into the engine's own
// Config type, filling in the spec's documented defaults for any zero
// duration/retry-count fields.
func (p PipelineConfig) ToEngineConfig(id string) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.ID = id
	cfg.UIWorkerName = p.UI
	cfg.VCSWorkerName = p.VCS
	cfg.CIWorkerName = p.CI
	if p.DefaultBranch != "" {
		cfg.DefaultBranch = p.DefaultBranch
	}
	if p.StateTimeout != 0 {
		cfg.StateTimeout = p.StateTimeout
	}
	if p.MaxStaleRetries != 0 {
		cfg.MaxStaleRetries = p.MaxStaleRetries
	}
	return cfg
}

// ResolveSecrets resolves every vault:// URI reachable from cfg in place:
// worker private keys, tokens, webhook secrets, the Kafka password, and the
// database URL. Values that are not vault:// URIs are left untouched.
func ResolveSecrets(ctx context.Context, cfg *RootConfig, resolver *secretvault.Resolver) error {
	fields := map[string]*string{
		"database.url":   &cfg.Database.URL,
		"kafka.password": &cfg.Kafka.Password,
	}

	uiCopies := make(map[string]UIWorkerConfig, len(cfg.UI))
	for name, ui := range cfg.UI {
		u := ui
		fields["ui."+name+".private_key"] = &u.PrivateKey
		fields["ui."+name+".webhook_secret"] = &u.WebhookSecret
		uiCopies[name] = u
	}
	vcsCopies := make(map[string]VCSWorkerConfig, len(cfg.VCS))
	for name, vcs := range cfg.VCS {
		v := vcs
		fields["vcs."+name+".auth_token"] = &v.AuthToken
		vcsCopies[name] = v
	}
	ciCopies := make(map[string]CIWorkerConfig, len(cfg.CI))
	for name, ci := range cfg.CI {
		c := ci
		fields["ci."+name+".auth_token"] = &c.AuthToken
		ciCopies[name] = c
	}

	if err := resolver.ResolveAll(ctx, fields); err != nil {
		return fmt.Errorf("resolve secrets: %w", err)
	}

	for name, u := range uiCopies {
		cfg.UI[name] = u
	}
	for name, v := range vcsCopies {
		cfg.VCS[name] = v
	}
	for name, c := range ciCopies {
		cfg.CI[name] = c
	}
	return nil
}
