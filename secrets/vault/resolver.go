// Package vault resolves "vault://" config values against Vault's KV v2
// secrets engine, built on top of the teacher's vault.VaultClient connection
// setup (AppRole auth, request timeout). Config values that are not
// vault:// URIs pass through unchanged, letting config, bus/kafka, and
// store/clickhouse share one resolution call for every secret-shaped field
// regardless of whether it is backed by Vault, an environment variable, or a
// literal value in the TOML file.
package vault

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	vaultapi "github.com/hashicorp/vault-client-go"

	vaultcore "github.com/MyCarrier-DevOps/pr-merge-sync/vault"
)

const uriScheme = "vault://"

// Resolver resolves vault:// URIs of the form
// "vault://<mount>/<path>?field=<field>" against a KV v2 secrets engine.
type Resolver struct {
	client *vaultapi.Client
}

// NewResolver builds a Resolver by authenticating against Vault using the
// teacher's VaultClient (environment-driven address + optional AppRole).
func NewResolver(ctx context.Context) (*Resolver, error) {
	client, err := vaultcore.VaultClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("build vault client: %w", err)
	}
	return &Resolver{client: client}, nil
}

// NewResolverFromClient wraps an already-authenticated client, used by tests.
func NewResolverFromClient(client *vaultapi.Client) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns raw unchanged unless it carries the vault:// scheme, in
// which case it fetches the referenced field from Vault.
func (r *Resolver) Resolve(ctx context.Context, raw string) (string, error) {
	if !strings.HasPrefix(raw, uriScheme) {
		return raw, nil
	}
	if r == nil || r.client == nil {
		return "", fmt.Errorf("resolve %q: no vault client configured", raw)
	}

	mount, path, field, err := parseURI(raw)
	if err != nil {
		return "", err
	}

	secret, err := r.client.Secrets.KvV2Read(ctx, path, vaultapi.WithMountPath(mount))
	if err != nil {
		return "", fmt.Errorf("read vault secret %q: %w", raw, err)
	}
	value, ok := secret.Data.Data[field]
	if !ok {
		return "", fmt.Errorf("vault secret %q has no field %q", raw, field)
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("vault secret %q field %q is not a string", raw, field)
	}
	return str, nil
}

// ResolveAll resolves every value in fields in place, stopping at the first
// error so config loading fails closed rather than partially resolved.
func (r *Resolver) ResolveAll(ctx context.Context, fields map[string]*string) error {
	for name, ptr := range fields {
		resolved, err := r.Resolve(ctx, *ptr)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		*ptr = resolved
	}
	return nil
}

func parseURI(raw string) (mount, path, field string, err error) {
	u, parseErr := url.Parse(raw)
	if parseErr != nil {
		return "", "", "", fmt.Errorf("parse vault uri %q: %w", raw, parseErr)
	}
	mount = u.Host
	path = strings.TrimPrefix(u.Path, "/")
	field = u.Query().Get("field")
	if mount == "" || path == "" || field == "" {
		return "", "", "", fmt.Errorf("vault uri %q must be vault://<mount>/<path>?field=<field>", raw)
	}
	return mount, path, field, nil
}
