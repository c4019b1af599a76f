package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePassesThroughNonVaultValues(t *testing.T) {
	var r *Resolver
	got, err := r.Resolve(context.Background(), "plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", got)
}

func TestResolveWithoutClientFailsClosedOnVaultURI(t *testing.T) {
	var r *Resolver
	_, err := r.Resolve(context.Background(), "vault://secret/github/app?field=private_key")
	assert.Error(t, err)
}

func TestParseURI(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		wantMount string
		wantPath  string
		wantField string
		wantErr   bool
	}{
		{"well formed", "vault://secret/github/app?field=private_key", "secret", "github/app", "private_key", false},
		{"missing field", "vault://secret/github/app", "", "", "", true},
		{"missing path", "vault://secret?field=x", "", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mount, path, field, err := parseURI(tc.raw)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantMount, mount)
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, tc.wantField, field)
		})
	}
}

func TestResolveAllStopsOnFirstError(t *testing.T) {
	var r *Resolver
	a, b := "ok-value", "vault://secret/x?field=y"
	err := r.ResolveAll(context.Background(), map[string]*string{"a": &a, "b": &b})
	assert.Error(t, err)
}
