//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startupbase/fundmatch/internal/config"
)

func TestRootCommandTree(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "match")
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "seed")
	assert.Contains(t, names, "catalog")

	var matchSubs []string
	for _, c := range matchCmd.Commands() {
		matchSubs = append(matchSubs, c.Name())
	}
	assert.Equal(t, []string{"banks", "schemes"}, matchSubs)
}

func TestOpenStore_UnsupportedDriver(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Store.Driver = "mysql"

	_, err := openStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestOpenStore_SQLite(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = filepath.Join(t.TempDir(), "fundmatch.db")

	store, err := openStore(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestSectorGroups_Default(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	cfg = &config.Config{}
	groups, err := sectorGroups()
	require.NoError(t, err)
	assert.True(t, groups.Related("fintech", "payments"))
}
