package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/humus-dev/humus/internal/config"
	"github.com/humus-dev/humus/pkg/snapshot"
	"github.com/humus-dev/humus/pkg/vdom"
)

func TestLoadConfig(t *testing.T) {
	missing := filepath.Join(t.TempDir(), config.ConfigFileName)

	cfg, err := loadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)

	_, err = loadConfig(missing, true)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")

	ctx := context.Background()
	cfg := config.New()

	store, err := openStore(ctx, cfg)
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Snapshot.Backend = config.BackendMemory
	store, err = openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.MemoryStore{}, store)

	cfg.Snapshot.Backend = config.BackendS3
	cfg.Snapshot.Bucket = "trees"
	store, err = openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &snapshot.S3Store{}, store)

	cfg.Snapshot.Profile = "missing"
	_, err = openStore(ctx, cfg)
	assert.Error(t, err)

	cfg.Snapshot.Backend = "ftp"
	_, err = openStore(ctx, cfg)
	assert.Error(t, err)
}

func TestBoardIsValid(t *testing.T) {
	for tick := 0; tick < 20; tick++ {
		assert.NoError(t, vdom.Validate(board(tick)), "tick %d", tick)
	}
	assert.False(t, vdom.Equal(board(0), board(1)))
}
