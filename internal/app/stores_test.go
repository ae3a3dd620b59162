package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/config"
	"github.com/KirkDiggler/trpg-session-engine/internal/testutils"
)

func TestOpenStores_Memory(t *testing.T) {
	stores, err := OpenStores(context.Background(), &config.Config{}, nil)
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, "memory", stores.Backend)
	assert.NotNil(t, stores.Campaigns)
	assert.NotNil(t, stores.States)
}

func TestOpenStores_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{SQLitePath: filepath.Join(t.TempDir(), "campaigns.db")}

	stores, err := OpenStores(ctx, cfg, nil)
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, "sqlite", stores.Backend)
	require.NoError(t, stores.Campaigns.Save(ctx, testutils.CreateTestCampaign()))
	loaded, err := stores.Campaigns.Load(ctx, "campaign-fog")
	require.NoError(t, err)
	assert.Equal(t, "campaign-fog", loaded.ID)
}

func TestOpenStores_UnreachableRedisFallsBack(t *testing.T) {
	cfg := &config.Config{}
	cfg.Redis.URL = "redis://127.0.0.1:1/0"

	stores, err := OpenStores(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer stores.Close()

	assert.Equal(t, "memory", stores.Backend)
}
