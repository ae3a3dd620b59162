//go:build integration
// +build integration

package dnd5e_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/clients/dnd5e"
)

func TestImporter_Goblin_Integration(t *testing.T) {
	// This test requires network access to the D&D 5e API
	imp, err := dnd5e.New(&dnd5e.Config{HttpClient: http.DefaultClient})
	require.NoError(t, err)

	enemy, err := imp.Enemy(context.Background(), "goblin", 1)
	require.NoError(t, err)

	assert.Equal(t, "Goblin", enemy.Name)
	assert.Greater(t, enemy.DerivedStats.HP, 0)
	assert.Greater(t, enemy.DerivedStats.Attack, 0)
	assert.NotEmpty(t, enemy.ID)
}
