package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

// fakeClock hands out strictly increasing times
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
}

// runRepositoryContract exercises behaviour every Repository must share
func runRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	_, err := repo.Load(ctx, "missing")
	require.Error(t, err)
	assert.True(t, dnderr.IsNotFound(err))

	fog := &entities.Campaign{
		ID: "fog", Title: "霧の森", GameSystem: "generic", GamemasterID: "gm-1",
		Status: entities.CampaignStatusPlanning,
		Characters: []*entities.Character{{
			ID: "pc-1", Name: "Aki", Role: entities.CharacterRolePC,
			Stats: entities.Stats{HP: 20}, Status: entities.CharacterStatus{CurrentHP: 20},
		}},
	}
	ruins := &entities.Campaign{ID: "ruins", Title: "Ruins", GamemasterID: "gm-2", Status: entities.CampaignStatusActive}
	require.NoError(t, repo.Save(ctx, fog))
	require.NoError(t, repo.Save(ctx, ruins))
	assert.False(t, fog.CreatedAt.IsZero())

	loaded, err := repo.Load(ctx, "fog")
	require.NoError(t, err)
	assert.Equal(t, "霧の森", loaded.Title)
	require.Len(t, loaded.Characters, 1)
	assert.Equal(t, 20, loaded.Characters[0].Status.CurrentHP)

	// mutating a loaded campaign does not touch the store
	loaded.Characters[0].Status.CurrentHP = 1
	again, err := repo.Load(ctx, "fog")
	require.NoError(t, err)
	assert.Equal(t, 20, again.Characters[0].Status.CurrentHP)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ruins", all[0].ID, "most recently updated first")
	assert.Equal(t, "generic", all[1].GameSystem)

	mine, err := repo.List(ctx, "gm-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "fog", mine[0].ID)

	require.NoError(t, repo.Archive(ctx, "fog"))
	archived, err := repo.Load(ctx, "fog")
	require.NoError(t, err)
	assert.Equal(t, entities.CampaignStatusArchived, archived.Status)

	require.NoError(t, repo.Delete(ctx, "ruins"))
	_, err = repo.Load(ctx, "ruins")
	assert.True(t, dnderr.IsNotFound(err))
	assert.True(t, dnderr.IsNotFound(repo.Delete(ctx, "ruins")))

	none, err := repo.List(ctx, "gm-2")
	require.NoError(t, err)
	assert.Empty(t, none)

	assert.True(t, dnderr.IsInvalidArgument(repo.Save(ctx, &entities.Campaign{})))
}

func TestInMemoryRepository(t *testing.T) {
	repo := NewInMemoryRepository()
	repo.(*inMemoryRepository).now = newClock().Now
	runRepositoryContract(t, repo)
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	repo.now = newClock().Now

	runRepositoryContract(t, repo)
}

func TestSQLiteRepository_File(t *testing.T) {
	path := t.TempDir() + "/campaigns.db"
	repo, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), &entities.Campaign{ID: "c1", Title: "persisted"}))
	require.NoError(t, repo.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.Load(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "persisted", loaded.Title)
}

func TestOpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}
