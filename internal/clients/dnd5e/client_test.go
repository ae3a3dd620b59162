package dnd5e

import (
	"context"
	"errors"
	"fmt"
	"testing"

	apiEntities "github.com/fadedpez/dnd5e-api/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

type fakeSource struct {
	monsters map[string]*apiEntities.Monster
	calls    int
	err      error
}

func (f *fakeSource) GetMonster(key string) (*apiEntities.Monster, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.monsters[key], nil
}

type fixedIDs struct{ next int }

func (f *fixedIDs) New() string {
	f.next++
	return fmt.Sprintf("enemy-%d", f.next)
}

func goblin() *apiEntities.Monster {
	return &apiEntities.Monster{
		Key:             "goblin",
		Name:            "Goblin",
		Type:            "humanoid",
		ArmorClass:      15,
		HitPoints:       7,
		ChallengeRating: 0.25,
		MonsterActions: []*apiEntities.MonsterAction{
			{
				Name:        "Scimitar",
				AttackBonus: 4,
				Damage:      []*apiEntities.Damage{{DamageDice: "1d6+2"}},
			},
			{Name: "Nimble Escape"},
		},
	}
}

func newTestImporter(t *testing.T, source *fakeSource) Importer {
	t.Helper()
	imp, err := New(&Config{Source: source, IDs: &fixedIDs{}})
	require.NoError(t, err)
	return imp
}

func TestImporter_Enemy(t *testing.T) {
	source := &fakeSource{monsters: map[string]*apiEntities.Monster{"goblin": goblin()}}
	imp := newTestImporter(t, source)

	enemy, err := imp.Enemy(context.Background(), "goblin", 2)
	require.NoError(t, err)

	assert.Equal(t, "enemy-1", enemy.ID)
	assert.Equal(t, "Goblin", enemy.Name)
	assert.Equal(t, "humanoid", enemy.Type)
	assert.Equal(t, 2, enemy.Level)
	assert.Equal(t, entities.EnemyRankMob, enemy.Rank)
	assert.Equal(t, entities.Stats{HP: 7, Attack: 9, Defense: 10, Accuracy: 4}, enemy.DerivedStats)
	assert.Equal(t, 7, enemy.Status.CurrentHP)
	assert.Equal(t, []string{"Scimitar", "Nimble Escape"}, enemy.SpecialSkills)
	assert.True(t, enemy.IsAlive())
}

func TestImporter_CachesMonsters(t *testing.T) {
	source := &fakeSource{monsters: map[string]*apiEntities.Monster{"goblin": goblin()}}
	imp := newTestImporter(t, source)

	first, err := imp.Enemy(context.Background(), "goblin", 1)
	require.NoError(t, err)
	second, err := imp.Enemy(context.Background(), "goblin", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, source.calls)
	assert.NotEqual(t, first.ID, second.ID)

	second.Status.CurrentHP = 0
	assert.Equal(t, 7, first.Status.CurrentHP)
}

func TestImporter_Errors(t *testing.T) {
	imp := newTestImporter(t, &fakeSource{monsters: map[string]*apiEntities.Monster{}})

	_, err := imp.Enemy(context.Background(), "tarrasque", 1)
	assert.True(t, dnderr.IsNotFound(err))

	_, err = imp.Enemy(context.Background(), "", 1)
	assert.True(t, dnderr.IsInvalidArgument(err))

	broken := newTestImporter(t, &fakeSource{err: errors.New("connection refused")})
	_, err = broken.Enemy(context.Background(), "goblin", 1)
	assert.Equal(t, dnderr.CodeUnavailable, dnderr.GetCode(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = imp.Enemy(ctx, "goblin", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMonsterToEnemy_Scaling(t *testing.T) {
	tests := []struct {
		name    string
		ac      int
		cr      float32
		wantDef int
		want    entities.EnemyRank
	}{
		{name: "soft", ac: 8, cr: 0, wantDef: 0, want: entities.EnemyRankMob},
		{name: "mid boss", ac: 16, cr: 5, wantDef: 12, want: entities.EnemyRankMidBoss},
		{name: "boss", ac: 18, cr: 13, wantDef: 16, want: entities.EnemyRankBoss},
		{name: "ex boss", ac: 22, cr: 21, wantDef: 24, want: entities.EnemyRankEXBoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := goblin()
			m.ArmorClass = tt.ac
			m.ChallengeRating = tt.cr

			enemy := monsterToEnemy(m, 0)
			assert.Equal(t, tt.wantDef, enemy.DerivedStats.Defense)
			assert.Equal(t, tt.want, enemy.Rank)
			assert.Equal(t, 1, enemy.Level)
		})
	}
}

func TestMonsterToEnemy_NoDamagingActions(t *testing.T) {
	m := goblin()
	m.MonsterActions = nil
	m.HitPoints = 0

	enemy := monsterToEnemy(m, 1)
	assert.Equal(t, 1, enemy.DerivedStats.Attack)
	assert.Equal(t, 0, enemy.DerivedStats.Accuracy)
	assert.Equal(t, 1, enemy.DerivedStats.HP)
}

func TestAverageDamage(t *testing.T) {
	assert.Equal(t, 5, averageDamage("1d6+2"))
	assert.Equal(t, 7, averageDamage("2d6"))
	assert.Equal(t, 0, averageDamage("1d4-5"))
	assert.Equal(t, 0, averageDamage("special"))
}
