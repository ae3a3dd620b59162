package entities_test

import (
	"math/rand/v2"
	"testing"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	"github.com/stretchr/testify/assert"
)

func newGoblin() *entities.EnemyCharacter {
	return &entities.EnemyCharacter{
		ID:           "goblin-1",
		Name:         "ゴブリン",
		Rank:         entities.EnemyRankMob,
		DerivedStats: entities.Stats{HP: 45, Attack: 10, Defense: 8},
		Status:       entities.EnemyStatus{CurrentHP: 45, LocationID: "forest"},
	}
}

func TestEnemy_ApplyDamage(t *testing.T) {
	goblin := newGoblin()

	lost := goblin.ApplyDamage(12)
	assert.Equal(t, 12, lost)
	assert.Equal(t, 33, goblin.Status.CurrentHP)
	assert.True(t, goblin.IsAlive())

	lost = goblin.ApplyDamage(100)
	assert.Equal(t, 33, lost)
	assert.Equal(t, 0, goblin.Status.CurrentHP)
	assert.True(t, goblin.Defeated)
	assert.False(t, goblin.IsAlive())
}

func TestEnemy_NegativeDamageIsIgnored(t *testing.T) {
	goblin := newGoblin()
	goblin.Status.CurrentHP = 40

	assert.Equal(t, 0, goblin.ApplyDamage(-5))
	assert.Equal(t, 40, goblin.Status.CurrentHP)
}

func TestEnemy_HPStaysClamped(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for run := 0; run < 200; run++ {
		goblin := newGoblin()
		for step := 0; step < 20; step++ {
			if rng.IntN(2) == 0 {
				goblin.ApplyDamage(rng.IntN(40) - 10)
			} else {
				goblin.SetHP(goblin.Status.CurrentHP + rng.IntN(60) - 20)
			}
			assert.GreaterOrEqual(t, goblin.Status.CurrentHP, 0)
			assert.LessOrEqual(t, goblin.Status.CurrentHP, goblin.DerivedStats.HP)
		}
	}
}

func TestCampaign_CloneIsIndependent(t *testing.T) {
	campaign := &entities.Campaign{
		ID:      "camp-1",
		Enemies: []*entities.EnemyCharacter{newGoblin()},
		Characters: []*entities.Character{
			{ID: "pc-1", Role: entities.CharacterRolePC, Attributes: map[string]int{"str": 10}},
		},
	}

	clone := campaign.Clone()
	clone.Enemies[0].ApplyDamage(10)
	clone.Characters[0].Attributes["str"] = 18
	clone.MarkExplorationCompleted("exp-1")

	assert.Equal(t, 45, campaign.Enemies[0].Status.CurrentHP)
	assert.Equal(t, 10, campaign.Characters[0].Attributes["str"])
	assert.False(t, campaign.IsExplorationCompleted("exp-1"))
	assert.True(t, clone.IsExplorationCompleted("exp-1"))
}

func TestCampaign_LivingEnemiesAt(t *testing.T) {
	dead := newGoblin()
	dead.ID = "goblin-2"
	dead.ApplyDamage(45)
	elsewhere := newGoblin()
	elsewhere.ID = "goblin-3"
	elsewhere.Status.LocationID = "castle"

	campaign := &entities.Campaign{Enemies: []*entities.EnemyCharacter{newGoblin(), dead, elsewhere}}

	living := campaign.LivingEnemiesAt("forest")
	if assert.Len(t, living, 1) {
		assert.Equal(t, "goblin-1", living[0].ID)
	}
}

func TestSessionState_HistoryIsBounded(t *testing.T) {
	state := &entities.SessionState{}
	for i := 1; i <= entities.MaxTurnHistory+5; i++ {
		state.AppendHistory(entities.TurnRecord{Turn: i})
	}

	assert.Len(t, state.History, entities.MaxTurnHistory)
	assert.Equal(t, 6, state.History[0].Turn)
}
