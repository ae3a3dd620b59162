package ai_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
)

func TestParseRank(t *testing.T) {
	tests := []struct {
		in   string
		want entities.EnemyRank
	}{
		{"モブ", entities.EnemyRankMob},
		{"中ボス", entities.EnemyRankMidBoss},
		{"Mid Boss", entities.EnemyRankMidBoss},
		{"ボス", entities.EnemyRankBoss},
		{"boss", entities.EnemyRankBoss},
		{"EXボス", entities.EnemyRankEXBoss},
		{"ex-boss", entities.EnemyRankEXBoss},
		{"", entities.EnemyRankMob},
		{"dragon lord", entities.EnemyRankMob},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ai.ParseRank(tt.in))
		})
	}
}

func TestEnemyFromEntity(t *testing.T) {
	boss := ai.EnemyFromEntity(ai.BatchEntity{
		Name:        " 霧の魔物 ",
		Rank:        "ボス",
		Type:        "aberration",
		Level:       3,
		Description: "霧を吐く",
	}, 1)

	assert.Empty(t, boss.ID)
	assert.Equal(t, "霧の魔物", boss.Name)
	assert.Equal(t, entities.EnemyRankBoss, boss.Rank)
	assert.Equal(t, "aberration", boss.Type)
	assert.Equal(t, entities.Stats{HP: 112, Attack: 10, Defense: 3, Accuracy: 3}, boss.DerivedStats)
	assert.Equal(t, 112, boss.Status.CurrentHP)
	assert.Equal(t, []string{"霧を吐く"}, boss.SpecialSkills)
	assert.True(t, boss.IsAlive())

	mob := ai.EnemyFromEntity(ai.BatchEntity{Name: "子鬼"}, 0)
	assert.Equal(t, 1, mob.Level, "level never drops below 1")
	assert.Equal(t, 16, mob.DerivedStats.HP)
	assert.Empty(t, mob.SpecialSkills)

	assert.Equal(t, 4, ai.EnemyFromEntity(ai.BatchEntity{Name: "子鬼"}, 4).Level)
}

func TestCharacterFromEntity(t *testing.T) {
	ch := ai.CharacterFromEntity(ai.BatchEntity{Name: "旅の商人", Role: "PC", Description: "荷車を引く老人"})

	assert.Empty(t, ch.ID)
	assert.Equal(t, "旅の商人", ch.Name)
	assert.Equal(t, entities.CharacterRoleNPC, ch.Role)
	assert.Equal(t, "荷車を引く老人", ch.Description)
	assert.Equal(t, ch.Stats.HP, ch.Status.CurrentHP)
	assert.Equal(t, ch.Stats.MP, ch.Status.CurrentMP)
	assert.True(t, ch.IsConscious())
}
