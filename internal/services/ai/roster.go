package ai

import (
	"strings"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// rankScale multiplies generated enemy HP and adds to accuracy
var rankScale = map[entities.EnemyRank]struct{ hp, accuracy int }{
	entities.EnemyRankMob:     {hp: 1, accuracy: 0},
	entities.EnemyRankMidBoss: {hp: 2, accuracy: 1},
	entities.EnemyRankBoss:    {hp: 4, accuracy: 2},
	entities.EnemyRankEXBoss:  {hp: 6, accuracy: 3},
}

// ParseRank accepts the Japanese rank names and their English spellings.
// Anything else is a mob.
func ParseRank(s string) entities.EnemyRank {
	switch strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)) {
	case string(entities.EnemyRankMidBoss), "midboss":
		return entities.EnemyRankMidBoss
	case string(entities.EnemyRankBoss), "boss":
		return entities.EnemyRankBoss
	case strings.ToLower(string(entities.EnemyRankEXBoss)), "exboss":
		return entities.EnemyRankEXBoss
	default:
		return entities.EnemyRankMob
	}
}

// EnemyFromEntity builds an enemy from one generated batch entry. Stats are
// derived from level and rank; the entry's level wins over fallbackLevel.
// The caller assigns the ID.
func EnemyFromEntity(e BatchEntity, fallbackLevel int) *entities.EnemyCharacter {
	level := e.Level
	if level < 1 {
		level = max(1, fallbackLevel)
	}
	rank := ParseRank(e.Rank)
	scale := rankScale[rank]

	hp := (10 + 6*level) * scale.hp
	enemy := &entities.EnemyCharacter{
		Name:  strings.TrimSpace(e.Name),
		Rank:  rank,
		Type:  e.Type,
		Level: level,
		DerivedStats: entities.Stats{
			HP:       hp,
			Attack:   4 + 2*level,
			Defense:  level,
			Accuracy: level/2 + scale.accuracy,
		},
		Status: entities.EnemyStatus{CurrentHP: hp},
	}
	if d := strings.TrimSpace(e.Description); d != "" {
		enemy.SpecialSkills = []string{d}
	}
	return enemy
}

// CharacterFromEntity builds an NPC from one generated batch entry.
// Generated characters are always AI-controlled. The caller assigns the ID.
func CharacterFromEntity(e BatchEntity) *entities.Character {
	stats := entities.Stats{HP: 20, MP: 10, Attack: 8, Defense: 3, Accuracy: 2}
	return &entities.Character{
		Name:        strings.TrimSpace(e.Name),
		Role:        entities.CharacterRoleNPC,
		Description: e.Description,
		Attributes:  map[string]int{},
		Stats:       stats,
		Status:      entities.CharacterStatus{CurrentHP: stats.HP, CurrentMP: stats.MP},
	}
}
