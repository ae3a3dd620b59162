package dnd5e

import (
	apiEntities "github.com/fadedpez/dnd5e-api/entities"

	"github.com/KirkDiggler/trpg-session-engine/internal/dice"
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// monsterToEnemy maps a 5e stat block onto the session's stat scale.
//
// Armor class becomes defense so that base 10 + defense/2 lands on the AC.
// Attack is the best action's average damage plus its attack bonus, and
// accuracy is the best attack bonus.
func monsterToEnemy(m *apiEntities.Monster, level int) *entities.EnemyCharacter {
	if level < 1 {
		level = 1
	}

	hp := max(1, int(m.HitPoints))
	attack, accuracy := bestAction(m.MonsterActions)

	var skills []string
	for _, a := range m.MonsterActions {
		if a != nil && a.Name != "" {
			skills = append(skills, a.Name)
		}
	}

	return &entities.EnemyCharacter{
		Name:  m.Name,
		Rank:  rankFor(float64(m.ChallengeRating)),
		Type:  m.Type,
		Level: level,
		DerivedStats: entities.Stats{
			HP:       hp,
			Attack:   attack,
			Defense:  max(0, 2*(int(m.ArmorClass)-10)),
			Accuracy: accuracy,
		},
		Status:        entities.EnemyStatus{CurrentHP: hp},
		SpecialSkills: skills,
	}
}

func bestAction(actions []*apiEntities.MonsterAction) (attack, accuracy int) {
	for _, a := range actions {
		if a == nil {
			continue
		}
		bonus := int(a.AttackBonus)
		damage := 0
		for _, d := range a.Damage {
			if d != nil {
				damage += averageDamage(d.DamageDice)
			}
		}
		if damage == 0 {
			continue
		}
		attack = max(attack, damage+bonus)
		accuracy = max(accuracy, bonus)
	}
	if attack == 0 {
		attack = 1
	}
	return attack, accuracy
}

// averageDamage rounds down, e.g. "1d6+2" is 5
func averageDamage(notation string) int {
	count, sides, modifier, err := dice.ParseNotation(notation)
	if err != nil {
		return 0
	}
	return max(0, count*(sides+1)/2+modifier)
}

func rankFor(cr float64) entities.EnemyRank {
	switch {
	case cr >= 17:
		return entities.EnemyRankEXBoss
	case cr >= 10:
		return entities.EnemyRankBoss
	case cr >= 5:
		return entities.EnemyRankMidBoss
	default:
		return entities.EnemyRankMob
	}
}
