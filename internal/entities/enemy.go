package entities

import (
	"slices"
)

// EnemyRank is a display grouping only; it does not affect turn order
type EnemyRank string

const (
	EnemyRankMob     EnemyRank = "モブ"
	EnemyRankMidBoss EnemyRank = "中ボス"
	EnemyRankBoss    EnemyRank = "ボス"
	EnemyRankEXBoss  EnemyRank = "EXボス"
)

// EnemyStatus is the mutable runtime state of an enemy
type EnemyStatus struct {
	CurrentHP     int      `json:"current_hp"`
	CurrentMP     int      `json:"current_mp"`
	StatusEffects []string `json:"status_effects"`
	LocationID    string   `json:"location_id"`
}

// EnemyCharacter is a hostile combatant
type EnemyCharacter struct {
	ID                 string               `json:"id"`
	Name               string               `json:"name"`
	Rank               EnemyRank            `json:"rank"`
	Type               string               `json:"type"`
	Level              int                  `json:"level"`
	DerivedStats       Stats                `json:"derived_stats"`
	Status             EnemyStatus          `json:"status"`
	SpecialSkills      []string             `json:"special_skills"`
	ExplorationActions []*ExplorationAction `json:"exploration_actions,omitempty"`
	Defeated           bool                 `json:"defeated"`
}

// IsAlive reports whether the enemy can still be targeted
func (e *EnemyCharacter) IsAlive() bool {
	return !e.Defeated && e.Status.CurrentHP > 0
}

// ApplyDamage lowers current HP, clamped to [0, max]. It returns the HP actually lost.
func (e *EnemyCharacter) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := e.Status.CurrentHP
	e.SetHP(before - amount)
	if e.Status.CurrentHP == 0 {
		e.Defeated = true
	}
	return before - e.Status.CurrentHP
}

// SetHP sets current HP, clamped to [0, DerivedStats.HP]
func (e *EnemyCharacter) SetHP(hp int) {
	e.Status.CurrentHP = max(0, min(hp, e.DerivedStats.HP))
}

// Clone returns a deep copy; exploration actions are shared
func (e *EnemyCharacter) Clone() *EnemyCharacter {
	if e == nil {
		return nil
	}
	out := *e
	out.Status.StatusEffects = slices.Clone(e.Status.StatusEffects)
	out.SpecialSkills = slices.Clone(e.SpecialSkills)
	out.ExplorationActions = slices.Clone(e.ExplorationActions)
	return &out
}
