package testutils

import (
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// CreateTestCharacter creates a conscious character at locationID
func CreateTestCharacter(id, name string, role entities.CharacterRole, locationID string) *entities.Character {
	return &entities.Character{
		ID:   id,
		Name: name,
		Role: role,
		Attributes: map[string]int{
			"STR": 12,
			"DEX": 12,
		},
		Stats: entities.Stats{HP: 30, MP: 10, Attack: 12, Defense: 4, Accuracy: 3},
		Status: entities.CharacterStatus{
			CurrentHP:  30,
			CurrentMP:  10,
			LocationID: locationID,
		},
	}
}

// CreateTestEnemy creates a living enemy at locationID
func CreateTestEnemy(id, name string, hp, defense int, locationID string) *entities.EnemyCharacter {
	return &entities.EnemyCharacter{
		ID:           id,
		Name:         name,
		Rank:         entities.EnemyRankMob,
		Type:         "beast",
		Level:        1,
		DerivedStats: entities.Stats{HP: hp, Attack: 6, Defense: defense},
		Status: entities.EnemyStatus{
			CurrentHP:  hp,
			LocationID: locationID,
		},
	}
}

// CreateTestCampaign creates a small campaign: a village with one PC, one NPC
// and a forest with a wolf, plus one active quest
func CreateTestCampaign() *entities.Campaign {
	return &entities.Campaign{
		ID:                 "campaign-fog",
		Title:              "霧の森",
		GameSystem:         "generic",
		GamemasterID:       "gm-1",
		Synopsis:           "A village loses its children to the fog.",
		Status:             entities.CampaignStatusPlanning,
		Difficulty:         "normal",
		TargetPlayers:      entities.PlayerRange{Min: 1, Max: 4},
		StartingLocationID: "village",
		Bases: []*entities.Base{
			{ID: "village", Name: "霧の村", Type: "village"},
			{ID: "forest", Name: "北の森", Type: "wilderness"},
		},
		Characters: []*entities.Character{
			CreateTestCharacter("pc-aki", "Aki", entities.CharacterRolePC, "village"),
			CreateTestCharacter("npc-mira", "Mira", entities.CharacterRoleNPC, "village"),
		},
		Enemies: []*entities.EnemyCharacter{
			CreateTestEnemy("wolf-1", "灰色狼", 12, 2, "forest"),
		},
		Quests: []*entities.Quest{{
			ID:         "quest-lost-child",
			Title:      "消えた子供",
			Status:     entities.QuestStatusActive,
			LocationID: "village",
			ExplorationActions: []*entities.ExplorationAction{{
				ID:            "search-well",
				Title:         "井戸を調べる",
				ActionType:    entities.ExplorationSearch,
				Difficulty:    entities.DifficultyEasy,
				Prerequisites: entities.ExplorationPrerequisites{TimeRequired: 30},
			}},
		}},
		Milestones: []*entities.Milestone{{
			ID:    "milestone-1",
			Title: "霧の正体",
			Requirements: []*entities.MilestoneRequirement{
				{Type: entities.RequirementQuests, QuestIDs: []string{"quest-lost-child"}},
			},
		}},
	}
}
