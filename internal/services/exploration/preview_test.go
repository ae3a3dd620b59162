package exploration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/exploration"
)

func action(id string, typ entities.ExplorationActionType, minutes int) *entities.ExplorationAction {
	return &entities.ExplorationAction{
		ID:            id,
		Title:         id,
		ActionType:    typ,
		Difficulty:    entities.DifficultyNormal,
		Prerequisites: entities.ExplorationPrerequisites{TimeRequired: minutes},
	}
}

func fixtures() ([]*entities.TimelineEvent, []*entities.Quest, []*entities.EnemyCharacter) {
	shared := action("search-square", entities.ExplorationSearch, 120)

	events := []*entities.TimelineEvent{{
		ID:                 "festival",
		ExplorationActions: []*entities.ExplorationAction{shared, action("talk-bard", entities.ExplorationInteract, 0)},
	}}
	quests := []*entities.Quest{{
		ID: "lost-child",
		ExplorationActions: []*entities.ExplorationAction{
			{ID: "search-square", Title: "quest copy", ActionType: entities.ExplorationOther, Prerequisites: entities.ExplorationPrerequisites{TimeRequired: 5}},
			action("walk-forest", entities.ExplorationTravel, 240),
		},
	}}
	enemies := []*entities.EnemyCharacter{{
		ID:                 "wolf-pack",
		ExplorationActions: []*entities.ExplorationAction{action("track-wolves", entities.ExplorationInvestigate, 90)},
	}}
	return events, quests, enemies
}

func TestPreview_DedupAcrossRequirements(t *testing.T) {
	events, quests, enemies := fixtures()
	reqs := []*entities.MilestoneRequirement{
		{Type: entities.RequirementEvents, EventIDs: []string{"festival"}},
		{Type: entities.RequirementEvents, EventIDs: []string{"festival"}},
	}

	p := exploration.NewTracker(nil).Preview(reqs, events, quests, enemies)

	require.Equal(t, 2, p.TotalActions)
	ids := []string{p.Actions[0].Action.ID, p.Actions[1].Action.ID}
	assert.Equal(t, []string{"search-square", "talk-bard"}, ids)
	assert.Equal(t, 180, p.TotalMinutes)
	assert.Equal(t, 1, p.EstimatedDays)
}

func TestPreview_EventsWinOverQuests(t *testing.T) {
	events, quests, enemies := fixtures()
	// quests listed first still lose to events
	reqs := []*entities.MilestoneRequirement{
		{Type: entities.RequirementEnemies, EnemyRequirements: []entities.EnemyRequirement{{EnemyID: "wolf-pack", Count: 3}}},
		{Type: entities.RequirementQuests, QuestIDs: []string{"lost-child"}},
		{Type: entities.RequirementEvents, EventIDs: []string{"festival"}},
	}

	p := exploration.NewTracker(nil).Preview(reqs, events, quests, enemies)

	require.Equal(t, 4, p.TotalActions)
	assert.Equal(t, exploration.Source{Type: entities.RequirementEvents, ID: "festival"}, p.Actions[0].Source)
	assert.Equal(t, 120, p.Actions[0].Minutes)
	assert.Equal(t, "walk-forest", p.Actions[2].Action.ID)
	assert.Equal(t, "track-wolves", p.Actions[3].Action.ID)

	// 120 + 60 (default) + 240 + 90
	assert.Equal(t, 510, p.TotalMinutes)
	assert.Equal(t, 2, p.EstimatedDays)
	assert.Equal(t, map[entities.ExplorationActionType]int{
		entities.ExplorationSearch:      1,
		entities.ExplorationInteract:    1,
		entities.ExplorationTravel:      1,
		entities.ExplorationInvestigate: 1,
	}, p.ActionsByType)
}

func TestPreview_Unresolved(t *testing.T) {
	events, quests, enemies := fixtures()
	reqs := []*entities.MilestoneRequirement{
		{Type: entities.RequirementQuests, QuestIDs: []string{"missing"}},
	}

	p := exploration.NewTracker(nil).Preview(reqs, events, quests, enemies)
	assert.Equal(t, 0, p.TotalActions)
	assert.Equal(t, 0, p.EstimatedDays)
	assert.Equal(t, []exploration.Source{{Type: entities.RequirementQuests, ID: "missing"}}, p.Unresolved)
}

func TestPreview_DoesNotMutate(t *testing.T) {
	events, quests, enemies := fixtures()
	reqs := []*entities.MilestoneRequirement{{Type: entities.RequirementEvents, EventIDs: []string{"festival"}}}

	exploration.NewTracker(nil).Preview(reqs, events, quests, enemies)
	assert.Equal(t, 0, events[0].ExplorationActions[1].Prerequisites.TimeRequired)
}

func TestPreview_CustomDay(t *testing.T) {
	events, quests, enemies := fixtures()
	reqs := []*entities.MilestoneRequirement{{Type: entities.RequirementEvents, EventIDs: []string{"festival"}}}

	p := exploration.NewTracker(&exploration.Options{DefaultActionMinutes: 30, MinutesPerDay: 60}).
		Preview(reqs, events, quests, enemies)
	assert.Equal(t, 150, p.TotalMinutes)
	assert.Equal(t, 3, p.EstimatedDays)
}

func TestPreview_SkipsNilEntries(t *testing.T) {
	events, quests, enemies := fixtures()
	events = append([]*entities.TimelineEvent{nil}, events...)
	quests = append(quests, nil)
	enemies = append([]*entities.EnemyCharacter{nil}, enemies...)
	reqs := []*entities.MilestoneRequirement{
		{Type: entities.RequirementEvents, EventIDs: []string{"festival"}},
		{Type: entities.RequirementQuests, QuestIDs: []string{"lost-child"}},
		{Type: entities.RequirementEnemies, EnemyRequirements: []entities.EnemyRequirement{{EnemyID: "wolf-pack", Count: 1}}},
	}

	var p *exploration.Preview
	require.NotPanics(t, func() {
		p = exploration.NewTracker(nil).Preview(reqs, events, quests, enemies)
	})
	assert.Equal(t, 4, p.TotalActions)
	assert.Empty(t, p.Unresolved)
}
