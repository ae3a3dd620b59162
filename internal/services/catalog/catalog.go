// Package catalog derives the actions a character may take right now.
// Actions are computed from campaign and session state, never stored.
package catalog

import (
	"strings"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// Action ids
const (
	ActionMove   = "move"
	ActionAttack = "attack"
	ActionTalk   = "talk"
	ActionRest   = "rest"
	ActionChat   = "chat"

	// ExplorePrefix prefixes exploration action ids, e.g. "explore:search-well"
	ExplorePrefix = "explore:"
)

// Disabled reasons
const (
	ReasonLocationUnregistered = "location unregistered"
	ReasonNoLocation           = "no current location"
	ReasonNoEnemies            = "no living enemies here"
	ReasonNoNPCs               = "no NPC present"
	ReasonNoOtherLocation      = "no other registered location"
	ReasonIncapacitated        = "character cannot act"
)

// Action is one entry of the catalog
type Action struct {
	ID             string
	Label          string
	Enabled        bool
	DisabledReason string
}

// ExplorationID returns the exploration action id for an explore:<id> action
func ExplorationID(actionID string) (string, bool) {
	if !strings.HasPrefix(actionID, ExplorePrefix) {
		return "", false
	}
	return strings.TrimPrefix(actionID, ExplorePrefix), true
}

// AvailableActions lists the actions for character. Actions that cannot be
// taken are returned disabled with a reason instead of being omitted.
func AvailableActions(character *entities.Character, state *entities.SessionState, campaign *entities.Campaign) []Action {
	locationID := state.CurrentLocationID

	blocked := ""
	switch {
	case locationID == "":
		blocked = ReasonNoLocation
	case !campaign.IsLocationRegistered(locationID):
		blocked = ReasonLocationUnregistered
	}
	if character != nil && !character.IsConscious() {
		blocked = ReasonIncapacitated
	}

	actions := []Action{
		moveAction(campaign, locationID, blocked),
		attackAction(campaign, locationID, blocked),
		talkAction(campaign, character, locationID, blocked),
		gate(Action{ID: ActionRest, Label: "休息する"}, blocked, ""),
	}
	if locationID != "" {
		actions = append(actions, explorationActions(campaign, locationID, blocked)...)
	}
	actions = append(actions, Action{ID: ActionChat, Label: "自由行動", Enabled: true})
	return actions
}

// Find returns the action with id from actions
func Find(actions []Action, id string) (Action, bool) {
	for _, a := range actions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

func gate(a Action, blocked, reason string) Action {
	switch {
	case blocked != "":
		a.DisabledReason = blocked
	case reason != "":
		a.DisabledReason = reason
	default:
		a.Enabled = true
	}
	return a
}

func moveAction(campaign *entities.Campaign, locationID, blocked string) Action {
	reason := ReasonNoOtherLocation
	for _, b := range campaign.Bases {
		if b.ID != locationID {
			reason = ""
			break
		}
	}
	return gate(Action{ID: ActionMove, Label: "移動する"}, blocked, reason)
}

func attackAction(campaign *entities.Campaign, locationID, blocked string) Action {
	reason := ""
	if len(campaign.LivingEnemiesAt(locationID)) == 0 {
		reason = ReasonNoEnemies
	}
	return gate(Action{ID: ActionAttack, Label: "攻撃する"}, blocked, reason)
}

func talkAction(campaign *entities.Campaign, character *entities.Character, locationID, blocked string) Action {
	reason := ReasonNoNPCs
	for _, ch := range campaign.CharactersAt(locationID) {
		if ch.IsAIControlled() && (character == nil || ch.ID != character.ID) {
			reason = ""
			break
		}
	}
	return gate(Action{ID: ActionTalk, Label: "NPCと話す"}, blocked, reason)
}

// explorationActions lists uncompleted exploration actions of active quests
// and events at the current location
func explorationActions(campaign *entities.Campaign, locationID, blocked string) []Action {
	var out []Action
	seen := make(map[string]bool)

	add := func(owner string, actions []*entities.ExplorationAction) {
		for _, ea := range actions {
			if ea == nil || seen[ea.ID] || campaign.IsExplorationCompleted(ea.ID) {
				continue
			}
			at := owner
			if at == "" {
				at = ea.LocationID
			}
			if at != locationID {
				continue
			}
			seen[ea.ID] = true

			reason := ""
			if ea.LocationID != "" && !campaign.IsLocationRegistered(ea.LocationID) {
				reason = ReasonLocationUnregistered
			}
			out = append(out, gate(Action{ID: ExplorePrefix + ea.ID, Label: ea.Title}, blocked, reason))
		}
	}

	for _, q := range campaign.Quests {
		if q != nil && q.Status == entities.QuestStatusActive {
			add(q.LocationID, q.ExplorationActions)
		}
	}
	for _, e := range campaign.Events {
		if e == nil {
			continue
		}
		add(e.LocationID, e.ExplorationActions)
	}
	return out
}
