package turn

import (
	"strings"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
)

// ActionKind distinguishes free text from catalog actions
type ActionKind string

const (
	ActionKindChat    ActionKind = "chat"
	ActionKindCatalog ActionKind = "catalog"
)

// PlayerAction is what the acting player submits for a turn
type PlayerAction struct {
	Kind ActionKind

	// ActionID is a catalog action id, e.g. "attack" or "explore:search-well"
	ActionID string

	// Text is the free-text action, or an optional flavour line for catalog actions
	Text string

	// TargetID is the enemy to attack
	TargetID string

	// DestinationID is the base to move to
	DestinationID string
}

// NPCAction is one AI-controlled character's announced action
type NPCAction struct {
	CharacterID string
	Name        string
	Text        string
	Action      string
	TargetID    string
}

// Result is the outcome of SubmitAction
type Result struct {
	// DayAdvanced is set when the submission only advanced the day
	DayAdvanced bool

	Record     *entities.TurnRecord
	Narration  string
	NPCActions []NPCAction
	Combat     []combat.Resolution
	State      *entities.SessionState
}

func (a PlayerAction) describe(label string, target *entities.EnemyCharacter, destination *entities.Base) string {
	if a.Kind == ActionKindChat {
		return strings.TrimSpace(a.Text)
	}

	var b strings.Builder
	b.WriteString(label)
	if target != nil {
		b.WriteString(" → ")
		b.WriteString(target.Name)
	}
	if destination != nil {
		b.WriteString(" → ")
		b.WriteString(destination.Name)
	}
	if text := strings.TrimSpace(a.Text); text != "" {
		b.WriteString(": ")
		b.WriteString(text)
	}
	return b.String()
}
