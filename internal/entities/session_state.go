package entities

import (
	"slices"
	"time"
)

// TurnPhase is the state of the turn state machine
type TurnPhase string

const (
	PhaseAwaitingCharacterSelection TurnPhase = "AwaitingCharacterSelection"
	PhaseAwaitingPlayerAction       TurnPhase = "AwaitingPlayerAction"
	PhaseNarrationPending           TurnPhase = "NarrationPending"
	PhaseResolvingNPCActions        TurnPhase = "ResolvingNPCActions"
	PhaseResolvingCombat            TurnPhase = "ResolvingCombat"
	PhaseTurnSummary                TurnPhase = "TurnSummary"
	PhaseDayAdvance                 TurnPhase = "DayAdvance"
)

// DefaultMaxActionsPerDay is used when a session does not configure a budget
const DefaultMaxActionsPerDay = 3

// MaxTurnHistory bounds the recaps kept in a session
const MaxTurnHistory = 20

// TurnRecord is the recap of one completed turn
type TurnRecord struct {
	Turn        int      `json:"turn"`
	Day         int      `json:"day"`
	CharacterID string   `json:"character_id"`
	Action      string   `json:"action"`
	Narration   string   `json:"narration"`
	NPCActions  []string `json:"npc_actions,omitempty"`
	Combat      []string `json:"combat,omitempty"`
	Summary     string   `json:"summary"`
}

// SessionState is the mutable snapshot owned by the turn orchestrator
type SessionState struct {
	SessionID           string       `json:"session_id"`
	CampaignID          string       `json:"campaign_id"`
	CurrentDay          int          `json:"current_day"`
	ActionCount         int          `json:"action_count"`
	MaxActionsPerDay    int          `json:"max_actions_per_day"`
	CurrentLocationID   string       `json:"current_location_id"`
	SelectedCharacterID string       `json:"selected_character_id"`
	TurnNumber          int          `json:"turn_number"`
	Phase               TurnPhase    `json:"phase"`
	LastError           string       `json:"last_error,omitempty"`
	History             []TurnRecord `json:"history,omitempty"`
	StartedAt           time.Time    `json:"started_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// NewSessionState creates the initial state for a campaign
func NewSessionState(sessionID string, campaign *Campaign, maxActionsPerDay int, now time.Time) *SessionState {
	if maxActionsPerDay < 1 {
		maxActionsPerDay = DefaultMaxActionsPerDay
	}
	state := &SessionState{
		SessionID:        sessionID,
		CurrentDay:       1,
		MaxActionsPerDay: maxActionsPerDay,
		Phase:            PhaseAwaitingCharacterSelection,
		StartedAt:        now,
		UpdatedAt:        now,
	}
	if campaign != nil {
		state.CampaignID = campaign.ID
		state.CurrentLocationID = campaign.StartingLocationID
	}
	return state
}

// DayBudgetExhausted reports whether the day has no actions left
func (s *SessionState) DayBudgetExhausted() bool {
	return s.ActionCount >= s.MaxActionsPerDay
}

// AppendHistory adds a recap, keeping at most MaxTurnHistory entries
func (s *SessionState) AppendHistory(record TurnRecord) {
	s.History = append(s.History, record)
	if over := len(s.History) - MaxTurnHistory; over > 0 {
		s.History = slices.Clone(s.History[over:])
	}
}

// Clone returns a deep copy
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.History = make([]TurnRecord, len(s.History))
	for i, h := range s.History {
		h.NPCActions = slices.Clone(h.NPCActions)
		h.Combat = slices.Clone(h.Combat)
		out.History[i] = h
	}
	return &out
}
