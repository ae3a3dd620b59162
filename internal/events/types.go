package events

import (
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

// EventType represents the type of session event
type EventType string

// Event is the base interface for all session events
type Event interface {
	GetType() EventType
	GetSessionID() string
	IsCancelled() bool
	Cancel()
}

// BaseEvent provides common implementation for all events
type BaseEvent struct {
	Type      EventType
	SessionID string
	Cancelled bool
}

func (e *BaseEvent) GetType() EventType   { return e.Type }
func (e *BaseEvent) GetSessionID() string { return e.SessionID }
func (e *BaseEvent) IsCancelled() bool    { return e.Cancelled }
func (e *BaseEvent) Cancel()              { e.Cancelled = true }

// StateChangedEvent carries a snapshot of the session after any transition
type StateChangedEvent struct {
	BaseEvent
	Previous entities.TurnPhase
	State    *entities.SessionState
}

// TurnCompletedEvent is emitted after a turn summary
type TurnCompletedEvent struct {
	BaseEvent
	Record entities.TurnRecord
}

// DayAdvancedEvent is emitted when the day counter moves forward
type DayAdvancedEvent struct {
	BaseEvent
	Day int
}

// SessionEndedEvent is emitted when a session ends or resets
type SessionEndedEvent struct {
	BaseEvent
	Reason string
}

// EnemyDefeatedEvent is emitted when combat brings an enemy to zero HP
type EnemyDefeatedEvent struct {
	BaseEvent
	EnemyID    string
	EnemyName  string
	AttackerID string
}

// NewStateChanged builds a StateChangedEvent
func NewStateChanged(previous entities.TurnPhase, state *entities.SessionState) *StateChangedEvent {
	return &StateChangedEvent{
		BaseEvent: BaseEvent{Type: EventTypeStateChanged, SessionID: state.SessionID},
		Previous:  previous,
		State:     state,
	}
}
