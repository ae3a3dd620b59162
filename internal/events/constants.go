package events

// Event type constants
const (
	EventTypeStateChanged  EventType = "session.state_changed"
	EventTypeTurnCompleted EventType = "session.turn_completed"
	EventTypeDayAdvanced   EventType = "session.day_advanced"
	EventTypeSessionEnded  EventType = "session.ended"
	EventTypeEnemyDefeated EventType = "combat.enemy_defeated"
)

// Priority levels for listener ordering
const (
	PriorityPersistence  = 0   // Snapshot stores run first
	PriorityDefault      = 100 // Most subscribers
	PriorityPresentation = 200 // UI refreshes see persisted state
)
