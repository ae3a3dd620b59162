package entities

// ExplorationActionType categorizes exploration actions
type ExplorationActionType string

const (
	ExplorationInvestigate ExplorationActionType = "investigate"
	ExplorationSearch      ExplorationActionType = "search"
	ExplorationInteract    ExplorationActionType = "interact"
	ExplorationCombat      ExplorationActionType = "combat"
	ExplorationCollect     ExplorationActionType = "collect"
	ExplorationTravel      ExplorationActionType = "travel"
	ExplorationRest        ExplorationActionType = "rest"
	ExplorationOther       ExplorationActionType = "other"
)

// ExplorationDifficulty grades an exploration action
type ExplorationDifficulty string

const (
	DifficultyEasy    ExplorationDifficulty = "easy"
	DifficultyNormal  ExplorationDifficulty = "normal"
	DifficultyHard    ExplorationDifficulty = "hard"
	DifficultyExtreme ExplorationDifficulty = "extreme"
)

// ExplorationPrerequisites gate an exploration action
type ExplorationPrerequisites struct {
	// TimeRequired is in minutes; zero means unspecified
	TimeRequired int `json:"time_required,omitempty"`
}

// ExplorationAction is a discrete investigative or interactive task
type ExplorationAction struct {
	ID            string                   `json:"id"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	ActionType    ExplorationActionType    `json:"action_type"`
	Difficulty    ExplorationDifficulty    `json:"difficulty"`
	Prerequisites ExplorationPrerequisites `json:"prerequisites"`
	LocationID    string                   `json:"location_id,omitempty"`
}

// RequirementType selects which collection a requirement references
type RequirementType string

const (
	RequirementEvents  RequirementType = "events"
	RequirementQuests  RequirementType = "quests"
	RequirementEnemies RequirementType = "enemies"
)

// EnemyRequirement references an enemy encounter
type EnemyRequirement struct {
	EnemyID string `json:"enemy_id"`
	Count   int    `json:"count"`
}

// MilestoneRequirement references exploration sources for the preview
type MilestoneRequirement struct {
	Type              RequirementType    `json:"type"`
	EventIDs          []string           `json:"event_ids,omitempty"`
	QuestIDs          []string           `json:"quest_ids,omitempty"`
	EnemyRequirements []EnemyRequirement `json:"enemy_requirements,omitempty"`
}
