package entities

import (
	"slices"
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignStatusPlanning  CampaignStatus = "planning"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusArchived  CampaignStatus = "archived"
)

// PlayerRange is the recommended number of players
type PlayerRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Campaign owns the roster and world a session is played in
type Campaign struct {
	ID                string         `json:"id"`
	Title             string         `json:"title"`
	GameSystem        string         `json:"game_system"`
	GamemasterID      string         `json:"gamemaster_id"`
	Synopsis          string         `json:"synopsis"`
	Status            CampaignStatus `json:"status"`
	Difficulty        string         `json:"difficulty"`
	TargetPlayers     PlayerRange    `json:"target_players"`
	EstimatedPlayTime int            `json:"estimated_play_time"` // minutes
	TotalPlayTime     int            `json:"total_play_time"`     // minutes

	// StartingLocationID is where a fresh session places the party
	StartingLocationID string `json:"starting_location_id"`

	Characters []*Character      `json:"characters"`
	Enemies    []*EnemyCharacter `json:"enemies"`
	Bases      []*Base           `json:"bases"`
	Quests     []*Quest          `json:"quests"`
	Events     []*TimelineEvent  `json:"events"`
	Milestones []*Milestone      `json:"milestones"`

	// CompletedExplorationIDs records exploration actions the party has finished
	CompletedExplorationIDs []string `json:"completed_exploration_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CampaignSummary is the listing projection of a campaign
type CampaignSummary struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	GameSystem   string         `json:"game_system"`
	GamemasterID string         `json:"gamemaster_id"`
	Status       CampaignStatus `json:"status"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Summary returns the listing projection
func (c *Campaign) Summary() *CampaignSummary {
	return &CampaignSummary{
		ID:           c.ID,
		Title:        c.Title,
		GameSystem:   c.GameSystem,
		GamemasterID: c.GamemasterID,
		Status:       c.Status,
		UpdatedAt:    c.UpdatedAt,
	}
}

// Base is a registered location
type Base struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// QuestStatus represents quest progress
type QuestStatus string

const (
	QuestStatusPlanned   QuestStatus = "planned"
	QuestStatusActive    QuestStatus = "active"
	QuestStatusCompleted QuestStatus = "completed"
	QuestStatusFailed    QuestStatus = "failed"
)

// Quest is an authored objective
type Quest struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Status             QuestStatus          `json:"status"`
	LocationID         string               `json:"location_id"`
	ExplorationActions []*ExplorationAction `json:"exploration_actions"`
}

// TimelineEvent is an authored event on the campaign timeline
type TimelineEvent struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	Day                int                  `json:"day"`
	LocationID         string               `json:"location_id"`
	ExplorationActions []*ExplorationAction `json:"exploration_actions"`
}

// Milestone is an aggregate completion condition
type Milestone struct {
	ID           string                  `json:"id"`
	Title        string                  `json:"title"`
	Requirements []*MilestoneRequirement `json:"requirements"`
}

// Base returns the registered location with id, or nil
func (c *Campaign) Base(id string) *Base {
	if id == "" {
		return nil
	}
	for _, b := range c.Bases {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// IsLocationRegistered reports whether id names a registered base
func (c *Campaign) IsLocationRegistered(id string) bool {
	return c.Base(id) != nil
}

// Character returns the character with id, or nil
func (c *Campaign) Character(id string) *Character {
	for _, ch := range c.Characters {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// Enemy returns the enemy with id, or nil
func (c *Campaign) Enemy(id string) *EnemyCharacter {
	for _, e := range c.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// Milestone returns the milestone with id, or nil
func (c *Campaign) Milestone(id string) *Milestone {
	for _, m := range c.Milestones {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// IsExplorationCompleted reports whether the exploration action id is done
func (c *Campaign) IsExplorationCompleted(id string) bool {
	return slices.Contains(c.CompletedExplorationIDs, id)
}

// MarkExplorationCompleted records id as completed once
func (c *Campaign) MarkExplorationCompleted(id string) {
	if !c.IsExplorationCompleted(id) {
		c.CompletedExplorationIDs = append(c.CompletedExplorationIDs, id)
	}
}

// CharactersAt returns the characters whose location is locationID
func (c *Campaign) CharactersAt(locationID string) []*Character {
	var out []*Character
	for _, ch := range c.Characters {
		if ch.Status.LocationID == locationID {
			out = append(out, ch)
		}
	}
	return out
}

// LivingEnemiesAt returns enemies at locationID that can still be targeted
func (c *Campaign) LivingEnemiesAt(locationID string) []*EnemyCharacter {
	var out []*EnemyCharacter
	for _, e := range c.Enemies {
		if e.IsAlive() && e.Status.LocationID == locationID {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a copy whose characters and enemies can be mutated independently.
// Authored content (bases, quests, events, milestones) is shared.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	out := *c

	out.Characters = make([]*Character, len(c.Characters))
	for i, ch := range c.Characters {
		out.Characters[i] = ch.Clone()
	}
	out.Enemies = make([]*EnemyCharacter, len(c.Enemies))
	for i, e := range c.Enemies {
		out.Enemies[i] = e.Clone()
	}
	out.Bases = slices.Clone(c.Bases)
	out.Quests = slices.Clone(c.Quests)
	out.Events = slices.Clone(c.Events)
	out.Milestones = slices.Clone(c.Milestones)
	out.CompletedExplorationIDs = slices.Clone(c.CompletedExplorationIDs)

	return &out
}
