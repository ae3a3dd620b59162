package entities

import (
	"maps"
	"slices"
)

// CharacterRole distinguishes player characters from non-player characters
type CharacterRole string

const (
	CharacterRolePC  CharacterRole = "PC"
	CharacterRoleNPC CharacterRole = "NPC"
)

// Stats are the derived combat statistics shared by characters and enemies
type Stats struct {
	HP       int `json:"hp"`
	MP       int `json:"mp"`
	Attack   int `json:"attack"`
	Defense  int `json:"defense"`
	Accuracy int `json:"accuracy"`
}

// CharacterStatus is the mutable runtime state of a character
type CharacterStatus struct {
	CurrentHP     int      `json:"current_hp"`
	CurrentMP     int      `json:"current_mp"`
	StatusEffects []string `json:"status_effects"`
	LocationID    string   `json:"location_id"`
}

// Character is a PC or NPC in a campaign
type Character struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Role        CharacterRole   `json:"role"`
	PlayerID    string          `json:"player_id,omitempty"` // Discord user controlling a PC
	Description string          `json:"description"`
	Attributes  map[string]int  `json:"attributes"`
	Stats       Stats           `json:"stats"`
	Status      CharacterStatus `json:"status"`
}

// IsPlayerCharacter reports whether the character is player-controlled
func (c *Character) IsPlayerCharacter() bool {
	return c.Role == CharacterRolePC
}

// IsAIControlled reports whether the AI acts for this character
func (c *Character) IsAIControlled() bool {
	return c.Role == CharacterRoleNPC
}

// IsConscious reports whether the character can act
func (c *Character) IsConscious() bool {
	return c.Stats.HP == 0 || c.Status.CurrentHP > 0
}

// Clone returns a deep copy
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := *c
	out.Attributes = maps.Clone(c.Attributes)
	out.Status.StatusEffects = slices.Clone(c.Status.StatusEffects)
	return &out
}
