package discord

import (
	"fmt"
	"strings"
)

const (
	customIDDomain = "trpg"

	// MaxCustomIDLength is Discord's limit for custom IDs
	MaxCustomIDLength = 100
)

// Component actions
const (
	componentAct    = "act"
	componentTarget = "target"
	componentMove   = "move"
)

// CustomID is a parsed component id of the form trpg:<action>[:<target>].
// The target may itself contain colons, e.g. trpg:act:explore:search-well.
type CustomID struct {
	Action string
	Target string
}

// Encode renders the id, failing when it exceeds Discord's limit
func (c CustomID) Encode() (string, error) {
	id := customIDDomain + ":" + c.Action
	if c.Target != "" {
		id += ":" + c.Target
	}
	if len(id) > MaxCustomIDLength {
		return "", fmt.Errorf("custom ID exceeds maximum length of %d characters", MaxCustomIDLength)
	}
	return id, nil
}

// ParseCustomID parses ids produced by Encode
func ParseCustomID(id string) (CustomID, error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 2 || parts[0] != customIDDomain || parts[1] == "" {
		return CustomID{}, fmt.Errorf("invalid custom ID %q", id)
	}

	c := CustomID{Action: parts[1]}
	if len(parts) == 3 {
		c.Target = parts[2]
	}
	return c, nil
}
