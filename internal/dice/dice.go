package dice

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
)

// SupportedSides lists the die sizes the resolver accepts
var SupportedSides = []int{4, 6, 8, 10, 12, 20, 100}

// ValidateSpec fails with CodeInvalidDiceSpec for unsupported sizes or counts below one
func ValidateSpec(count, sides int) error {
	if count < 1 {
		return dnderr.InvalidDiceSpecf("invalid dice count %d", count).
			WithMeta("count", count)
	}
	if !slices.Contains(SupportedSides, sides) {
		return dnderr.InvalidDiceSpecf("unsupported die size d%d", sides).
			WithMeta("sides", sides)
	}
	return nil
}

// ParseNotation parses strings like "2d6", "1d20+5" or "3d8-2"
func ParseNotation(notation string) (count, sides, modifier int, err error) {
	spec := strings.ToLower(strings.ReplaceAll(notation, " ", ""))

	dice := spec
	if idx := strings.LastIndexAny(spec, "+-"); idx > 0 {
		modifier, err = strconv.Atoi(spec[idx:])
		if err != nil {
			return 0, 0, 0, dnderr.InvalidDiceSpecf("invalid dice string %q", notation)
		}
		dice = spec[:idx]
	}

	parts := strings.Split(dice, "d")
	if len(parts) != 2 {
		return 0, 0, 0, dnderr.InvalidDiceSpecf("invalid dice string %q", notation)
	}

	count = 1
	if parts[0] != "" {
		count, err = strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, 0, dnderr.InvalidDiceSpecf("invalid dice string %q", notation)
		}
	}
	sides, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, dnderr.InvalidDiceSpecf("invalid dice string %q", notation)
	}

	if err := ValidateSpec(count, sides); err != nil {
		return 0, 0, 0, err
	}
	return count, sides, modifier, nil
}

// RollNotation parses notation and rolls it with roller
func RollNotation(roller Roller, notation string) (*RollResult, error) {
	count, sides, modifier, err := ParseNotation(notation)
	if err != nil {
		return nil, err
	}
	return roller.Roll(count, sides, modifier)
}

// String renders the roll as "2d6+3 [4 5] = 12"
func (r *RollResult) String() string {
	mod := ""
	switch {
	case r.Modifier > 0:
		mod = fmt.Sprintf("+%d", r.Modifier)
	case r.Modifier < 0:
		mod = strconv.Itoa(r.Modifier)
	}
	return fmt.Sprintf("%dd%d%s %v = %d", r.Count, r.Sides, mod, r.Rolls, r.Total)
}
