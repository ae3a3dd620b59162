package dice

//go:generate mockgen -destination=mock/mock_roller.go -package=mockdice -source=roller.go

// Roller provides an interface for rolling dice
// This allows us to inject different implementations for testing
type Roller interface {
	// Roll rolls count dice with the given sides and adds modifier to the sum
	Roll(count, sides, modifier int) (*RollResult, error)
}

// RollResult contains detailed information about a dice roll
type RollResult struct {
	Rolls    []int // Individual die results, each in [1, Sides]
	Total    int   // Sum of all dice plus modifier
	Modifier int
	Count    int
	Sides    int
}

// Natural returns the sum of the dice without the modifier
func (r *RollResult) Natural() int {
	return r.Total - r.Modifier
}
