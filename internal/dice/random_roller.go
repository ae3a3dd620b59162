package dice

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
	"sync"
)

// randomRoller implements Roller over an injected random source
type randomRoller struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewRoller creates a roller over src. Rollers built from equal seeds produce equal sequences.
func NewRoller(src mrand.Source) Roller {
	return &randomRoller{rng: mrand.New(src)}
}

// NewSeededRoller creates a deterministic roller for the given seed
func NewSeededRoller(seed uint64) Roller {
	return NewRoller(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomRoller creates a roller seeded from crypto/rand
func NewRandomRoller() Roller {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return NewSeededRoller(binary.LittleEndian.Uint64(b[:]))
}

// Roll implements Roller.Roll
func (r *randomRoller) Roll(count, sides, modifier int) (*RollResult, error) {
	if err := ValidateSpec(count, sides); err != nil {
		return nil, err
	}

	rolls := make([]int, count)
	total := modifier

	r.mu.Lock()
	for i := range rolls {
		rolls[i] = r.rng.IntN(sides) + 1
		total += rolls[i]
	}
	r.mu.Unlock()

	return &RollResult{
		Rolls:    rolls,
		Total:    total,
		Modifier: modifier,
		Count:    count,
		Sides:    sides,
	}, nil
}
