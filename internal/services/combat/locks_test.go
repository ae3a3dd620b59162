package combat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/dice"
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
)

func TestResolver_ReleasesTargetLocks(t *testing.T) {
	r := NewResolver(&ResolverConfig{Roller: dice.NewSeededRoller(3)})
	pc := &entities.Character{
		ID:     "pc-1",
		Stats:  entities.Stats{HP: 10, Attack: 5},
		Status: entities.CharacterStatus{CurrentHP: 10, LocationID: "cave"},
	}

	var roster []*entities.EnemyCharacter
	var intents []Intent
	for i := range 50 {
		id := fmt.Sprintf("enemy-%d", i)
		roster = append(roster, &entities.EnemyCharacter{
			ID:           id,
			DerivedStats: entities.Stats{HP: 100},
			Status:       entities.EnemyStatus{CurrentHP: 100, LocationID: "cave"},
		})
		intents = append(intents, Intent{Attacker: pc, TargetID: id}, Intent{Attacker: pc, TargetID: id})
	}

	_, err := r.ResolveAll(context.Background(), intents, roster)
	require.NoError(t, err)
	assert.Equal(t, 0, r.heldLocks())

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			_, _ = r.ResolveAttack(context.Background(), pc, "enemy-0", roster)
		})
	}
	wg.Wait()
	assert.Equal(t, 0, r.heldLocks())

	_, err = r.ResolveAttack(context.Background(), pc, "missing", roster)
	require.Error(t, err)
	assert.Equal(t, 0, r.heldLocks(), "failed lookups do not leave a lock behind")
}
