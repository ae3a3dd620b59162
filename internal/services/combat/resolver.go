package combat

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/trpg-session-engine/internal/dice"
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/observe"
)

// DefaultBaseTargetNumber is added to half the target's defense to get the number to beat
const DefaultBaseTargetNumber = 10

// AttackResult is the outcome of one resolved attack
type AttackResult struct {
	AttackerID     string
	Target         *entities.EnemyCharacter
	Roll           *dice.RollResult
	TargetNumber   int
	Outcome        dice.Outcome
	Hit            bool
	Damage         int
	TargetDefeated bool
}

// Summary renders the result as a one-line combat log entry
func (r *AttackResult) Summary(attackerName string) string {
	if !r.Hit {
		return fmt.Sprintf("%s → %s: miss (%s vs %d)", attackerName, r.Target.Name, r.Roll, r.TargetNumber)
	}
	line := fmt.Sprintf("%s → %s: hit for %d (%s vs %d, HP %d/%d)",
		attackerName, r.Target.Name, r.Damage, r.Roll, r.TargetNumber,
		r.Target.Status.CurrentHP, r.Target.DerivedStats.HP)
	if r.TargetDefeated {
		line += ", defeated"
	}
	return line
}

// Intent is an attack declared during a turn
type Intent struct {
	Attacker *entities.Character
	TargetID string
}

// Resolution pairs an intent with its result. Err is set when the target
// could not be attacked; other intents are still resolved.
type Resolution struct {
	Intent Intent
	Result *AttackResult
	Err    error
}

// Resolver resolves attacks against an enemy roster. Mutations to a single
// enemy are serialized; attacks on different enemies may run in parallel.
type Resolver struct {
	roller           dice.Roller
	rollerFor        func(targetID string) dice.Roller
	policy           dice.CriticalPolicy
	baseTargetNumber int
	metrics          *observe.Metrics

	mu    sync.Mutex
	locks map[string]*targetLock
}

// targetLock is dropped from the map once no attack holds or waits on it
type targetLock struct {
	mu   sync.Mutex
	refs int
}

// ResolverConfig holds configuration for the resolver
type ResolverConfig struct {
	Roller dice.Roller // Required

	// RollerFor optionally gives each target its own roller so parallel
	// resolution stays reproducible with seeded sources
	RollerFor func(targetID string) dice.Roller

	Policy           *dice.CriticalPolicy // Optional, defaults to dice.DefaultCriticalPolicy()
	BaseTargetNumber int                  // Optional, defaults to DefaultBaseTargetNumber
	Metrics          *observe.Metrics     // Optional
}

// NewResolver creates a new combat resolver
func NewResolver(cfg *ResolverConfig) *Resolver {
	if cfg.Roller == nil {
		panic("roller is required")
	}

	r := &Resolver{
		roller:           cfg.Roller,
		rollerFor:        cfg.RollerFor,
		policy:           dice.DefaultCriticalPolicy(),
		baseTargetNumber: cfg.BaseTargetNumber,
		metrics:          cfg.Metrics,
		locks:            make(map[string]*targetLock),
	}
	if cfg.Policy != nil {
		r.policy = *cfg.Policy
	}
	if r.baseTargetNumber <= 0 {
		r.baseTargetNumber = DefaultBaseTargetNumber
	}
	return r
}

// TargetNumber is the total an attack roll must reach to hit target
func (r *Resolver) TargetNumber(target *entities.EnemyCharacter) int {
	return r.baseTargetNumber + target.DerivedStats.Defense/2
}

// Damage is the attacker's attack minus the target's defense, never below 1
func Damage(attacker entities.Stats, target entities.Stats) int {
	return max(1, attacker.Attack-target.Defense)
}

// FindTarget returns the living enemy targetID at the attacker's location
func FindTarget(attacker *entities.Character, targetID string, enemies []*entities.EnemyCharacter) (*entities.EnemyCharacter, error) {
	for _, e := range enemies {
		if e.ID != targetID {
			continue
		}
		if !e.IsAlive() || e.Status.LocationID != attacker.Status.LocationID {
			break
		}
		return e, nil
	}
	return nil, dnderr.TargetNotFound(targetID)
}

// ResolveAttack resolves one attack and applies its damage to the target
func (r *Resolver) ResolveAttack(ctx context.Context, attacker *entities.Character, targetID string, enemies []*entities.EnemyCharacter) (*AttackResult, error) {
	return r.resolve(ctx, r.roller, attacker, targetID, enemies)
}

func (r *Resolver) resolve(ctx context.Context, roller dice.Roller, attacker *entities.Character, targetID string, enemies []*entities.EnemyCharacter) (*AttackResult, error) {
	if attacker == nil {
		return nil, dnderr.InvalidArgument("attacker is required")
	}

	unlock := r.lockTarget(targetID)
	defer unlock()

	target, err := FindTarget(attacker, targetID, enemies)
	if err != nil {
		return nil, err
	}

	roll, err := roller.Roll(1, 20, attacker.Stats.Accuracy)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to roll attack for %s", attacker.ID)
	}

	result := &AttackResult{
		AttackerID:   attacker.ID,
		Target:       target,
		Roll:         roll,
		TargetNumber: r.TargetNumber(target),
	}
	result.Outcome = dice.Check(roll, result.TargetNumber, r.policy)
	result.Hit = result.Outcome.IsSuccess()

	if result.Hit {
		result.Damage = Damage(attacker.Stats, target.DerivedStats)
		target.ApplyDamage(result.Damage)
		result.TargetDefeated = !target.IsAlive()
		r.metrics.RecordAttack(ctx, "hit")
	} else {
		r.metrics.RecordAttack(ctx, "miss")
	}

	return result, nil
}

// ResolveAll resolves a turn's attacks. Attacks on the same enemy run one at a
// time in submission order; different enemies are resolved in parallel.
// Results keep submission order. Only dice failures abort the whole batch.
func (r *Resolver) ResolveAll(ctx context.Context, intents []Intent, enemies []*entities.EnemyCharacter) ([]Resolution, error) {
	out := make([]Resolution, len(intents))

	groups := make(map[string][]int)
	var order []string
	for i, intent := range intents {
		out[i].Intent = intent
		if _, ok := groups[intent.TargetID]; !ok {
			order = append(order, intent.TargetID)
		}
		groups[intent.TargetID] = append(groups[intent.TargetID], i)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, targetID := range order {
		indexes := groups[targetID]
		roller := r.roller
		if r.rollerFor != nil {
			roller = r.rollerFor(targetID)
		}

		g.Go(func() error {
			for _, i := range indexes {
				if err := gctx.Err(); err != nil {
					return err
				}
				result, err := r.resolve(gctx, roller, intents[i].Attacker, targetID, enemies)
				if err != nil && !dnderr.Is(err, dnderr.CodeTargetNotFound) && !dnderr.IsInvalidArgument(err) {
					return err
				}
				out[i].Result = result
				out[i].Err = err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// lockTarget serializes attacks on targetID and returns the release func
func (r *Resolver) lockTarget(targetID string) func() {
	r.mu.Lock()
	lock, ok := r.locks[targetID]
	if !ok {
		lock = &targetLock{}
		r.locks[targetID] = lock
	}
	lock.refs++
	r.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		r.mu.Lock()
		defer r.mu.Unlock()
		lock.refs--
		if lock.refs == 0 {
			delete(r.locks, targetID)
		}
	}
}

// heldLocks reports how many targets currently have a lock entry
func (r *Resolver) heldLocks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
