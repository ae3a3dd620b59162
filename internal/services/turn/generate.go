package turn

import (
	"context"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
)

// GenerateEnemies asks the AI for enemies matching hint at the party's
// location. Nothing is added to the roster; pass the results to SpawnEnemy.
// AI failures are returned as ai_api_error.
func (o *Orchestrator) GenerateEnemies(ctx context.Context, hint string, level int) ([]*entities.EnemyCharacter, error) {
	batch, err := o.generate(ctx, ai.RequestEnemyGeneration, hint)
	if err != nil {
		return nil, err
	}

	var out []*entities.EnemyCharacter
	for _, e := range batch.Entities() {
		enemy := ai.EnemyFromEntity(e, level)
		if enemy.Name == "" {
			continue
		}
		enemy.ID = "enemy-" + o.ids.New()
		out = append(out, enemy)
	}
	if len(out) == 0 {
		return nil, dnderr.NotFoundf("no enemy generated for %q", hint)
	}
	return out, nil
}

// GenerateCharacters asks the AI for NPCs matching hint. Nothing is added to
// the roster; pass the results to AddCharacter.
func (o *Orchestrator) GenerateCharacters(ctx context.Context, hint string) ([]*entities.Character, error) {
	batch, err := o.generate(ctx, ai.RequestCharacterGeneration, hint)
	if err != nil {
		return nil, err
	}

	var out []*entities.Character
	for _, e := range batch.Entities() {
		ch := ai.CharacterFromEntity(e)
		if ch.Name == "" {
			continue
		}
		ch.ID = "npc-" + o.ids.New()
		out = append(out, ch)
	}
	if len(out) == 0 {
		return nil, dnderr.NotFoundf("no character generated for %q", hint)
	}
	return out, nil
}

// AddCharacter adds an NPC to the live roster at locationID
func (o *Orchestrator) AddCharacter(ch *entities.Character, locationID string) error {
	if ch == nil || ch.ID == "" {
		return dnderr.InvalidArgument("character needs an ID")
	}
	if ch.IsPlayerCharacter() {
		return dnderr.InvalidArgumentf("%s is a player character", ch.Name)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.inFlight {
		return dnderr.New(dnderr.CodeTurnInProgress, "a turn is in progress")
	}
	if !o.campaign.IsLocationRegistered(locationID) {
		return dnderr.Newf(dnderr.CodeLocationUnregistered, "location unregistered: %s", locationID).
			WithMeta("location_id", locationID)
	}
	if o.campaign.Character(ch.ID) != nil {
		return dnderr.AlreadyExistsf("character %s already exists", ch.ID)
	}

	added := ch.Clone()
	added.Status.LocationID = locationID
	o.campaign.Characters = append(o.campaign.Characters, added)

	o.logger.Info("turn: character added", "character_id", added.ID, "location_id", locationID)
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, t ai.RequestType, hint string) (*ai.BatchResponse, error) {
	o.mu.Lock()
	pc, _ := o.promptContextLocked(o.state.SelectedCharacterID, "")
	o.mu.Unlock()
	pc.Instructions = hint

	req, err := ai.NewRequest(t, pc)
	if err != nil {
		return nil, err
	}
	resp, err := o.ai.Request(ctx, req)
	if err != nil {
		o.logger.Warn("turn: generation failed", "type", t, "reason", dnderr.GetCode(err), "err", err)
		if isAIFailure(err) {
			return nil, dnderr.AIAPIError(err)
		}
		return nil, err
	}
	batch, ok := resp.(*ai.BatchResponse)
	if !ok {
		return nil, dnderr.AIAPIError(dnderr.New(dnderr.CodeMissingBatchPayload, "expected a batch response"))
	}
	return batch, nil
}
