package turn

import (
	"context"
	"fmt"
	"strings"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/events"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/catalog"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
)

// plan is a validated player action
type plan struct {
	action        PlayerAction
	actionID      string
	target        *entities.EnemyCharacter
	destination   *entities.Base
	explorationID string
	description   string
}

// SubmitAction runs one turn for the selected character.
//
// In DayAdvance the submission only advances the day. An AI failure leaves
// the session in AwaitingPlayerAction with nothing consumed and returns an
// ai_api_error. A turn whose session was ended or reset meanwhile returns
// session_ended and changes nothing.
func (o *Orchestrator) SubmitAction(ctx context.Context, action PlayerAction) (*Result, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeTurnInProgress, "a turn is in progress")
	}
	actor := o.campaign.Character(o.state.SelectedCharacterID)
	if actor == nil {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeNoCharacterSelected, "no character selected")
	}

	switch o.state.Phase {
	case entities.PhaseDayAdvance:
		evts := o.advanceDayLocked(ctx)
		snapshot := o.state.Clone()
		o.mu.Unlock()
		o.emit(evts...)
		return &Result{DayAdvanced: true, State: snapshot}, nil
	case entities.PhaseAwaitingPlayerAction:
	default:
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeValidation, "session not started")
	}

	p, err := o.planLocked(actor, action)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}

	o.inFlight = true
	o.epoch++
	epoch := o.epoch
	turnCtx, cancel := context.WithCancel(ctx)
	o.cancelTurn = cancel
	o.state.LastError = ""
	evt := o.transitionLocked(entities.PhaseNarrationPending)
	pc, npcs := o.promptContextLocked(actor.ID, p.description)
	o.mu.Unlock()
	defer cancel()

	o.logger.Info("turn: action submitted", "turn", pc.State.TurnNumber+1, "character_id", actor.ID, "action", p.actionID)
	o.emit(evt)

	return o.runTurn(turnCtx, epoch, actor.ID, p, pc, npcs)
}

func (o *Orchestrator) planLocked(actor *entities.Character, action PlayerAction) (*plan, error) {
	p := &plan{action: action}

	switch action.Kind {
	case ActionKindChat:
		if strings.TrimSpace(action.Text) == "" {
			return nil, dnderr.InvalidArgument("action text is required")
		}
		p.actionID = catalog.ActionChat
		p.description = action.describe("", nil, nil)
		return p, nil
	case ActionKindCatalog:
	default:
		return nil, dnderr.InvalidArgumentf("unknown action kind %q", action.Kind)
	}

	available := catalog.AvailableActions(actor, o.state, o.campaign)
	entry, ok := catalog.Find(available, action.ActionID)
	if !ok {
		return nil, dnderr.InvalidArgumentf("unknown action %q", action.ActionID)
	}
	if !entry.Enabled {
		if entry.DisabledReason == catalog.ReasonLocationUnregistered {
			return nil, dnderr.Newf(dnderr.CodeLocationUnregistered, "%s: %s", entry.Label, entry.DisabledReason).
				WithMeta("location_id", o.state.CurrentLocationID)
		}
		return nil, dnderr.Newf(dnderr.CodeValidation, "%s: %s", entry.Label, entry.DisabledReason)
	}
	p.actionID = entry.ID

	switch {
	case entry.ID == catalog.ActionAttack:
		target, err := combat.FindTarget(actor, action.TargetID, o.campaign.Enemies)
		if err != nil {
			return nil, err
		}
		p.target = target
	case entry.ID == catalog.ActionMove:
		destination := o.campaign.Base(action.DestinationID)
		if destination == nil {
			return nil, dnderr.Newf(dnderr.CodeLocationUnregistered, "location unregistered: %s", action.DestinationID).
				WithMeta("location_id", action.DestinationID)
		}
		if destination.ID == o.state.CurrentLocationID {
			return nil, dnderr.InvalidArgument("already at that location")
		}
		p.destination = destination
	case entry.ID == catalog.ActionChat:
		if strings.TrimSpace(action.Text) == "" {
			return nil, dnderr.InvalidArgument("action text is required")
		}
	default:
		if id, ok := catalog.ExplorationID(entry.ID); ok {
			p.explorationID = id
		}
	}

	p.description = action.describe(entry.Label, p.target, p.destination)
	return p, nil
}

// promptContextLocked builds an immutable copy of everything the AI may read this turn
func (o *Orchestrator) promptContextLocked(actorID, description string) (*ai.PromptContext, []*entities.Character) {
	view := o.campaign.Clone()
	location := o.state.CurrentLocationID
	present := view.CharactersAt(location)

	var npcs []*entities.Character
	for _, ch := range present {
		if ch.IsAIControlled() && ch.IsConscious() {
			npcs = append(npcs, ch)
		}
	}

	return &ai.PromptContext{
		Campaign:     view,
		State:        o.state.Clone(),
		Location:     view.Base(location),
		Actor:        view.Character(actorID),
		Characters:   present,
		Enemies:      view.LivingEnemiesAt(location),
		PlayerAction: description,
	}, npcs
}

func (o *Orchestrator) runTurn(ctx context.Context, epoch uint64, actorID string, p *plan, pc *ai.PromptContext, npcs []*entities.Character) (*Result, error) {
	// NarrationPending
	req, err := ai.NewRequest(ai.RequestGMNarration, pc)
	if err != nil {
		return nil, o.failTurn(epoch, err)
	}
	resp, err := o.ai.Request(ctx, req)
	if err != nil {
		return nil, o.failTurn(epoch, err)
	}
	narration, ok := resp.(*ai.NarrationResponse)
	if !ok {
		return nil, o.failTurn(epoch, dnderr.New(dnderr.CodeMissingNarration, "expected a narration response"))
	}

	if err := o.step(epoch, entities.PhaseResolvingNPCActions); err != nil {
		return nil, err
	}
	pc.Narration = narration.Text
	npcActions := o.resolveNPCs(ctx, pc, npcs)
	if err := ctx.Err(); err != nil {
		return nil, o.failTurn(epoch, dnderr.WrapWithCode(err, dnderr.CodeSessionEnded, "turn cancelled"))
	}

	if err := o.step(epoch, entities.PhaseResolvingCombat); err != nil {
		return nil, err
	}
	o.mu.Lock()
	working := o.campaign.Clone()
	o.mu.Unlock()

	var intents []combat.Intent
	if p.target != nil {
		intents = append(intents, combat.Intent{Attacker: working.Character(actorID), TargetID: p.target.ID})
	}
	for _, npc := range npcActions {
		if npc.Action != catalog.ActionAttack || npc.TargetID == "" {
			continue
		}
		if attacker := working.Character(npc.CharacterID); attacker != nil {
			intents = append(intents, combat.Intent{Attacker: attacker, TargetID: npc.TargetID})
		}
	}

	var resolutions []combat.Resolution
	if len(intents) > 0 {
		resolutions, err = o.resolver.ResolveAll(ctx, intents, working.Enemies)
		if err != nil {
			return nil, o.failTurn(epoch, dnderr.Wrap(err, "combat resolution failed"))
		}
	}

	return o.commit(ctx, epoch, actorID, p, narration, npcActions, resolutions, working)
}

// step moves to the next in-flight phase unless the turn went stale
func (o *Orchestrator) step(epoch uint64, phase entities.TurnPhase) error {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return dnderr.New(dnderr.CodeSessionEnded, "session ended during the turn")
	}
	evt := o.transitionLocked(phase)
	o.mu.Unlock()

	o.emit(evt)
	return nil
}

// failTurn returns the session to AwaitingPlayerAction without consuming the turn
func (o *Orchestrator) failTurn(epoch uint64, cause error) error {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return dnderr.WrapWithCode(cause, dnderr.CodeSessionEnded, "session ended during the turn")
	}

	o.inFlight = false
	o.cancelTurn = nil

	err := cause
	switch {
	case dnderr.Is(cause, dnderr.CodeSessionEnded):
		err = dnderr.Wrap(cause, "turn aborted")
		o.state.LastError = ""
	case isAIFailure(cause):
		err = dnderr.AIAPIError(cause)
		o.state.LastError = fmt.Sprintf("%s (%s)", dnderr.AIAPIErrorMessage, dnderr.GetCode(cause))
	default:
		o.state.LastError = cause.Error()
	}
	evt := o.transitionLocked(entities.PhaseAwaitingPlayerAction)
	o.mu.Unlock()

	o.logger.Warn("turn: turn not consumed", "reason", dnderr.GetCode(cause), "err", cause)
	o.emit(evt)
	return err
}

func (o *Orchestrator) commit(ctx context.Context, epoch uint64, actorID string, p *plan, narration *ai.NarrationResponse,
	npcActions []NPCAction, resolutions []combat.Resolution, working *entities.Campaign) (*Result, error) {
	o.mu.Lock()
	if o.epoch != epoch {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeSessionEnded, "session ended during the turn")
	}

	o.applyPlan(working, actorID, p)
	o.campaign = working

	names := make(map[string]string, len(working.Characters))
	for _, ch := range working.Characters {
		names[ch.ID] = ch.Name
	}

	record := entities.TurnRecord{
		Turn:        o.state.TurnNumber + 1,
		Day:         o.state.CurrentDay,
		CharacterID: actorID,
		Action:      p.description,
		Narration:   narration.Text,
	}
	for _, npc := range npcActions {
		record.NPCActions = append(record.NPCActions, fmt.Sprintf("%s: %s", npc.Name, npc.Text))
	}

	var evts []events.Event
	for _, res := range resolutions {
		record.Combat = append(record.Combat, describeResolution(res, names))
		if res.Result != nil && res.Result.TargetDefeated {
			evts = append(evts, &events.EnemyDefeatedEvent{
				BaseEvent:  o.base(events.EventTypeEnemyDefeated),
				EnemyID:    res.Result.Target.ID,
				EnemyName:  res.Result.Target.Name,
				AttackerID: res.Intent.Attacker.ID,
			})
		}
	}
	record.Summary = joinLines(
		fmt.Sprintf("Day %d, Turn %d: %s %s", record.Day, record.Turn, names[actorID], record.Action),
		record.Narration,
		strings.Join(record.NPCActions, "\n"),
		strings.Join(record.Combat, "\n"),
	)

	// TurnSummary
	o.state.TurnNumber++
	o.state.ActionCount++
	o.state.AppendHistory(record)
	o.state.LastError = ""
	evts = append(evts, o.transitionLocked(entities.PhaseTurnSummary))
	evts = append(evts, &events.TurnCompletedEvent{BaseEvent: o.base(events.EventTypeTurnCompleted), Record: record})

	next := entities.PhaseAwaitingPlayerAction
	if o.state.DayBudgetExhausted() {
		next = entities.PhaseDayAdvance
	}
	evts = append(evts, o.transitionLocked(next))

	o.inFlight = false
	o.cancelTurn = nil
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.metrics.RecordTurn(ctx)
	o.logger.Info("turn: turn completed",
		"turn", snapshot.TurnNumber,
		"day", snapshot.CurrentDay,
		"actions", snapshot.ActionCount,
		"state", snapshot.Phase)
	o.emit(evts...)

	return &Result{
		Record:     &record,
		Narration:  narration.Text,
		NPCActions: npcActions,
		Combat:     resolutions,
		State:      snapshot,
	}, nil
}

// applyPlan applies the non-combat effects of the player's action to working
func (o *Orchestrator) applyPlan(working *entities.Campaign, actorID string, p *plan) {
	switch {
	case p.destination != nil:
		// The party travels together
		for _, ch := range working.CharactersAt(o.state.CurrentLocationID) {
			if ch.IsPlayerCharacter() || ch.ID == actorID {
				ch.Status.LocationID = p.destination.ID
			}
		}
		o.state.CurrentLocationID = p.destination.ID
	case p.actionID == catalog.ActionRest:
		for _, ch := range working.CharactersAt(o.state.CurrentLocationID) {
			ch.Status.CurrentHP = ch.Stats.HP
			ch.Status.CurrentMP = ch.Stats.MP
		}
	case p.explorationID != "":
		working.MarkExplorationCompleted(p.explorationID)
	}
}
