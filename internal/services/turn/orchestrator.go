package turn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/events"
	"github.com/KirkDiggler/trpg-session-engine/internal/observe"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/catalog"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
	"github.com/KirkDiggler/trpg-session-engine/internal/uuid"
)

// Orchestrator runs the turn state machine for one session. It is the only
// writer of its SessionState and of the live campaign roster; callers get copies.
//
// At most one turn is in flight. Ending, resetting or restoring the session
// cancels the in-flight turn and its results are discarded.
type Orchestrator struct {
	sessionID  string
	ai         ai.Service
	resolver   *combat.Resolver
	bus        *events.Bus
	metrics    *observe.Metrics
	logger     *slog.Logger
	now        func() time.Time
	ids        uuid.Generator
	npcBatch   bool
	maxActions int

	mu          sync.Mutex
	campaign    *entities.Campaign
	state       *entities.SessionState
	epoch       uint64
	inFlight    bool
	cancelTurn  context.CancelFunc
	activeSince time.Time
}

// Config holds configuration for the orchestrator
type Config struct {
	SessionID string             // Required
	Campaign  *entities.Campaign // Required
	AI        ai.Service         // Required
	Resolver  *combat.Resolver   // Required
	Bus       *events.Bus        // Optional
	Metrics   *observe.Metrics   // Optional
	Logger    *slog.Logger       // Optional, defaults to slog.Default()
	Now       func() time.Time   // Optional, defaults to time.Now
	IDs       uuid.Generator     // Optional, ids for generated enemies and NPCs

	// MaxActionsPerDay defaults to entities.DefaultMaxActionsPerDay
	MaxActionsPerDay int

	// NPCBatch asks for every NPC's action in one request instead of one request per NPC
	NPCBatch bool
}

// New creates an orchestrator in AwaitingCharacterSelection for cfg.Campaign
func New(cfg *Config) *Orchestrator {
	if cfg.SessionID == "" {
		panic("session id is required")
	}
	if cfg.Campaign == nil {
		panic("campaign is required")
	}
	if cfg.AI == nil {
		panic("ai service is required")
	}
	if cfg.Resolver == nil {
		panic("combat resolver is required")
	}

	o := &Orchestrator{
		sessionID:  cfg.SessionID,
		ai:         cfg.AI,
		resolver:   cfg.Resolver,
		bus:        cfg.Bus,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        cfg.Now,
		ids:        cfg.IDs,
		npcBatch:   cfg.NPCBatch,
		maxActions: cfg.MaxActionsPerDay,
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("session_id", cfg.SessionID)
	if o.now == nil {
		o.now = time.Now
	}
	if o.ids == nil {
		o.ids = uuid.NewGoogleUUIDGenerator()
	}
	if o.maxActions < 1 {
		o.maxActions = entities.DefaultMaxActionsPerDay
	}

	o.campaign = cfg.Campaign.Clone()
	o.state = entities.NewSessionState(o.sessionID, o.campaign, o.maxActions, o.now())
	return o
}

// SessionID returns the session this orchestrator runs
func (o *Orchestrator) SessionID() string {
	return o.sessionID
}

// Snapshot returns a copy of the current session state
func (o *Orchestrator) Snapshot() *entities.SessionState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Clone()
}

// Campaign returns a copy of the live campaign
func (o *Orchestrator) Campaign() *entities.Campaign {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.campaign.Clone()
}

// Actions returns the action catalog for the selected character
func (o *Orchestrator) Actions() ([]catalog.Action, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	actor := o.campaign.Character(o.state.SelectedCharacterID)
	if actor == nil {
		return nil, dnderr.New(dnderr.CodeNoCharacterSelected, "no character selected")
	}
	return catalog.AvailableActions(actor, o.state, o.campaign), nil
}

// ResetSession discards the current session and starts over from campaign:
// day 1, no actions taken, no selection, party at the starting location.
func (o *Orchestrator) ResetSession(campaign *entities.Campaign) (*entities.SessionState, error) {
	if campaign == nil {
		return nil, dnderr.InvalidArgument("campaign is required")
	}

	o.mu.Lock()
	o.abortLocked()
	previous := o.state.Phase
	o.campaign = campaign.Clone()
	o.state = entities.NewSessionState(o.sessionID, o.campaign, o.maxActions, o.now())
	o.activeSince = time.Time{}
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.logger.Info("turn: session reset", "campaign_id", campaign.ID)
	o.emit(
		&events.SessionEndedEvent{BaseEvent: o.base(events.EventTypeSessionEnded), Reason: "reset"},
		events.NewStateChanged(previous, snapshot),
	)
	return snapshot, nil
}

// Restore replaces the session state with a saved snapshot. A snapshot taken
// mid-turn resumes in AwaitingPlayerAction because in-flight work is not saved,
// or in DayAdvance when the day's actions are already used up.
func (o *Orchestrator) Restore(state *entities.SessionState) error {
	if state == nil {
		return dnderr.InvalidArgument("state is required")
	}

	o.mu.Lock()
	if state.CampaignID != o.campaign.ID {
		o.mu.Unlock()
		return dnderr.InvalidArgumentf("state belongs to campaign %s, not %s", state.CampaignID, o.campaign.ID)
	}

	o.abortLocked()
	previous := o.state.Phase
	restored := state.Clone()
	restored.SessionID = o.sessionID
	if restored.MaxActionsPerDay < 1 {
		restored.MaxActionsPerDay = o.maxActions
	}
	if restored.CurrentDay < 1 {
		restored.CurrentDay = 1
	}

	if ch := o.campaign.Character(restored.SelectedCharacterID); ch == nil || !ch.IsPlayerCharacter() {
		restored.SelectedCharacterID = ""
		restored.Phase = entities.PhaseAwaitingCharacterSelection
	}

	// The day's budget decides between acting and advancing the day
	restored.ActionCount = max(0, min(restored.ActionCount, restored.MaxActionsPerDay))
	switch {
	case restored.Phase == entities.PhaseAwaitingCharacterSelection:
	case restored.DayBudgetExhausted():
		restored.Phase = entities.PhaseDayAdvance
	default:
		restored.Phase = entities.PhaseAwaitingPlayerAction
	}

	o.state = restored
	o.activeSince = time.Time{}
	if restored.Phase != entities.PhaseAwaitingCharacterSelection {
		o.activeSince = o.now()
	}
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.logger.Info("turn: session restored", "turn", snapshot.TurnNumber, "day", snapshot.CurrentDay, "state", snapshot.Phase)
	o.emit(events.NewStateChanged(previous, snapshot))
	return nil
}

// SelectCharacter chooses the acting player character. It is allowed between turns.
func (o *Orchestrator) SelectCharacter(characterID string) (*entities.SessionState, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeTurnInProgress, "a turn is in progress")
	}

	ch := o.campaign.Character(characterID)
	switch {
	case ch == nil:
		o.mu.Unlock()
		return nil, dnderr.NotFoundf("character not found: %s", characterID)
	case !ch.IsPlayerCharacter():
		o.mu.Unlock()
		return nil, dnderr.InvalidArgumentf("%s is not a player character", ch.Name)
	case !ch.IsConscious():
		o.mu.Unlock()
		return nil, dnderr.InvalidArgumentf("%s cannot act", ch.Name)
	}

	o.state.SelectedCharacterID = characterID
	o.state.UpdatedAt = o.now()
	evt := events.NewStateChanged(o.state.Phase, o.state.Clone())
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.emit(evt)
	return snapshot, nil
}

// Start leaves AwaitingCharacterSelection. It needs exactly one selected character.
func (o *Orchestrator) Start() (*entities.SessionState, error) {
	o.mu.Lock()
	if o.state.Phase != entities.PhaseAwaitingCharacterSelection {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeValidation, "session already started")
	}
	if o.state.SelectedCharacterID == "" {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeNoCharacterSelected, "select a character before starting")
	}

	if o.campaign.Status != entities.CampaignStatusArchived {
		o.campaign.Status = entities.CampaignStatusActive
	}
	o.activeSince = o.now()
	evt := o.transitionLocked(entities.PhaseAwaitingPlayerAction)
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.logger.Info("turn: session started", "character_id", snapshot.SelectedCharacterID)
	o.emit(evt)
	return snapshot, nil
}

// AdvanceDay moves to the next day once the day's actions are used up
func (o *Orchestrator) AdvanceDay(ctx context.Context) (*entities.SessionState, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, dnderr.New(dnderr.CodeTurnInProgress, "a turn is in progress")
	}
	if o.state.Phase != entities.PhaseDayAdvance {
		o.mu.Unlock()
		return nil, dnderr.Newf(dnderr.CodeValidation, "%d of %d actions remain today",
			o.state.MaxActionsPerDay-o.state.ActionCount, o.state.MaxActionsPerDay)
	}

	evts := o.advanceDayLocked(ctx)
	snapshot := o.state.Clone()
	o.mu.Unlock()

	o.emit(evts...)
	return snapshot, nil
}

// EndSession aborts any in-flight turn, adds the elapsed play time to the
// campaign and returns it for saving. The session state is discarded and
// the machine waits for a character selection again.
func (o *Orchestrator) EndSession(ctx context.Context) (*entities.Campaign, error) {
	o.mu.Lock()
	o.abortLocked()
	previous := o.state.Phase

	if !o.activeSince.IsZero() {
		o.campaign.TotalPlayTime += int(o.now().Sub(o.activeSince).Minutes())
		o.activeSince = time.Time{}
	}
	if o.campaign.Status == entities.CampaignStatusActive {
		o.campaign.Status = entities.CampaignStatusPaused
	}

	o.state = entities.NewSessionState(o.sessionID, o.campaign, o.maxActions, o.now())
	snapshot := o.state.Clone()
	campaign := o.campaign.Clone()
	o.mu.Unlock()

	o.logger.Info("turn: session ended", "total_play_time", campaign.TotalPlayTime)
	o.emit(
		&events.SessionEndedEvent{BaseEvent: o.base(events.EventTypeSessionEnded), Reason: "ended"},
		events.NewStateChanged(previous, snapshot),
	)
	return campaign, nil
}

// SpawnEnemy adds enemy to the live roster at locationID
func (o *Orchestrator) SpawnEnemy(enemy *entities.EnemyCharacter, locationID string) error {
	if enemy == nil || enemy.ID == "" {
		return dnderr.InvalidArgument("enemy needs an ID")
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
	if o.campaign.Enemy(enemy.ID) != nil {
		return dnderr.AlreadyExistsf("enemy %s already exists", enemy.ID)
	}

	spawned := enemy.Clone()
	spawned.Status.LocationID = locationID
	spawned.Defeated = false
	if spawned.Status.CurrentHP <= 0 {
		spawned.SetHP(spawned.DerivedStats.HP)
	}
	o.campaign.Enemies = append(o.campaign.Enemies, spawned)

	o.logger.Info("turn: enemy spawned", "enemy_id", spawned.ID, "location_id", locationID)
	return nil
}

// abortLocked cancels the in-flight turn; its results will be discarded
func (o *Orchestrator) abortLocked() {
	if o.cancelTurn != nil {
		o.cancelTurn()
		o.cancelTurn = nil
	}
	o.epoch++
	o.inFlight = false
}

func (o *Orchestrator) transitionLocked(phase entities.TurnPhase) events.Event {
	previous := o.state.Phase
	o.state.Phase = phase
	o.state.UpdatedAt = o.now()
	o.logger.Debug("turn: state changed", "from", previous, "to", phase, "turn", o.state.TurnNumber)
	return events.NewStateChanged(previous, o.state.Clone())
}

func (o *Orchestrator) advanceDayLocked(ctx context.Context) []events.Event {
	o.state.CurrentDay++
	o.state.ActionCount = 0
	o.metrics.RecordDayAdvanced(ctx)
	o.logger.Info("turn: day advanced", "day", o.state.CurrentDay)

	return []events.Event{
		&events.DayAdvancedEvent{BaseEvent: o.base(events.EventTypeDayAdvanced), Day: o.state.CurrentDay},
		o.transitionLocked(entities.PhaseAwaitingPlayerAction),
	}
}

func (o *Orchestrator) base(t events.EventType) events.BaseEvent {
	return events.BaseEvent{Type: t, SessionID: o.sessionID}
}

// emit publishes outside the lock so listeners may call back into the orchestrator
func (o *Orchestrator) emit(evts ...events.Event) {
	if o.bus == nil {
		return
	}
	for _, evt := range evts {
		if err := o.bus.Emit(evt); err != nil {
			o.logger.Warn("turn: event listener failed", "event", evt.GetType(), "err", err)
		}
	}
}

func isAIFailure(err error) bool {
	switch dnderr.GetCode(err) {
	case dnderr.CodeMalformedResponse, dnderr.CodeMissingBatchPayload, dnderr.CodeMissingNarration,
		dnderr.CodeAITimeout, dnderr.CodeUnavailable:
		return true
	}
	return false
}

func joinLines(lines ...string) string {
	var out []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// resolveNPCs asks the AI for the actions of npcs. Results keep the order of
// npcs regardless of completion order. NPC failures only skip that NPC.
func (o *Orchestrator) resolveNPCs(ctx context.Context, pc *ai.PromptContext, npcs []*entities.Character) []NPCAction {
	if len(npcs) == 0 {
		return nil
	}
	if o.npcBatch {
		return o.resolveNPCBatch(ctx, pc, npcs)
	}

	results := make([]*NPCAction, len(npcs))
	var g errgroup.Group
	for i, npc := range npcs {
		g.Go(func() error {
			npcContext := *pc
			npcContext.Actor = npc
			req, err := ai.NewRequest(ai.RequestNPCAction, &npcContext)
			if err != nil {
				return err
			}
			resp, err := o.ai.Request(ctx, req)
			if err != nil {
				o.logger.Warn("turn: npc action skipped", "character_id", npc.ID, "reason", dnderr.GetCode(err), "err", err)
				return nil
			}
			narration, ok := resp.(*ai.NarrationResponse)
			if !ok {
				o.logger.Warn("turn: npc action skipped", "character_id", npc.ID, "reason", dnderr.CodeMissingNarration)
				return nil
			}
			results[i] = &NPCAction{
				CharacterID: npc.ID,
				Name:        npc.Name,
				Text:        narration.Text,
				Action:      narration.Action,
				TargetID:    narration.TargetID,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.logger.Warn("turn: npc requests failed", "err", err)
	}

	var out []NPCAction
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (o *Orchestrator) resolveNPCBatch(ctx context.Context, pc *ai.PromptContext, npcs []*entities.Character) []NPCAction {
	req, err := ai.NewRequest(ai.RequestNPCBatch, pc)
	if err != nil {
		o.logger.Warn("turn: npc batch skipped", "err", err)
		return nil
	}
	resp, err := o.ai.Request(ctx, req)
	if err != nil {
		o.logger.Warn("turn: npc batch skipped", "reason", dnderr.GetCode(err), "err", err)
		return nil
	}
	batch, ok := resp.(*ai.BatchResponse)
	if !ok {
		return nil
	}

	byKey := make(map[string]ai.BatchEntity)
	for _, e := range batch.Entities() {
		if e.ID != "" {
			byKey["id:"+e.ID] = e
		}
		if e.Name != "" {
			byKey["name:"+e.Name] = e
		}
	}

	var out []NPCAction
	for _, npc := range npcs {
		e, ok := byKey["id:"+npc.ID]
		if !ok {
			e, ok = byKey["name:"+npc.Name]
		}
		if !ok {
			continue
		}
		out = append(out, NPCAction{
			CharacterID: npc.ID,
			Name:        npc.Name,
			Text:        firstNonEmpty(e.Response, e.Description),
			Action:      e.Action,
			TargetID:    e.TargetID,
		})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func describeResolution(res combat.Resolution, names map[string]string) string {
	name := names[res.Intent.Attacker.ID]
	if res.Err != nil {
		return fmt.Sprintf("%s → %s: target not found", name, res.Intent.TargetID)
	}
	return res.Result.Summary(name)
}
