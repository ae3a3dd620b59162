package turn

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/events"
	"github.com/KirkDiggler/trpg-session-engine/internal/observe"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/campaigns"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/sessionstates"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
)

const snapshotTimeout = 5 * time.Second

// Manager owns the running sessions, loading campaigns at session start and
// writing them back at session end. Stable session states are snapshotted
// to the state store so a restarted process can resume them.
type Manager struct {
	campaigns campaigns.Repository
	states    sessionstates.Store
	bus       *events.Bus
	logger    *slog.Logger

	ai               ai.Service
	resolver         *combat.Resolver
	metrics          *observe.Metrics
	maxActionsPerDay int
	npcBatch         bool

	mu       sync.RWMutex
	sessions map[string]*Orchestrator

	// snapshotMu guards tracked; a snapshot is only written for tracked sessions
	snapshotMu sync.Mutex
	tracked    map[string]bool
}

// ManagerConfig holds configuration for the manager
type ManagerConfig struct {
	Campaigns campaigns.Repository // Required
	AI        ai.Service           // Required
	Resolver  *combat.Resolver     // Required
	States    sessionstates.Store  // Optional, no snapshots when nil
	Bus       *events.Bus          // Optional, a new bus when nil
	Metrics   *observe.Metrics     // Optional
	Logger    *slog.Logger         // Optional

	MaxActionsPerDay int
	NPCBatch         bool
}

// NewManager creates a session manager
func NewManager(cfg *ManagerConfig) *Manager {
	if cfg.Campaigns == nil {
		panic("campaign repository is required")
	}
	if cfg.AI == nil {
		panic("ai service is required")
	}
	if cfg.Resolver == nil {
		panic("combat resolver is required")
	}

	m := &Manager{
		campaigns:        cfg.Campaigns,
		states:           cfg.States,
		bus:              cfg.Bus,
		logger:           cfg.Logger,
		ai:               cfg.AI,
		resolver:         cfg.Resolver,
		metrics:          cfg.Metrics,
		maxActionsPerDay: cfg.MaxActionsPerDay,
		npcBatch:         cfg.NPCBatch,
		sessions:         make(map[string]*Orchestrator),
		tracked:          make(map[string]bool),
	}
	if m.bus == nil {
		m.bus = events.NewBus()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}

	if m.states != nil {
		m.bus.Subscribe(events.EventTypeStateChanged, &events.ListenerFunc{
			Name:  "session-snapshots",
			Order: events.PriorityPersistence,
			Fn:    m.snapshot,
		})
	}
	return m
}

// Bus returns the bus session events are published on
func (m *Manager) Bus() *events.Bus {
	return m.bus
}

// Open starts (or resumes from a snapshot) a session for campaignID.
// Opening a running session for the same campaign returns it.
func (m *Manager) Open(ctx context.Context, sessionID, campaignID string) (*Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[sessionID]; ok {
		if existing.Campaign().ID != campaignID {
			return nil, dnderr.AlreadyExistsf("session %s is running another campaign", sessionID)
		}
		return existing, nil
	}

	campaign, err := m.campaigns.Load(ctx, campaignID)
	if err != nil {
		return nil, dnderr.Wrapf(err, "failed to load campaign %s", campaignID)
	}

	o := New(&Config{
		SessionID:        sessionID,
		Campaign:         campaign,
		AI:               m.ai,
		Resolver:         m.resolver,
		Bus:              m.bus,
		Metrics:          m.metrics,
		Logger:           m.logger,
		MaxActionsPerDay: m.maxActionsPerDay,
		NPCBatch:         m.npcBatch,
	})

	if m.states != nil {
		saved, err := m.states.Load(ctx, sessionID)
		if err != nil && !dnderr.IsNotFound(err) {
			return nil, dnderr.Wrap(err, "failed to load session snapshot")
		}

		m.track(sessionID, true)
		if saved != nil {
			if err := o.Restore(saved); err != nil {
				m.logger.Warn("turn: snapshot ignored", "session_id", sessionID, "err", err)
			}
		}
	}

	m.sessions[sessionID] = o
	m.logger.Info("turn: session opened", "session_id", sessionID, "campaign_id", campaignID)
	return o, nil
}

// Get returns a running session
func (m *Manager) Get(sessionID string) (*Orchestrator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.sessions[sessionID]
	if !ok {
		return nil, dnderr.NotFoundf("no running session: %s", sessionID)
	}
	return o, nil
}

// Sessions lists running session ids
func (m *Manager) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Save writes the live campaign and the session snapshot without ending the session
func (m *Manager) Save(ctx context.Context, sessionID string) error {
	o, err := m.Get(sessionID)
	if err != nil {
		return err
	}
	if err := m.campaigns.Save(ctx, o.Campaign()); err != nil {
		return dnderr.Wrap(err, "failed to save campaign")
	}
	if m.states != nil {
		if err := m.states.Save(ctx, o.Snapshot()); err != nil {
			return dnderr.Wrap(err, "failed to save session snapshot")
		}
	}
	return nil
}

// Close ends a session, saves its campaign and forgets it
func (m *Manager) Close(ctx context.Context, sessionID string) (*entities.Campaign, error) {
	o, err := m.Get(sessionID)
	if err != nil {
		return nil, err
	}

	campaign, err := o.EndSession(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.campaigns.Save(ctx, campaign); err != nil {
		return nil, dnderr.Wrap(err, "failed to save campaign")
	}
	if m.states != nil {
		// Events still in flight for this session must not write it back
		m.track(sessionID, false)
		if err := m.states.Delete(ctx, sessionID); err != nil {
			m.logger.Warn("turn: snapshot not deleted", "session_id", sessionID, "err", err)
		}
	}

	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	m.logger.Info("turn: session closed", "session_id", sessionID, "campaign_id", campaign.ID)
	return campaign, nil
}

// snapshot saves states between turns; in-flight phases and closed sessions are never persisted
func (m *Manager) snapshot(evt events.Event) error {
	changed, ok := evt.(*events.StateChangedEvent)
	if !ok || changed.State == nil {
		return nil
	}
	switch changed.State.Phase {
	case entities.PhaseAwaitingCharacterSelection, entities.PhaseAwaitingPlayerAction, entities.PhaseDayAdvance:
	default:
		return nil
	}

	m.snapshotMu.Lock()
	defer m.snapshotMu.Unlock()
	if !m.tracked[changed.State.SessionID] {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if err := m.states.Save(ctx, changed.State); err != nil {
		m.logger.Warn("turn: snapshot failed", "session_id", changed.State.SessionID, "err", err)
	}
	return nil
}

func (m *Manager) track(sessionID string, tracked bool) {
	m.snapshotMu.Lock()
	defer m.snapshotMu.Unlock()
	if tracked {
		m.tracked[sessionID] = true
	} else {
		delete(m.tracked, sessionID)
	}
}
