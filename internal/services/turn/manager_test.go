package turn_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/trpg-session-engine/internal/dice"
	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/events"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/campaigns"
	mockcampaigns "github.com/KirkDiggler/trpg-session-engine/internal/repositories/campaigns/mock"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/sessionstates"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/combat"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
	"github.com/KirkDiggler/trpg-session-engine/internal/testutils"
)

type ManagerTestSuite struct {
	suite.Suite
	ctx       context.Context
	campaigns campaigns.Repository
	states    sessionstates.Store
	resolver  *combat.Resolver
	manager   *turn.Manager
}

func (s *ManagerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.campaigns = campaigns.NewInMemoryRepository()
	s.states = sessionstates.NewInMemoryStore()
	s.resolver = combat.NewResolver(&combat.ResolverConfig{Roller: dice.NewSeededRoller(7)})
	s.manager = s.newManager()

	s.Require().NoError(s.campaigns.Save(s.ctx, testutils.CreateTestCampaign()))
}

func (s *ManagerTestSuite) newManager() *turn.Manager {
	return turn.NewManager(&turn.ManagerConfig{
		Campaigns: s.campaigns,
		States:    s.states,
		AI:        &scriptedAI{},
		Resolver:  s.resolver,
	})
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

func (s *ManagerTestSuite) playOneTurn(o *turn.Orchestrator) {
	_, err := o.SelectCharacter("pc-aki")
	s.Require().NoError(err)
	_, err = o.Start()
	s.Require().NoError(err)
	_, err = o.SubmitAction(s.ctx, chat("look around"))
	s.Require().NoError(err)
}

func (s *ManagerTestSuite) TestOpen_ReusesRunningSession() {
	first, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)

	again, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)
	s.Same(first, again)

	other := testutils.CreateTestCampaign()
	other.ID = "campaign-other"
	s.Require().NoError(s.campaigns.Save(s.ctx, other))

	_, err = s.manager.Open(s.ctx, "channel-1", "campaign-other")
	s.Equal(dnderr.CodeAlreadyExists, dnderr.GetCode(err))
	s.Equal([]string{"channel-1"}, s.manager.Sessions())
}

func (s *ManagerTestSuite) TestOpen_UnknownCampaign() {
	_, err := s.manager.Open(s.ctx, "channel-1", "missing")
	s.True(dnderr.IsNotFound(err))
	s.Empty(s.manager.Sessions())
}

func (s *ManagerTestSuite) TestSnapshotsResumeAfterRestart() {
	o, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)
	s.playOneTurn(o)

	saved, err := s.states.Load(s.ctx, "channel-1")
	s.Require().NoError(err)
	s.Equal(1, saved.TurnNumber)
	s.Equal(entities.PhaseAwaitingPlayerAction, saved.Phase)

	restarted := s.newManager()
	resumed, err := restarted.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)

	state := resumed.Snapshot()
	s.Equal(1, state.TurnNumber)
	s.Equal(1, state.ActionCount)
	s.Equal("pc-aki", state.SelectedCharacterID)
	s.Equal(entities.PhaseAwaitingPlayerAction, state.Phase)
	s.Len(state.History, 1)
}

func (s *ManagerTestSuite) TestClose_SavesCampaignAndDropsSnapshot() {
	o, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)
	s.Require().NoError(o.SpawnEnemy(testutils.CreateTestEnemy("goblin", "ゴブリン", 9, 1, ""), "village"))
	s.playOneTurn(o)

	campaign, err := s.manager.Close(s.ctx, "channel-1")
	s.Require().NoError(err)
	s.Equal(entities.CampaignStatusPaused, campaign.Status)

	stored, err := s.campaigns.Load(s.ctx, "campaign-fog")
	s.Require().NoError(err)
	s.Equal(entities.CampaignStatusPaused, stored.Status)
	s.NotNil(stored.Enemy("goblin"))

	_, err = s.states.Load(s.ctx, "channel-1")
	s.True(dnderr.IsNotFound(err))

	_, err = s.manager.Get("channel-1")
	s.True(dnderr.IsNotFound(err))
}

func (s *ManagerTestSuite) TestClose_LateStateChangeDoesNotResurrectSnapshot() {
	o, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)
	s.playOneTurn(o)
	lastTurn := o.Snapshot()

	_, err = s.manager.Close(s.ctx, "channel-1")
	s.Require().NoError(err)

	// a turn's state change published after the session closed
	s.Require().NoError(s.manager.Bus().Emit(events.NewStateChanged(entities.PhaseTurnSummary, lastTurn)))

	_, err = s.states.Load(s.ctx, "channel-1")
	s.True(dnderr.IsNotFound(err))

	reopened, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)
	s.Equal(entities.PhaseAwaitingCharacterSelection, reopened.Snapshot().Phase)
	s.Equal(0, reopened.Snapshot().TurnNumber)
}

func (s *ManagerTestSuite) TestSave_KeepsSessionRunning() {
	o, err := s.manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)
	s.playOneTurn(o)

	s.Require().NoError(s.manager.Save(s.ctx, "channel-1"))

	stored, err := s.campaigns.Load(s.ctx, "campaign-fog")
	s.Require().NoError(err)
	s.Equal(entities.CampaignStatusActive, stored.Status)

	_, err = s.manager.Get("channel-1")
	s.NoError(err)
}

func (s *ManagerTestSuite) TestClose_SaveFailureKeepsSession() {
	ctrl := gomock.NewController(s.T())
	repo := mockcampaigns.NewMockRepository(ctrl)
	repo.EXPECT().Load(gomock.Any(), "campaign-fog").Return(testutils.CreateTestCampaign(), nil)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(dnderr.New(dnderr.CodeUnavailable, "redis down"))

	manager := turn.NewManager(&turn.ManagerConfig{
		Campaigns: repo,
		AI:        &scriptedAI{},
		Resolver:  s.resolver,
	})
	_, err := manager.Open(s.ctx, "channel-1", "campaign-fog")
	s.Require().NoError(err)

	_, err = manager.Close(s.ctx, "channel-1")
	s.Equal(dnderr.CodeUnavailable, dnderr.GetCode(err))
	s.Equal([]string{"channel-1"}, manager.Sessions())
}

func (s *ManagerTestSuite) TestNewManager_RequiresCollaborators() {
	s.Panics(func() { turn.NewManager(&turn.ManagerConfig{AI: &scriptedAI{}, Resolver: s.resolver}) })
	s.Panics(func() { turn.NewManager(&turn.ManagerConfig{Campaigns: s.campaigns, Resolver: s.resolver}) })
	s.Panics(func() { turn.NewManager(&turn.ManagerConfig{Campaigns: s.campaigns, AI: &scriptedAI{}}) })
}
