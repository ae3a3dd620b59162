package turn_test

import (
	"context"
	"strings"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/ai"
	"github.com/KirkDiggler/trpg-session-engine/internal/testutils"
)

func (s *OrchestratorTestSuite) TestGenerateEnemies() {
	var prompt string
	s.ai.handle = func(_ context.Context, req *ai.Request) (ai.Response, error) {
		prompt = req.SystemPrompt
		return &ai.BatchResponse{Characters: []ai.BatchEntity{
			{Name: "霧の魔物", Rank: "ボス", Level: 3, Type: "aberration"},
			{Name: "  "},
			{Name: "霧の子鬼"},
		}}, nil
	}

	enemies, err := s.orch.GenerateEnemies(context.Background(), "井戸の底に潜むもの", 2)
	s.Require().NoError(err)
	s.Require().Len(enemies, 2, "unnamed entries are dropped")
	s.Equal([]ai.RequestType{ai.RequestEnemyGeneration}, s.ai.Calls())
	s.Contains(prompt, "井戸の底に潜むもの")

	boss := enemies[0]
	s.True(strings.HasPrefix(boss.ID, "enemy-"))
	s.Equal(entities.EnemyRankBoss, boss.Rank)
	s.Equal(3, boss.Level)
	s.Equal(boss.DerivedStats.HP, boss.Status.CurrentHP)
	s.Equal(2, enemies[1].Level, "the requested level fills in")
	s.NotEqual(enemies[0].ID, enemies[1].ID)

	// generated enemies are not on the roster until spawned
	s.Nil(s.orch.Campaign().Enemy(boss.ID))
	s.Require().NoError(s.orch.SpawnEnemy(boss, "village"))
	s.Len(s.orch.Campaign().LivingEnemiesAt("village"), 1)
}

func (s *OrchestratorTestSuite) TestGenerateEnemies_NothingGenerated() {
	s.ai.handle = func(_ context.Context, _ *ai.Request) (ai.Response, error) {
		return &ai.BatchResponse{}, nil
	}

	_, err := s.orch.GenerateEnemies(context.Background(), "nothing", 1)
	s.True(dnderr.IsNotFound(err))
}

func (s *OrchestratorTestSuite) TestGenerate_AIFailures() {
	s.ai.handle = func(_ context.Context, _ *ai.Request) (ai.Response, error) {
		return nil, dnderr.New(dnderr.CodeAITimeout, "ai request timed out")
	}
	_, err := s.orch.GenerateEnemies(context.Background(), "wolves", 1)
	s.True(dnderr.IsAIAPIError(err))
	s.True(dnderr.HasCode(err, dnderr.CodeAITimeout))

	s.ai.handle = func(_ context.Context, _ *ai.Request) (ai.Response, error) {
		return &ai.NarrationResponse{Text: "狼が現れた。"}, nil
	}
	_, err = s.orch.GenerateCharacters(context.Background(), "a merchant")
	s.True(dnderr.IsAIAPIError(err))
	s.True(dnderr.HasCode(err, dnderr.CodeMissingBatchPayload))
}

func (s *OrchestratorTestSuite) TestGenerateCharacters_AddToRoster() {
	s.ai.handle = func(_ context.Context, _ *ai.Request) (ai.Response, error) {
		return &ai.BatchResponse{Characters: []ai.BatchEntity{{Name: "旅の商人", Role: "PC", Description: "荷車を引く老人"}}}, nil
	}

	characters, err := s.orch.GenerateCharacters(context.Background(), "a merchant")
	s.Require().NoError(err)
	s.Require().Len(characters, 1)
	merchant := characters[0]
	s.True(strings.HasPrefix(merchant.ID, "npc-"))
	s.True(merchant.IsAIControlled(), "generated characters are never player-controlled")

	s.Require().NoError(s.orch.AddCharacter(merchant, "village"))
	added := s.orch.Campaign().Character(merchant.ID)
	s.Require().NotNil(added)
	s.Equal("village", added.Status.LocationID)
	s.Equal(dnderr.CodeAlreadyExists, dnderr.GetCode(s.orch.AddCharacter(merchant, "village")))
}

func (s *OrchestratorTestSuite) TestAddCharacter_Rules() {
	s.Equal(dnderr.CodeInvalidArgument, dnderr.GetCode(s.orch.AddCharacter(nil, "village")))
	s.Equal(dnderr.CodeInvalidArgument, dnderr.GetCode(s.orch.AddCharacter(
		testutils.CreateTestCharacter("pc-new", "New", entities.CharacterRolePC, ""), "village")))
	s.Equal(dnderr.CodeLocationUnregistered, dnderr.GetCode(s.orch.AddCharacter(
		testutils.CreateTestCharacter("npc-new", "New", entities.CharacterRoleNPC, ""), "atlantis")))

	ch := testutils.CreateTestCharacter("npc-new", "New", entities.CharacterRoleNPC, "")
	s.Require().NoError(s.orch.AddCharacter(ch, "forest"))
	ch.Name = "Changed"
	s.Equal("New", s.orch.Campaign().Character("npc-new").Name, "the roster keeps its own copy")
}
