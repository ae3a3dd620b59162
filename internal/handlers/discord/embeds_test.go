package discord

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/catalog"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
)

func TestBuildActionComponents(t *testing.T) {
	actions := []catalog.Action{
		{ID: catalog.ActionMove, Label: "移動する", Enabled: true},
		{ID: catalog.ActionAttack, Label: "攻撃する", DisabledReason: "no enemies"},
		{ID: catalog.ExplorePrefix + "search-well", Label: "井戸を調べる", Enabled: true},
		{ID: catalog.ActionChat, Label: "自由行動", Enabled: true},
	}

	rows := buildActionComponents(actions)
	require.Len(t, rows, 1)
	buttons := rows[0].(discordgo.ActionsRow).Components
	require.Len(t, buttons, 3, "chat has no button")

	attack := buttons[1].(discordgo.Button)
	assert.Equal(t, "trpg:act:attack", attack.CustomID)
	assert.Equal(t, discordgo.DangerButton, attack.Style)
	assert.True(t, attack.Disabled)

	explore := buttons[2].(discordgo.Button)
	assert.Equal(t, "trpg:act:explore:search-well", explore.CustomID)
	assert.Equal(t, discordgo.SecondaryButton, explore.Style)
}

func TestBuildActionComponents_WrapsRows(t *testing.T) {
	var actions []catalog.Action
	for i := 0; i < 7; i++ {
		actions = append(actions, catalog.Action{ID: catalog.ActionRest, Label: "休息する", Enabled: true})
	}

	rows := buildActionComponents(actions)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0].(discordgo.ActionsRow).Components, buttonsPerRow)
	assert.Len(t, rows[1].(discordgo.ActionsRow).Components, 2)
}

func TestBuildTurnEmbed_DayAdvanced(t *testing.T) {
	embed := buildTurnEmbed(&turn.Result{
		DayAdvanced: true,
		State:       &entities.SessionState{CurrentDay: 2},
	})
	assert.Equal(t, colorDay, embed.Color)
	assert.Contains(t, embed.Title, "2")
}

func TestBuildTurnEmbed_LastActionOfDay(t *testing.T) {
	embed := buildTurnEmbed(&turn.Result{
		Record: &entities.TurnRecord{Turn: 3, Day: 1, Action: "rest", Narration: "夜が来た。"},
		State:  &entities.SessionState{Phase: entities.PhaseDayAdvance, ActionCount: 3, MaxActionsPerDay: 3},
	})
	assert.Equal(t, "夜が来た。", embed.Description)
	assert.Contains(t, embed.Footer.Text, "The day is over")
}

func TestBuildMoveMenu_SkipsCurrentLocation(t *testing.T) {
	bases := []*entities.Base{{ID: "village", Name: "霧の村"}}
	assert.Nil(t, buildMoveMenu(bases, "village"))
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ai failure",
			err:  dnderr.AIAPIError(dnderr.New(dnderr.CodeAITimeout, "deadline")),
			want: "⚠️ " + dnderr.AIAPIErrorMessage,
		},
		{
			name: "busy",
			err:  dnderr.New(dnderr.CodeTurnInProgress, "busy"),
			want: "⏳",
		},
		{
			name: "target",
			err:  dnderr.TargetNotFound("wolf-1"),
			want: "🎯",
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			want: "❌ boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, userMessage(tt.err), tt.want)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "霧の村", truncate("霧の村", 3))
	assert.Equal(t, "霧…", truncate("霧の村", 2))
}
