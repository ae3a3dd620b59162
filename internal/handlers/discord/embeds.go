package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/catalog"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/exploration"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
)

const (
	colorStatus   = 0x3498db
	colorTurn     = 0x9b59b6
	colorDay      = 0xf1c40f
	colorDefeated = 0x2ecc71
	colorEnded    = 0x95a5a6

	buttonsPerRow = 5
	maxRows       = 5

	// Discord caps embed field values at 1024 characters
	maxFieldValue = 1024
)

var phaseLabels = map[entities.TurnPhase]string{
	entities.PhaseAwaitingCharacterSelection: "Waiting for a character",
	entities.PhaseAwaitingPlayerAction:       "Waiting for an action",
	entities.PhaseNarrationPending:           "The GM is narrating…",
	entities.PhaseResolvingNPCActions:        "NPCs are acting…",
	entities.PhaseResolvingCombat:            "Resolving combat…",
	entities.PhaseTurnSummary:                "Summarizing",
	entities.PhaseDayAdvance:                 "Day is over",
}

func locationName(campaign *entities.Campaign, id string) string {
	if base := campaign.Base(id); base != nil {
		return base.Name
	}
	if id == "" {
		return "nowhere"
	}
	return id + " (unregistered)"
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}

// buildStatusEmbed shows where the session stands
func buildStatusEmbed(state *entities.SessionState, campaign *entities.Campaign) *discordgo.MessageEmbed {
	actor := "none selected"
	if ch := campaign.Character(state.SelectedCharacterID); ch != nil {
		actor = fmt.Sprintf("%s (HP %d/%d)", ch.Name, ch.Status.CurrentHP, ch.Stats.HP)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "📜 " + campaign.Title,
		Description: phaseLabels[state.Phase],
		Color:       colorStatus,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📅 Day", Value: fmt.Sprintf("%d", state.CurrentDay), Inline: true},
			{Name: "⏳ Actions", Value: fmt.Sprintf("%d/%d", state.ActionCount, state.MaxActionsPerDay), Inline: true},
			{Name: "🔁 Turn", Value: fmt.Sprintf("%d", state.TurnNumber), Inline: true},
			{Name: "📍 Location", Value: locationName(campaign, state.CurrentLocationID), Inline: true},
			{Name: "🧙 Acting", Value: actor, Inline: true},
		},
	}

	if len(state.History) > 0 {
		last := state.History[len(state.History)-1]
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "📖 Last turn",
			Value: truncate(last.Summary, maxFieldValue),
		})
	}
	if state.LastError != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Last error",
			Value: state.LastError,
		})
	}
	return embed
}

// buildTurnEmbed shows the outcome of a submission
func buildTurnEmbed(result *turn.Result) *discordgo.MessageEmbed {
	if result.DayAdvanced {
		return buildDayEmbed(result.State.CurrentDay)
	}

	record := result.Record
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Day %d · Turn %d", record.Day, record.Turn),
		Description: truncate(record.Narration, 4096),
		Color:       colorTurn,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🎭 Action", Value: truncate(record.Action, maxFieldValue)},
		},
	}
	if len(record.NPCActions) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "🧑‍🤝‍🧑 NPCs",
			Value: truncate(strings.Join(record.NPCActions, "\n"), maxFieldValue),
		})
	}
	if len(record.Combat) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚔️ Combat",
			Value: truncate(strings.Join(record.Combat, "\n"), maxFieldValue),
		})
	}

	state := result.State
	footer := fmt.Sprintf("Actions left today: %d", state.MaxActionsPerDay-state.ActionCount)
	if state.Phase == entities.PhaseDayAdvance {
		footer = "The day is over. Any action starts the next day."
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	return embed
}

func buildDayEmbed(day int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🌅 Day %d begins", day),
		Color: colorDay,
	}
}

// buildActionComponents renders the catalog as buttons. Free text goes
// through /trpg act, so chat gets no button.
func buildActionComponents(actions []catalog.Action) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	var row []discordgo.MessageComponent

	for _, a := range actions {
		if a.ID == catalog.ActionChat {
			continue
		}
		id, err := CustomID{Action: componentAct, Target: a.ID}.Encode()
		if err != nil {
			continue
		}

		style := discordgo.PrimaryButton
		switch {
		case a.ID == catalog.ActionAttack:
			style = discordgo.DangerButton
		case strings.HasPrefix(a.ID, catalog.ExplorePrefix):
			style = discordgo.SecondaryButton
		}

		row = append(row, discordgo.Button{
			Label:    truncate(a.Label, 80),
			Style:    style,
			CustomID: id,
			Disabled: !a.Enabled,
		})
		if len(row) == buttonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: row})
			row = nil
		}
		if len(rows) == maxRows {
			return rows
		}
	}
	if len(row) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

// buildTargetMenu lists the living enemies that can be attacked
func buildTargetMenu(enemies []*entities.EnemyCharacter) []discordgo.MessageComponent {
	var options []discordgo.SelectMenuOption
	for _, e := range enemies {
		options = append(options, discordgo.SelectMenuOption{
			Label:       truncate(e.Name, 100),
			Value:       e.ID,
			Description: fmt.Sprintf("%s · HP %d/%d", e.Rank, e.Status.CurrentHP, e.DerivedStats.HP),
		})
	}
	return selectMenu(componentTarget, "Choose a target", options)
}

// buildMoveMenu lists every registered base except the current one
func buildMoveMenu(bases []*entities.Base, currentID string) []discordgo.MessageComponent {
	var options []discordgo.SelectMenuOption
	for _, b := range bases {
		if b.ID == currentID {
			continue
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: truncate(b.Name, 100),
			Value: b.ID,
		})
	}
	return selectMenu(componentMove, "Choose a destination", options)
}

func selectMenu(action, placeholder string, options []discordgo.SelectMenuOption) []discordgo.MessageComponent {
	if len(options) == 0 {
		return nil
	}
	if len(options) > 25 {
		options = options[:25]
	}
	id, _ := CustomID{Action: action}.Encode()
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				CustomID:    id,
				Placeholder: placeholder,
				Options:     options,
			},
		}},
	}
}

// buildCampaignListEmbed lists stored campaigns, newest first
func buildCampaignListEmbed(summaries []*entities.CampaignSummary) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "📚 Campaigns",
		Color: colorStatus,
	}
	if len(summaries) == 0 {
		embed.Description = "No campaigns yet."
		return embed
	}

	var lines []string
	for _, s := range summaries {
		lines = append(lines, fmt.Sprintf("`%s` **%s** · %s · updated %s",
			s.ID, s.Title, s.Status, s.UpdatedAt.Format("2006-01-02")))
	}
	embed.Description = truncate(strings.Join(lines, "\n"), 4096)
	return embed
}

// buildPreviewEmbed summarizes an exploration preview
func buildPreviewEmbed(title string, preview *exploration.Preview) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "🗺️ " + title,
		Color: colorStatus,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Actions", Value: fmt.Sprintf("%d", preview.TotalActions), Inline: true},
			{Name: "Minutes", Value: fmt.Sprintf("%d", preview.TotalMinutes), Inline: true},
			{Name: "Days", Value: fmt.Sprintf("%d", preview.EstimatedDays), Inline: true},
		},
	}

	var lines []string
	for _, a := range preview.Actions {
		lines = append(lines, fmt.Sprintf("• %s (%d min)", a.Action.Title, a.Minutes))
	}
	if len(lines) > 0 {
		embed.Description = truncate(strings.Join(lines, "\n"), 4096)
	}
	if len(preview.Unresolved) > 0 {
		var missing []string
		for _, src := range preview.Unresolved {
			missing = append(missing, fmt.Sprintf("%s %s", src.Type, src.ID))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Unresolved",
			Value: truncate(strings.Join(missing, ", "), maxFieldValue),
		})
	}
	return embed
}

// userMessage turns an engine error into what players see
func userMessage(err error) string {
	switch dnderr.GetCode(err) {
	case dnderr.CodeAIAPIError:
		return "⚠️ " + dnderr.AIAPIErrorMessage + ". Nothing was used up, submit your action again."
	case dnderr.CodeTurnInProgress:
		return "⏳ A turn is already being resolved."
	case dnderr.CodeNoCharacterSelected:
		return "🧙 Select a character first with `/trpg select`."
	case dnderr.CodeTargetNotFound:
		return "🎯 That target is not here."
	case dnderr.CodeLocationUnregistered:
		return "📍 That location is not registered in this campaign."
	case dnderr.CodeSessionEnded:
		return "📕 The session ended before the turn finished."
	default:
		return "❌ " + err.Error()
	}
}
