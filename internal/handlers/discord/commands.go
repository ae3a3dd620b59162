package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/trpg-session-engine/internal/entities"
	dnderr "github.com/KirkDiggler/trpg-session-engine/internal/errors"
	"github.com/KirkDiggler/trpg-session-engine/internal/handlers/discord/utils"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
)

type commandFunc func(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error

func (h *Handler) commands() map[string]commandFunc {
	return map[string]commandFunc{
		"open":      h.handleOpen,
		"select":    h.handleSelect,
		"start":     h.handleStart,
		"act":       h.handleAct,
		"actions":   h.handleActions,
		"status":    h.handleStatus,
		"next-day":  h.handleNextDay,
		"spawn":     h.handleSpawn,
		"npc":       h.handleNPC,
		"preview":   h.handlePreview,
		"reset":     h.handleReset,
		"end":       h.handleEnd,
		"campaigns": h.handleCampaigns,
	}
}

func (h *Handler) handleCommand(ctx context.Context, r responder, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != commandName {
		return
	}

	name, options := utils.SubcommandOptions(data)
	fn, ok := h.commands()[name]
	if !ok {
		h.logger.Warn("discord: unknown subcommand", "subcommand", name)
		return
	}

	if err := fn(ctx, r, i, options); err != nil {
		h.logger.Error("discord: command failed",
			"subcommand", name,
			"channel_id", i.ChannelID,
			"err", err)
	}
}

func (h *Handler) session(r responder, i *discordgo.InteractionCreate) (*turn.Orchestrator, error) {
	o, err := h.manager.Get(i.ChannelID)
	if err != nil {
		return nil, respondEphemeral(r, i, "📕 No session is running in this channel. Start one with `/trpg open`.")
	}
	return o, nil
}

// requireGamemaster answers and returns false when the user does not run the campaign
func requireGamemaster(r responder, i *discordgo.InteractionCreate, campaign *entities.Campaign) (bool, error) {
	if campaign.GamemasterID == "" || campaign.GamemasterID == utils.UserID(i) {
		return true, nil
	}
	return false, respondEphemeral(r, i, "🔒 Only the gamemaster can do that.")
}

func (h *Handler) handleOpen(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.manager.Open(ctx, i.ChannelID, utils.StringOption(options, "campaign"))
	if err != nil {
		return respondError(r, i, err)
	}

	campaign := o.Campaign()
	var pcs []string
	for _, ch := range campaign.Characters {
		if ch.IsPlayerCharacter() {
			pcs = append(pcs, fmt.Sprintf("`%s` %s", ch.ID, ch.Name))
		}
	}

	content := "Select a character with `/trpg select`."
	if len(pcs) > 0 {
		content = "Player characters: " + strings.Join(pcs, ", ") + "\n" + content
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{buildStatusEmbed(o.Snapshot(), campaign)},
	})
}

func (h *Handler) handleSelect(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	state, err := o.SelectCharacter(utils.StringOption(options, "character"))
	if err != nil {
		return respondError(r, i, err)
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{buildStatusEmbed(state, o.Campaign())},
	})
}

func (h *Handler) handleStart(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	state, err := o.Start()
	if err != nil {
		return respondError(r, i, err)
	}

	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{buildStatusEmbed(state, o.Campaign())},
	}
	if actions, err := o.Actions(); err == nil {
		data.Components = buildActionComponents(actions)
	}
	return respond(r, i, data)
}

func (h *Handler) handleAct(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	return h.submit(ctx, r, i, turn.PlayerAction{
		Kind: turn.ActionKindChat,
		Text: utils.StringOption(options, "text"),
	})
}

func (h *Handler) handleActions(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	actions, err := o.Actions()
	if err != nil {
		return respondError(r, i, err)
	}

	var disabled []string
	for _, a := range actions {
		if !a.Enabled {
			disabled = append(disabled, fmt.Sprintf("~~%s~~ %s", a.Label, a.DisabledReason))
		}
	}
	content := "Choose an action, or use `/trpg act` for anything else."
	if len(disabled) > 0 {
		content += "\n" + strings.Join(disabled, "\n")
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Content:    content,
		Components: buildActionComponents(actions),
	})
}

func (h *Handler) handleStatus(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{buildStatusEmbed(o.Snapshot(), o.Campaign())},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (h *Handler) handleNextDay(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	state, err := o.AdvanceDay(ctx)
	if err != nil {
		return respondError(r, i, err)
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{buildDayEmbed(state.CurrentDay)},
	})
}

func (h *Handler) handleSpawn(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	campaign := o.Campaign()
	if ok, err := requireGamemaster(r, i, campaign); !ok {
		return err
	}

	// the bestiary lookup and generation can be slow
	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return fmt.Errorf("failed to acknowledge interaction: %w", err)
	}

	location := utils.StringOption(options, "location")
	if location == "" {
		location = o.Snapshot().CurrentLocationID
	}

	var content string
	enemy, generated, err := h.enemyFor(ctx, o, utils.StringOption(options, "monster"), utils.IntOption(options, "level", 1))
	if err == nil {
		err = o.SpawnEnemy(enemy, location)
	}
	if err != nil {
		content = userMessage(err)
	} else {
		content = fmt.Sprintf("👹 **%s** (%s, HP %d) appears at %s!",
			enemy.Name, enemy.Rank, enemy.DerivedStats.HP, locationName(campaign, location))
		if generated {
			content = "✨ " + content
		}
	}

	_, editErr := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	return editErr
}

// enemyFor imports monster from the bestiary. Keys the bestiary cannot serve
// are treated as a description and the AI generates the enemy instead.
func (h *Handler) enemyFor(ctx context.Context, o *turn.Orchestrator, monster string, level int) (*entities.EnemyCharacter, bool, error) {
	if h.importer != nil {
		enemy, err := h.importer.Enemy(ctx, monster, level)
		if err == nil {
			return enemy, false, nil
		}
		if !dnderr.IsNotFound(err) && !dnderr.Is(err, dnderr.CodeUnavailable) {
			return nil, false, err
		}
		h.logger.Info("discord: bestiary miss, generating enemy", "monster", monster, "err", err)
	}

	enemies, err := o.GenerateEnemies(ctx, monster, level)
	if err != nil {
		return nil, false, err
	}
	return enemies[0], true, nil
}

func (h *Handler) handleNPC(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	campaign := o.Campaign()
	if ok, err := requireGamemaster(r, i, campaign); !ok {
		return err
	}

	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return fmt.Errorf("failed to acknowledge interaction: %w", err)
	}

	location := o.Snapshot().CurrentLocationID
	var content string
	characters, err := o.GenerateCharacters(ctx, utils.StringOption(options, "description"))
	if err == nil {
		err = o.AddCharacter(characters[0], location)
	}
	if err != nil {
		content = userMessage(err)
	} else {
		content = fmt.Sprintf("🧑 **%s** joins the scene at %s.", characters[0].Name, locationName(campaign, location))
		if d := characters[0].Description; d != "" {
			content += "\n" + truncate(d, 300)
		}
	}

	_, editErr := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content})
	return editErr
}

func (h *Handler) handlePreview(ctx context.Context, r responder, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	campaign := o.Campaign()
	id := utils.StringOption(options, "milestone")
	milestone := campaign.Milestone(id)
	if milestone == nil {
		return respondError(r, i, dnderr.NotFoundf("milestone not found: %s", id))
	}

	preview := h.tracker.PreviewMilestone(campaign, milestone)
	return respond(r, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{buildPreviewEmbed(milestone.Title, preview)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (h *Handler) handleReset(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}
	current := o.Campaign()
	if ok, err := requireGamemaster(r, i, current); !ok {
		return err
	}

	stored, err := h.campaigns.Load(ctx, current.ID)
	if err != nil {
		return respondError(r, i, err)
	}
	state, err := o.ResetSession(stored)
	if err != nil {
		return respondError(r, i, err)
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Content: "🔄 The session starts over.",
		Embeds:  []*discordgo.MessageEmbed{buildStatusEmbed(state, stored)},
	})
}

func (h *Handler) handleEnd(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	campaign, err := h.manager.Close(ctx, i.ChannelID)
	if err != nil {
		return respondError(r, i, err)
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📕 Session ended",
			Description: fmt.Sprintf("%s is saved. Total play time: %d minutes.", campaign.Title, campaign.TotalPlayTime),
			Color:       colorEnded,
		}},
	})
}

func (h *Handler) handleCampaigns(ctx context.Context, r responder, i *discordgo.InteractionCreate, _ []*discordgo.ApplicationCommandInteractionDataOption) error {
	summaries, err := h.campaigns.List(ctx, utils.UserID(i))
	if err != nil {
		return respondError(r, i, err)
	}
	return respond(r, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{buildCampaignListEmbed(summaries)},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// submit runs a turn behind a deferred response; AI calls outlast Discord's 3s window
func (h *Handler) submit(ctx context.Context, r responder, i *discordgo.InteractionCreate, action turn.PlayerAction) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}

	if err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		return fmt.Errorf("failed to acknowledge interaction: %w", err)
	}

	edit := &discordgo.WebhookEdit{}
	result, err := o.SubmitAction(ctx, action)
	if err != nil {
		content := userMessage(err)
		if dnderr.Is(err, dnderr.CodeTargetNotFound) {
			// Offer the targets that are still here
			menu := buildTargetMenu(o.Campaign().LivingEnemiesAt(o.Snapshot().CurrentLocationID))
			if menu != nil {
				content += " Choose another target."
				edit.Components = &menu
			}
		}
		edit.Content = &content
	} else {
		embeds := []*discordgo.MessageEmbed{buildTurnEmbed(result)}
		edit.Embeds = &embeds
		if actions, err := o.Actions(); err == nil {
			components := buildActionComponents(actions)
			edit.Components = &components
		}
	}

	_, err = r.InteractionResponseEdit(i.Interaction, edit)
	return err
}
