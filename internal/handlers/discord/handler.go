package discord

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/trpg-session-engine/internal/clients/dnd5e"
	"github.com/KirkDiggler/trpg-session-engine/internal/repositories/campaigns"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/exploration"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
)

const commandName = "trpg"

// responder is the part of *discordgo.Session the handler talks to
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Handler handles all Discord interactions. Each channel runs at most one
// session; the channel id is the session id.
type Handler struct {
	manager   *turn.Manager
	campaigns campaigns.Repository
	importer  dnd5e.Importer
	tracker   *exploration.Tracker
	logger    *slog.Logger
}

// HandlerConfig holds configuration for the Discord handler
type HandlerConfig struct {
	Manager   *turn.Manager        // Required
	Campaigns campaigns.Repository // Required
	Importer  dnd5e.Importer       // Optional, /trpg spawn generates enemies without it
	Tracker   *exploration.Tracker // Optional
	Logger    *slog.Logger         // Optional
}

// NewHandler creates a new Discord handler
func NewHandler(cfg *HandlerConfig) *Handler {
	if cfg.Manager == nil {
		panic("session manager is required")
	}
	if cfg.Campaigns == nil {
		panic("campaign repository is required")
	}

	h := &Handler{
		manager:   cfg.Manager,
		campaigns: cfg.Campaigns,
		importer:  cfg.Importer,
		tracker:   cfg.Tracker,
		logger:    cfg.Logger,
	}
	if h.tracker == nil {
		h.tracker = exploration.NewTracker(nil)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Commands returns the slash command definitions
func Commands() []*discordgo.ApplicationCommand {
	stringOpt := func(name, description string, required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        name,
			Description: description,
			Required:    required,
		}
	}
	sub := func(name, description string, options ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: description,
			Options:     options,
		}
	}

	return []*discordgo.ApplicationCommand{{
		Name:        commandName,
		Description: "TRPG session commands",
		Options: []*discordgo.ApplicationCommandOption{
			sub("open", "Open a campaign session in this channel", stringOpt("campaign", "Campaign ID", true)),
			sub("select", "Select the acting player character", stringOpt("character", "Character ID", true)),
			sub("start", "Start play with the selected character"),
			sub("act", "Take a free-text action", stringOpt("text", "What your character does", true)),
			sub("actions", "Show the actions available right now"),
			sub("status", "Show the session status"),
			sub("next-day", "Advance to the next day once today's actions are used"),
			sub("spawn", "Add a 5e monster, or an AI-made enemy, to the current location",
				stringOpt("monster", "Monster key like goblin, or a description", true),
				&discordgo.ApplicationCommandOption{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Enemy level",
				},
				stringOpt("location", "Base ID, defaults to the party's location", false),
			),
			sub("npc", "Add an AI-made NPC to the current location", stringOpt("description", "Who they are", true)),
			sub("preview", "Preview the exploration a milestone needs", stringOpt("milestone", "Milestone ID", true)),
			sub("reset", "Restart the session from the stored campaign"),
			sub("end", "End the session and save the campaign"),
			sub("campaigns", "List your campaigns"),
		},
	}}
}

// RegisterCommands registers all slash commands with Discord
func (h *Handler) RegisterCommands(s *discordgo.Session, guildID string) error {
	for _, cmd := range Commands() {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, guildID, cmd); err != nil {
			return err
		}
	}
	h.logger.Info("discord: commands registered", "guild_id", guildID)
	return nil
}

// HandleInteraction handles all Discord interactions
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	RecoverMiddleware(h.logger, "interaction", func(r responder, i *discordgo.InteractionCreate) {
		h.handle(context.Background(), r, i)
	})(s, i)
}

func (h *Handler) handle(ctx context.Context, r responder, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(ctx, r, i)
	case discordgo.InteractionMessageComponent:
		h.handleComponent(ctx, r, i)
	}
}

func respond(r responder, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	return r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func respondEphemeral(r responder, i *discordgo.InteractionCreate, content string) error {
	return respond(r, i, &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func respondError(r responder, i *discordgo.InteractionCreate, err error) error {
	return respondEphemeral(r, i, userMessage(err))
}
