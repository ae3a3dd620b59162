package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/trpg-session-engine/internal/services/catalog"
	"github.com/KirkDiggler/trpg-session-engine/internal/services/turn"
)

func (h *Handler) handleComponent(ctx context.Context, r responder, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()
	id, err := ParseCustomID(data.CustomID)
	if err != nil {
		// not ours
		return
	}

	switch id.Action {
	case componentAct:
		err = h.handleActButton(ctx, r, i, id.Target)
	case componentTarget:
		if len(data.Values) == 0 {
			return
		}
		err = h.submit(ctx, r, i, turn.PlayerAction{
			Kind:     turn.ActionKindCatalog,
			ActionID: catalog.ActionAttack,
			TargetID: data.Values[0],
		})
	case componentMove:
		if len(data.Values) == 0 {
			return
		}
		err = h.submit(ctx, r, i, turn.PlayerAction{
			Kind:          turn.ActionKindCatalog,
			ActionID:      catalog.ActionMove,
			DestinationID: data.Values[0],
		})
	default:
		h.logger.Warn("discord: unknown component", "custom_id", data.CustomID)
		return
	}

	if err != nil {
		h.logger.Error("discord: component failed",
			"custom_id", data.CustomID,
			"channel_id", i.ChannelID,
			"err", err)
	}
}

// handleActButton submits parameterless actions and asks for a target or destination otherwise
func (h *Handler) handleActButton(ctx context.Context, r responder, i *discordgo.InteractionCreate, actionID string) error {
	o, err := h.session(r, i)
	if o == nil {
		return err
	}

	switch actionID {
	case catalog.ActionAttack:
		state := o.Snapshot()
		menu := buildTargetMenu(o.Campaign().LivingEnemiesAt(state.CurrentLocationID))
		if menu == nil {
			return respondEphemeral(r, i, "🎯 There is nothing to attack here.")
		}
		return respond(r, i, &discordgo.InteractionResponseData{Components: menu, Flags: discordgo.MessageFlagsEphemeral})
	case catalog.ActionMove:
		state := o.Snapshot()
		menu := buildMoveMenu(o.Campaign().Bases, state.CurrentLocationID)
		if menu == nil {
			return respondEphemeral(r, i, "📍 There is nowhere else to go.")
		}
		return respond(r, i, &discordgo.InteractionResponseData{Components: menu, Flags: discordgo.MessageFlagsEphemeral})
	default:
		return h.submit(ctx, r, i, turn.PlayerAction{Kind: turn.ActionKindCatalog, ActionID: actionID})
	}
}
