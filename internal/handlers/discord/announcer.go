package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/KirkDiggler/trpg-session-engine/internal/events"
)

const announcerID = "discord-announcer"

// messenger is the part of *discordgo.Session the announcer posts through
type messenger interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts session events that no interaction response covers.
// The session id is the channel id.
type Announcer struct {
	messenger messenger
	logger    *slog.Logger
}

// NewAnnouncer creates an announcer posting through m
func NewAnnouncer(m messenger, logger *slog.Logger) *Announcer {
	if m == nil {
		panic("messenger is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{messenger: m, logger: logger}
}

// Subscribe registers the announcer after persistence listeners
func (a *Announcer) Subscribe(bus *events.Bus) {
	listener := &events.ListenerFunc{
		Name:  announcerID,
		Order: events.PriorityPresentation,
		Fn:    a.HandleEvent,
	}
	bus.Subscribe(events.EventTypeEnemyDefeated, listener)
	bus.Subscribe(events.EventTypeSessionEnded, listener)
}

// HandleEvent posts the embed for evt. Send failures are logged, not returned,
// so a Discord outage never fails the turn that emitted the event.
func (a *Announcer) HandleEvent(evt events.Event) error {
	embed := announcement(evt)
	if embed == nil || evt.GetSessionID() == "" {
		return nil
	}
	if _, err := a.messenger.ChannelMessageSendEmbed(evt.GetSessionID(), embed); err != nil {
		a.logger.Warn("discord: announcement failed",
			"event", evt.GetType(),
			"channel_id", evt.GetSessionID(),
			"err", err)
	}
	return nil
}

func announcement(evt events.Event) *discordgo.MessageEmbed {
	switch e := evt.(type) {
	case *events.EnemyDefeatedEvent:
		return &discordgo.MessageEmbed{
			Title: fmt.Sprintf("💀 %s is defeated!", e.EnemyName),
			Color: colorDefeated,
		}
	case *events.SessionEndedEvent:
		// "ended" is answered by /trpg end itself
		if e.Reason != "reset" {
			return nil
		}
		return &discordgo.MessageEmbed{
			Title:       "🔄 Session reset",
			Description: "Any turn in progress was discarded.",
			Color:       colorEnded,
		}
	}
	return nil
}
