package discord

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
)

// RecoverMiddleware wraps an interaction handler so a panic is logged and
// reported to the user instead of crashing the gateway goroutine
func RecoverMiddleware(logger *slog.Logger, handlerName string, handler func(responder, *discordgo.InteractionCreate)) func(responder, *discordgo.InteractionCreate) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(r responder, i *discordgo.InteractionCreate) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("discord: panic in handler",
					"handler", handlerName,
					"panic", p,
					"stack", string(debug.Stack()))
				respondWithError(logger, r, i, fmt.Sprintf("An unexpected error occurred: %v", p))
			}
		}()

		handler(r, i)
	}
}

// respondWithError tries a fresh response first, then an edit of a deferred one
func respondWithError(logger *slog.Logger, r responder, i *discordgo.InteractionCreate, message string) {
	content := "❌ " + message
	if err := respondEphemeral(r, i, content); err == nil {
		return
	}
	if _, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err == nil {
		return
	}
	logger.Warn("discord: failed to send error response", "message", message)
}
