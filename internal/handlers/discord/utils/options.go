package utils

import "github.com/bwmarrin/discordgo"

// SubcommandOptions returns the options of the invoked subcommand, drilling
// through the command and any subcommand group.
func SubcommandOptions(data discordgo.ApplicationCommandInteractionData) (string, []*discordgo.ApplicationCommandInteractionDataOption) {
	options := data.Options
	for len(options) == 1 {
		opt := options[0]
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommandGroup:
			options = opt.Options
		case discordgo.ApplicationCommandOptionSubCommand:
			return opt.Name, opt.Options
		default:
			return "", options
		}
	}
	return "", options
}

// StringOption returns the named string option or ""
func StringOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, opt := range options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

// IntOption returns the named integer option or fallback when absent
func IntOption(options []*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int) int {
	for _, opt := range options {
		if opt.Name == name && opt.Type == discordgo.ApplicationCommandOptionInteger {
			return int(opt.IntValue())
		}
	}
	return fallback
}

// UserID returns the invoking user in guilds and DMs
func UserID(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.ID
	case i.User != nil:
		return i.User.ID
	default:
		return ""
	}
}
