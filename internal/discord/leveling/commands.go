package leveling

import "github.com/bwmarrin/discordgo"

// commands is the list of slash commands the Leveling module registers.
// adminCommands names the subset gated behind the administrator permission;
// the dispatcher checks it before any handler runs.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "rank",
		Description: "Show your XP, level and streak",
	},
	{
		Name:        "leaderboard",
		Description: "Show the top server members by XP",
	},
	{
		Name:        "setxprate",
		Description: "Set the XP granted per message and per voice minute",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "message",
				Description: "XP per message",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "voice",
				Description: "XP per voice minute",
				Required:    true,
			},
		},
	},
	{
		Name:        "setbooster",
		Description: "Set the XP multiplier for server boosters",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "multiplier",
				Description: "Multiplier applied to booster grants (at least 1.0)",
				Required:    true,
			},
		},
	},
	{
		Name:        "allowchannel",
		Description: "Add a channel to the XP allow-list (empty list allows all channels)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Channel to allow XP in",
				Required:    true,
			},
		},
	},
	{
		Name:        "clearchannels",
		Description: "Clear the XP allow-list so every channel grants XP again",
	},
	{
		Name:        "levelrole",
		Description: "Manage roles auto-assigned by level range",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Map a level range to a role",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to grant",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "min",
						Description: "Minimum level (inclusive)",
						Required:    true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "max",
						Description: "Maximum level (inclusive)",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a level-role mapping",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionRole,
						Name:        "role",
						Description: "Role to unmap",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List the configured level-role ranges",
			},
		},
	},
	{
		Name:        "setdecay",
		Description: "Set the inactivity decay policy",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "days",
				Description: "Days of inactivity before decay starts (0 disables)",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "fraction",
				Description: "Fraction of XP lost per daily sweep (0 to 1)",
				Required:    true,
			},
		},
	},
	{
		Name:        "setstreakgoal",
		Description: "Set the messages per day required to extend a streak",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "messages",
				Description: "Qualifying messages required per day",
				Required:    true,
			},
		},
	},
	{
		Name:        "setrewardrole",
		Description: "Set the role held by the current #1 on the leaderboard",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Reward role",
				Required:    true,
			},
		},
	},
	{
		Name:        "setlevelupchannel",
		Description: "Set the channel level-up announcements are posted to",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Announcement channel",
				Required:    true,
			},
		},
	},
}

var adminCommands = map[string]bool{
	"setxprate":         true,
	"setbooster":        true,
	"allowchannel":      true,
	"clearchannels":     true,
	"levelrole":         true,
	"setdecay":          true,
	"setstreakgoal":     true,
	"setrewardrole":     true,
	"setlevelupchannel": true,
}
