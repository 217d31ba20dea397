package economy

import "github.com/bwmarrin/discordgo"

// commands is the list of slash commands the Economy module registers.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "balance",
		Description: "Show your XP, level, coins and streak",
	},
	{
		Name:        "gamble",
		Description: "Play a gambling game",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "game",
				Description: "Game name",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "highlow", Value: "highlow"},
					{Name: "coinflip", Value: "coinflip"},
					{Name: "dice", Value: "dice"},
					{Name: "slots", Value: "slots"},
					{Name: "bomb", Value: "bomb"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "bet",
				Description: "Bet amount",
				Required:    true,
			},
		},
	},
	{
		Name:        "buycurrency",
		Description: "Convert XP into coins (10 XP = 1 coin)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Amount of coins to buy with XP",
				Required:    true,
			},
		},
	},
	{
		Name:        "transferxp",
		Description: "Transfer some of your XP to another member",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Member to receive the XP",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "Amount of XP to transfer",
				Required:    true,
			},
		},
	},
	{
		Name:        "shop",
		Description: "View the shop roles available for purchase",
	},
	{
		Name:        "buyrole",
		Description: "Buy a Discord role with coins",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Role to purchase",
				Required:    true,
			},
		},
	},
	{
		Name:        "addshoprole",
		Description: "Add a role to the shop (admin only)",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Role to add to shop",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "cost",
				Description: "Cost in coins",
				Required:    true,
			},
		},
	},
	{
		Name:        "help",
		Description: "Show command help",
	},
}

var adminCommands = map[string]bool{
	"addshoprole": true,
}
