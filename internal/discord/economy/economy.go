package economy

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/progression"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	name        = "Economy"
	description = "Coins, gambling games, XP transfers and the role shop"
)

var (
	ErrModuleAlreadyDisabled = errors.New("module is already disabled")
	ErrModuleAlreadyEnabled  = errors.New("module is already enabled")
)

// Economy is the per-guild economy module.
type Economy struct {
	guildName      string
	guildSnowflake string
	appId          string
	session        *discordgo.Session
	repo           *Repository
	log            *zerolog.Logger

	rngMu sync.Mutex // discordgo dispatches handlers concurrently
	rng   *rand.Rand
}

// New returns an instance of the economy module
func New(
	guildName string,
	guildSnowflake string,
	appId string,
	session *discordgo.Session,
	db *gorm.DB,
	log *zerolog.Logger,
) *Economy {
	l := log.With().
		Str("module", name).
		Str("guild_name", guildName).
		Str("guild_snowflake", guildSnowflake).
		Logger()

	return &Economy{
		guildName:      guildName,
		guildSnowflake: guildSnowflake,
		appId:          appId,
		session:        session,
		repo:           NewRepository(db),
		log:            &l,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Load is called when a guild first becomes available or on reconnect
func (e *Economy) Load() error {
	mod, err := e.repo.ReadModule(e.guildSnowflake)
	if err == gorm.ErrRecordNotFound {
		e.log.Debug().Msg("economy module not found, creating...")

		cfgJson, _ := json.Marshal(struct{}{})

		cmdMap := make(map[string]bool)
		for _, cmd := range commands {
			cmdMap[cmd.Name] = true
		}
		cmdJson, _ := json.Marshal(cmdMap)

		insert := &database.Module{
			GuildSnowflake: e.guildSnowflake,
			Name:           name,
			Description:    description,
			Enabled:        true,
			Config:         cfgJson,
			Commands:       cmdJson,
		}
		if mod, err = e.repo.CreateModule(insert); err != nil {
			return fmt.Errorf("unable to create economy module: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to read economy module from DB: %w", err)
	}

	if !mod.Enabled {
		e.log.Debug().Msg("economy module disabled, skipping load")
		return nil
	}

	var cmds map[string]bool
	if err := json.Unmarshal([]byte(mod.Commands), &cmds); err != nil {
		return fmt.Errorf("critical error unmarshalling command map: %w", err)
	}

	updated := false
	for _, cmd := range commands {
		if _, ok := cmds[cmd.Name]; !ok {
			cmds[cmd.Name] = true
			updated = true
		}
	}
	if updated {
		newCmdJson, _ := json.Marshal(cmds)
		mod.Commands = newCmdJson
		_, err = e.repo.UpdateModule(mod)
		if err != nil {
			return fmt.Errorf("unable to update economy module commands: %w", err)
		}
	}

	for _, cmd := range commands {
		if !cmds[cmd.Name] {
			e.log.Debug().Str("command", cmd.Name).Msg("command disabled, skipping")
			continue
		}
		_, err := e.session.ApplicationCommandCreate(e.appId, e.guildSnowflake, cmd)
		if err != nil {
			e.log.Error().Err(err).Str("command", cmd.Name).Msg("error registering command")
		}
	}

	e.log.Debug().Msgf("economy module loaded for guild %s", e.guildName)
	return nil
}

// Enable sets the economy module as enabled in DB and registers commands
func (e *Economy) Enable() error {
	mod, err := e.repo.ReadModule(e.guildSnowflake)
	if err != nil {
		return err
	}
	if mod.Enabled {
		return ErrModuleAlreadyEnabled
	}
	mod.Enabled = true
	if _, err := e.repo.UpdateModule(mod); err != nil {
		return err
	}

	var cmds map[string]bool
	if err := json.Unmarshal([]byte(mod.Commands), &cmds); err != nil {
		return fmt.Errorf("unmarshal commands: %w", err)
	}
	for _, cmd := range commands {
		if !cmds[cmd.Name] {
			continue
		}
		if _, err := e.session.ApplicationCommandCreate(e.appId, e.guildSnowflake, cmd); err != nil {
			e.log.Error().Err(err).Str("cmd", cmd.Name).Msg("error registering command")
		}
	}

	e.log.Info().Msg("economy module enabled")
	return nil
}

// Disable sets the economy module as disabled in DB and removes commands
func (e *Economy) Disable() error {
	mod, err := e.repo.ReadModule(e.guildSnowflake)
	if err != nil {
		return err
	}
	if !mod.Enabled {
		return ErrModuleAlreadyDisabled
	}
	mod.Enabled = false

	if _, err := e.repo.UpdateModule(mod); err != nil {
		return err
	}

	remote, err := e.session.ApplicationCommands(e.appId, e.guildSnowflake)
	if err != nil {
		return fmt.Errorf("unable to fetch remote commands: %w", err)
	}
	for _, c := range remote {
		for _, known := range commands {
			if c.Name == known.Name {
				e.session.ApplicationCommandDelete(e.appId, e.guildSnowflake, c.ID)
			}
		}
	}

	e.log.Info().Msg("economy module disabled")
	return nil
}

// Status returns true if the module is enabled, otherwise false
func (e *Economy) Status() (bool, error) {
	mod, err := e.repo.ReadModule(e.guildSnowflake)
	if err != nil {
		return false, err
	}
	return mod.Enabled, nil
}

// OnInteractionCreate processes slash commands
func (e *Economy) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID != e.guildSnowflake {
		return
	}
	mod, err := e.repo.ReadModule(i.GuildID)
	if err != nil || !mod.Enabled {
		return
	}
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	if adminCommands[cmdName] && !isAdmin(i.Member) {
		respondError(s, i, "Permission Denied", "Only administrators can use this command.")
		return
	}

	switch cmdName {
	case "balance":
		e.handleBalance(s, i)
	case "gamble":
		e.handleGamble(s, i)
	case "buycurrency":
		e.handleBuyCurrency(s, i)
	case "transferxp":
		e.handleTransferXP(s, i)
	case "shop":
		e.handleShop(s, i)
	case "buyrole":
		e.handleBuyRole(s, i)
	case "addshoprole":
		e.handleAddShopRole(s, i)
	case "help":
		e.handleHelp(s, i)
	default:
		// no-op
	}
}

func (e *Economy) handleBalance(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID
	prog, err := e.repo.Progress(e.guildSnowflake, userID)
	if err != nil {
		respondError(s, i, "Balance Error", "Could not load your progression record.")
		return
	}
	respondOK(s, i, "Balance",
		fmt.Sprintf("XP: %d, Level: %d, Coins: %d, Streak: %d days",
			prog.XP, prog.Level, prog.Coins, prog.Streak))
}

func (e *Economy) handleGamble(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	game := progression.Game(opts["game"].StringValue())
	bet := opts["bet"].IntValue()

	e.rngMu.Lock()
	result, prog, err := e.repo.PlayGamble(e.guildSnowflake, i.Member.User.ID, game, bet, e.rng)
	e.rngMu.Unlock()
	if err != nil {
		switch {
		case errors.Is(err, progression.ErrInvalidBet), errors.Is(err, progression.ErrInsufficientBet):
			respondError(s, i, "Invalid Bet", "Invalid or insufficient bet.")
		case errors.Is(err, progression.ErrUnknownGame):
			respondError(s, i, "Unknown Game", "Pick one of highlow, coinflip, dice, slots or bomb.")
		default:
			e.log.Error().Err(err).Str("user", i.Member.User.ID).Msg("gamble failed")
			respondError(s, i, "Gamble Error", "Something went wrong, try again later.")
		}
		return
	}

	verb := "gained"
	if result.Delta < 0 {
		verb = "lost"
	}
	respondOK(s, i, "Gamble",
		fmt.Sprintf("%s\nYou %s %d coins. New balance: %d coins.",
			result.Outcome, verb, abs(result.Delta), prog.Coins))
}

func (e *Economy) handleBuyCurrency(s *discordgo.Session, i *discordgo.InteractionCreate) {
	amount := optionMap(i)["amount"].IntValue()

	prog, err := e.repo.BuyCoins(e.guildSnowflake, i.Member.User.ID, amount)
	if err != nil {
		switch {
		case errors.Is(err, progression.ErrInvalidAmount):
			respondError(s, i, "Invalid Amount", "The amount must be a positive integer.")
		case errors.Is(err, progression.ErrInsufficientXP):
			respondError(s, i, "Not Enough XP",
				fmt.Sprintf("You need %d XP to buy %d coins.", amount*progression.CoinExchangeRate, amount))
		default:
			e.log.Error().Err(err).Str("user", i.Member.User.ID).Msg("buycurrency failed")
			respondError(s, i, "Conversion Error", "Something went wrong, try again later.")
		}
		return
	}

	respondOK(s, i, "Currency Purchased",
		fmt.Sprintf("You converted %d XP into %d coins. You now have %d coins and are level %d.",
			amount*progression.CoinExchangeRate, amount, prog.Coins, prog.Level))
}

func (e *Economy) handleTransferXP(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	target := opts["user"].UserValue(s)
	amount := opts["amount"].IntValue()

	_, toProg, err := e.repo.Transfer(e.guildSnowflake, i.Member.User.ID, target.ID, amount)
	if err != nil {
		switch {
		case errors.Is(err, progression.ErrInvalidAmount):
			respondError(s, i, "Invalid Amount", "The amount must be a positive integer.")
		case errors.Is(err, progression.ErrSelfTransfer):
			respondError(s, i, "Invalid Transfer", "You cannot transfer XP to yourself.")
		case errors.Is(err, progression.ErrInsufficientXP):
			respondError(s, i, "Not Enough XP", "You do not have that much XP.")
		default:
			e.log.Error().Err(err).Str("user", i.Member.User.ID).Msg("transfer failed")
			respondError(s, i, "Transfer Error", "Something went wrong, try again later.")
		}
		return
	}

	respondOK(s, i, "XP Transferred",
		fmt.Sprintf("Sent %d XP to <@%s>. They are now level %d.", amount, target.ID, toProg.Level))
}

func (e *Economy) handleShop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	roles, err := e.repo.ListShopRoles(e.guildSnowflake)
	if err != nil || len(roles) == 0 {
		respondError(s, i, "Shop", "No roles are available in the shop.")
		return
	}

	lines := []string{}
	for _, r := range roles {
		lines = append(lines, fmt.Sprintf("%s – %d coins", r.RoleName, r.Cost))
	}
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "🛒 Available Roles",
		Description: strings.Join(lines, "\n"),
		Color:       0x00FF00,
	}, false)
}

func (e *Economy) handleBuyRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	role := optionMap(i)["role"].RoleValue(s, i.GuildID)

	listing, err := e.repo.BuyRole(e.guildSnowflake, i.Member.User.ID, role.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrRoleNotInShop):
			respondError(s, i, "Shop", "That role is not in the shop.")
		case errors.Is(err, ErrInsufficientCoins):
			respondError(s, i, "Not Enough Coins", "You cannot afford that role.")
		default:
			e.log.Error().Err(err).Str("user", i.Member.User.ID).Msg("buyrole failed")
			respondError(s, i, "Shop Error", "Something went wrong, try again later.")
		}
		return
	}

	// The purchase is committed; a failed role grant is logged and picked up
	// manually rather than rolled back.
	if err := s.GuildMemberRoleAdd(e.guildSnowflake, i.Member.User.ID, role.ID); err != nil {
		e.log.Warn().Err(err).
			Str("user", i.Member.User.ID).
			Str("role", role.ID).
			Msg("unable to grant purchased role")
	}

	respondOK(s, i, "Role Purchased",
		fmt.Sprintf("You bought the role %s for %d coins.", listing.RoleName, listing.Cost))
}

func (e *Economy) handleAddShopRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	role := opts["role"].RoleValue(s, i.GuildID)
	cost := opts["cost"].IntValue()
	if cost <= 0 {
		respondError(s, i, "Invalid Cost", "The cost must be a positive integer.")
		return
	}

	if err := e.repo.UpsertShopRole(e.guildSnowflake, role.ID, role.Name, cost); err != nil {
		e.log.Error().Err(err).Str("role", role.ID).Msg("addshoprole failed")
		respondError(s, i, "Shop Error", "Could not add the role to the shop.")
		return
	}
	respondOK(s, i, "Shop Updated",
		fmt.Sprintf("Added %s to the shop for %d coins.", role.Name, cost))
}

func (e *Economy) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title: "📘 Economy Help",
		Description: strings.Join([]string{
			"/balance - Show your XP, coins, level, streak",
			"/gamble [game] [bet] - Play highlow, coinflip, dice, slots, or bomb",
			"/buycurrency [amount] - Convert XP into coins (10 XP = 1 coin)",
			"/transferxp [user] [amount] - Send XP to another member",
			"/shop - View buyable roles",
			"/buyrole [role] - Purchase a role using coins",
			"/addshoprole [role] [cost] - (Admin) Add role to shop",
		}, "\n"),
		Color: 0x00FF00,
	}, false)
}

func isAdmin(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func respondOK(s *discordgo.Session, i *discordgo.InteractionCreate, title, desc string) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       0x00FF00,
	}, false)
}

func respondError(s *discordgo.Session, i *discordgo.InteractionCreate, title, desc string) {
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       0xFF0000,
	}, true)
}
