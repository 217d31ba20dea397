package leveling

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/progression"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	name        = "Leveling"
	description = "XP, levels, streaks, decay and level roles"
)

var (
	ErrModuleAlreadyDisabled = errors.New("module is already disabled")
	ErrModuleAlreadyEnabled  = errors.New("module is already enabled")
)

// Notifier delivers progression side effects (announcements, role grants and
// revokes) after the state change has been committed. Delivery is
// best-effort.
type Notifier interface {
	Apply(guildSnowflake string, effects []progression.Effect)
}

// Leveling is the per-guild leveling module.
type Leveling struct {
	guildName      string
	guildSnowflake string
	appId          string
	session        *discordgo.Session
	repo           *Repository
	notifier       Notifier
	log            *zerolog.Logger
}

// New returns an instance of the leveling module
func New(
	guildName string,
	guildSnowflake string,
	appId string,
	session *discordgo.Session,
	db *gorm.DB,
	notifier Notifier,
	log *zerolog.Logger,
) *Leveling {
	l := log.With().
		Str("module", name).
		Str("guild_name", guildName).
		Str("guild_snowflake", guildSnowflake).
		Logger()

	return &Leveling{
		guildName:      guildName,
		guildSnowflake: guildSnowflake,
		appId:          appId,
		session:        session,
		repo:           NewRepository(db),
		notifier:       notifier,
		log:            &l,
	}
}

// Load is called when a guild first becomes available or on reconnect
func (lv *Leveling) Load() error {
	mod, err := lv.repo.ReadModule(lv.guildSnowflake)
	if err == gorm.ErrRecordNotFound {
		lv.log.Debug().Msg("leveling module not found, creating...")

		cfgJson, _ := json.Marshal(struct{}{})

		cmdMap := make(map[string]bool)
		for _, cmd := range commands {
			cmdMap[cmd.Name] = true
		}
		cmdJson, _ := json.Marshal(cmdMap)

		insert := &database.Module{
			GuildSnowflake: lv.guildSnowflake,
			Name:           name,
			Description:    description,
			Enabled:        true,
			Config:         cfgJson,
			Commands:       cmdJson,
		}
		if mod, err = lv.repo.CreateModule(insert); err != nil {
			return fmt.Errorf("unable to create leveling module: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to read leveling module from DB: %w", err)
	}

	// Make sure the settings row exists so sweeps have something to read.
	if _, err := lv.repo.Settings(lv.guildSnowflake); err != nil {
		return fmt.Errorf("unable to ensure guild settings: %w", err)
	}

	if !mod.Enabled {
		lv.log.Debug().Msg("leveling module disabled, skipping load")
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
		_, err = lv.repo.UpdateModule(mod)
		if err != nil {
			return fmt.Errorf("unable to update leveling module commands: %w", err)
		}
	}

	for _, cmd := range commands {
		if !cmds[cmd.Name] {
			lv.log.Debug().Str("command", cmd.Name).Msg("command disabled, skipping")
			continue
		}
		_, err := lv.session.ApplicationCommandCreate(lv.appId, lv.guildSnowflake, cmd)
		if err != nil {
			lv.log.Error().Err(err).Str("command", cmd.Name).Msg("error registering command")
		}
	}

	lv.log.Debug().Msgf("leveling module loaded for guild %s", lv.guildName)
	return nil
}

// Enable sets the leveling module as enabled in DB and registers commands
func (lv *Leveling) Enable() error {
	mod, err := lv.repo.ReadModule(lv.guildSnowflake)
	if err != nil {
		return err
	}
	if mod.Enabled {
		return ErrModuleAlreadyEnabled
	}
	mod.Enabled = true
	if _, err := lv.repo.UpdateModule(mod); err != nil {
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
		if _, err := lv.session.ApplicationCommandCreate(lv.appId, lv.guildSnowflake, cmd); err != nil {
			lv.log.Error().Err(err).Str("cmd", cmd.Name).Msg("error registering command")
		}
	}

	lv.log.Info().Msg("leveling module enabled")
	return nil
}

// Disable sets the leveling module as disabled in DB and removes commands
func (lv *Leveling) Disable() error {
	mod, err := lv.repo.ReadModule(lv.guildSnowflake)
	if err != nil {
		return err
	}
	if !mod.Enabled {
		return ErrModuleAlreadyDisabled
	}
	mod.Enabled = false

	if _, err := lv.repo.UpdateModule(mod); err != nil {
		return err
	}

	remote, err := lv.session.ApplicationCommands(lv.appId, lv.guildSnowflake)
	if err != nil {
		return fmt.Errorf("unable to fetch remote commands: %w", err)
	}
	for _, c := range remote {
		for _, known := range commands {
			if c.Name == known.Name {
				lv.session.ApplicationCommandDelete(lv.appId, lv.guildSnowflake, c.ID)
			}
		}
	}

	lv.log.Info().Msg("leveling module disabled")
	return nil
}

// Status returns true if the module is enabled, otherwise false
func (lv *Leveling) Status() (bool, error) {
	mod, err := lv.repo.ReadModule(lv.guildSnowflake)
	if err != nil {
		return false, err
	}
	return mod.Enabled, nil
}

// moduleEnabled reports whether the guild's leveling module row is enabled.
// Every entry point consults it first: a disabled module grants nothing,
// sweeps nothing and rotates nothing.
func (lv *Leveling) moduleEnabled() bool {
	mod, err := lv.repo.ReadModule(lv.guildSnowflake)
	return err == nil && mod.Enabled
}

// OnMessageCreate grants message XP for qualifying messages.
func (lv *Leveling) OnMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID != lv.guildSnowflake {
		return
	}
	if !lv.moduleEnabled() {
		return
	}

	ev := progression.GrantEvent{
		Kind:      progression.EventMessage,
		ChannelID: m.ChannelID,
		Booster:   isBooster(m.Member),
		Today:     progression.Today(time.Now()),
	}
	res, effects, err := lv.repo.GrantXP(lv.guildSnowflake, m.Author.ID, ev)
	if err != nil {
		lv.log.Error().Err(err).Str("user", m.Author.ID).Msg("message grant failed")
		return
	}
	if res.LeveledUp {
		lv.notifier.Apply(lv.guildSnowflake, effects)
	}
}

// GrantVoiceMinute grants one voice minute of XP to a connected member. The
// voice sweep calls this once per minute per registered session.
func (lv *Leveling) GrantVoiceMinute(userSnowflake, channelSnowflake string) {
	if !lv.moduleEnabled() {
		return
	}
	ev := progression.GrantEvent{
		Kind:      progression.EventVoiceMinute,
		ChannelID: channelSnowflake,
		Today:     progression.Today(time.Now()),
	}
	res, effects, err := lv.repo.GrantXP(lv.guildSnowflake, userSnowflake, ev)
	if err != nil {
		lv.log.Error().Err(err).Str("user", userSnowflake).Msg("voice grant failed")
		return
	}
	if res.LeveledUp {
		lv.notifier.Apply(lv.guildSnowflake, effects)
	}
}

// RunStreakSweep resolves yesterday's streaks for the guild.
func (lv *Leveling) RunStreakSweep(now time.Time) {
	if !lv.moduleEnabled() {
		return
	}
	n, err := lv.repo.StreakSweep(lv.guildSnowflake, now)
	if err != nil {
		lv.log.Error().Err(err).Msg("streak sweep failed")
		return
	}
	lv.log.Info().Int("resolved", n).Msg("streak sweep complete")
}

// RunDecaySweep applies the inactivity decay for the guild.
func (lv *Leveling) RunDecaySweep(now time.Time) {
	if !lv.moduleEnabled() {
		return
	}
	n, err := lv.repo.DecaySweep(lv.guildSnowflake, now)
	if err != nil {
		lv.log.Error().Err(err).Msg("decay sweep failed")
		return
	}
	if n > 0 {
		lv.log.Info().Int("decayed", n).Msg("decay sweep complete")
	}
}

// RunTopRoleRotation re-resolves the leaderboard reward role.
func (lv *Leveling) RunTopRoleRotation() {
	if !lv.moduleEnabled() {
		return
	}
	effects, err := lv.repo.RotateTopRole(lv.guildSnowflake)
	if err != nil {
		lv.log.Error().Err(err).Msg("reward role rotation failed")
		return
	}
	if len(effects) > 0 {
		lv.notifier.Apply(lv.guildSnowflake, effects)
	}
}

// OnInteractionCreate processes slash commands
func (lv *Leveling) OnInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID != lv.guildSnowflake {
		return
	}
	mod, err := lv.repo.ReadModule(i.GuildID)
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
	case "rank":
		lv.handleRank(s, i)
	case "leaderboard":
		lv.handleLeaderboard(s, i)
	case "setxprate":
		lv.handleSetXPRate(s, i)
	case "setbooster":
		lv.handleSetBooster(s, i)
	case "allowchannel":
		lv.handleAllowChannel(s, i)
	case "clearchannels":
		lv.handleClearChannels(s, i)
	case "levelrole":
		lv.handleLevelRole(s, i)
	case "setdecay":
		lv.handleSetDecay(s, i)
	case "setstreakgoal":
		lv.handleSetStreakGoal(s, i)
	case "setrewardrole":
		lv.handleSetRewardRole(s, i)
	case "setlevelupchannel":
		lv.handleSetLevelUpChannel(s, i)
	default:
		// no-op
	}
}

func (lv *Leveling) handleRank(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := i.Member.User.ID
	prog, err := lv.repo.Progress(lv.guildSnowflake, userID)
	if err != nil {
		respondError(s, i, "Rank Error", "Could not load your progression record.")
		return
	}

	desc := fmt.Sprintf("XP: **%d**\nLevel: **%d**\nStreak: **%d** days\nCoins: **%d**",
		prog.XP, prog.Level, prog.Streak, prog.Coins)
	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Rank for %s", i.Member.User.Username),
		Description: desc,
		Color:       0x00FF00,
	}, false)
}

func (lv *Leveling) handleLeaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) {
	top, err := lv.repo.Top(lv.guildSnowflake, 10)
	if err != nil || len(top) == 0 {
		respondError(s, i, "Leaderboard", "No leaderboard data found!")
		return
	}

	lines := []string{}
	for idx, row := range top {
		line := fmt.Sprintf("**%d.** <@%s> — level %d (%d XP)", idx+1, row.UserSnowflake, row.Level, row.XP)
		lines = append(lines, line)
	}

	respondEmbed(s, i, &discordgo.MessageEmbed{
		Title:       "Top 10 Leaderboard",
		Description: strings.Join(lines, "\n"),
		Color:       0x00FF00,
	}, false)
}

func (lv *Leveling) handleSetXPRate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	message := opts["message"].IntValue()
	voice := opts["voice"].IntValue()
	if message < 0 || voice < 0 {
		respondError(s, i, "Invalid Rate", "XP rates must not be negative.")
		return
	}

	settings, err := lv.repo.Settings(lv.guildSnowflake)
	if err != nil {
		respondError(s, i, "Settings Error", "Could not load guild settings.")
		return
	}
	settings.XPPerMessage = message
	settings.XPPerVoiceMinute = voice
	if err := lv.repo.SaveSettings(settings); err != nil {
		respondError(s, i, "Settings Error", "Could not save guild settings.")
		return
	}
	respondOK(s, i, "XP Rates Updated",
		fmt.Sprintf("Message XP: **%d**, voice XP per minute: **%d**.", message, voice))
}

func (lv *Leveling) handleSetBooster(s *discordgo.Session, i *discordgo.InteractionCreate) {
	mult := optionMap(i)["multiplier"].FloatValue()
	if mult < 1 {
		respondError(s, i, "Invalid Multiplier", "The booster multiplier must be at least 1.0.")
		return
	}

	settings, err := lv.repo.Settings(lv.guildSnowflake)
	if err != nil {
		respondError(s, i, "Settings Error", "Could not load guild settings.")
		return
	}
	settings.BoosterMultiplier = mult
	if err := lv.repo.SaveSettings(settings); err != nil {
		respondError(s, i, "Settings Error", "Could not save guild settings.")
		return
	}
	respondOK(s, i, "Booster Multiplier Updated",
		fmt.Sprintf("Boosters now earn **%.2fx** XP.", mult))
}

func (lv *Leveling) handleAllowChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := optionMap(i)["channel"].ChannelValue(s)
	if err := lv.repo.AllowChannel(lv.guildSnowflake, channel.ID); err != nil {
		respondError(s, i, "Settings Error", "Could not update the channel allow-list.")
		return
	}
	respondOK(s, i, "Channel Allowed",
		fmt.Sprintf("XP is now granted in <#%s>. Channels outside the allow-list no longer grant XP.", channel.ID))
}

func (lv *Leveling) handleClearChannels(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := lv.repo.ClearChannels(lv.guildSnowflake); err != nil {
		respondError(s, i, "Settings Error", "Could not clear the channel allow-list.")
		return
	}
	respondOK(s, i, "Allow-List Cleared", "Every channel grants XP again.")
}

func (lv *Leveling) handleLevelRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}
	sub := data.Options[0]

	switch sub.Name {
	case "add":
		opts := subOptionMap(sub)
		role := opts["role"].RoleValue(s, i.GuildID)
		min := int(opts["min"].IntValue())
		max := int(opts["max"].IntValue())
		if err := lv.repo.AddRoleRange(lv.guildSnowflake, role.ID, min, max); err != nil {
			respondError(s, i, "Invalid Range", err.Error())
			return
		}
		respondOK(s, i, "Level Role Added",
			fmt.Sprintf("Members reaching levels %d-%d now receive <@&%s>.", min, max, role.ID))

	case "remove":
		role := subOptionMap(sub)["role"].RoleValue(s, i.GuildID)
		if err := lv.repo.RemoveRoleRange(lv.guildSnowflake, role.ID); err != nil {
			respondError(s, i, "Settings Error", "Could not remove the level role.")
			return
		}
		respondOK(s, i, "Level Role Removed",
			fmt.Sprintf("<@&%s> is no longer auto-assigned.", role.ID))

	case "list":
		ranges, err := lv.repo.RoleRanges(lv.guildSnowflake)
		if err != nil || len(ranges) == 0 {
			respondError(s, i, "Level Roles", "No level roles configured.")
			return
		}
		lines := []string{}
		for _, r := range ranges {
			lines = append(lines, fmt.Sprintf("Levels %d-%d → <@&%s>", r.MinLevel, r.MaxLevel, r.RoleSnowflake))
		}
		respondEmbed(s, i, &discordgo.MessageEmbed{
			Title:       "Level Roles",
			Description: strings.Join(lines, "\n"),
			Color:       0x00FF00,
		}, false)
	}
}

func (lv *Leveling) handleSetDecay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	days := int(opts["days"].IntValue())
	fraction := opts["fraction"].FloatValue()
	if err := progression.ValidateDecay(days, fraction); err != nil {
		respondError(s, i, "Invalid Decay Policy", err.Error())
		return
	}

	settings, err := lv.repo.Settings(lv.guildSnowflake)
	if err != nil {
		respondError(s, i, "Settings Error", "Could not load guild settings.")
		return
	}
	settings.DecayAfterDays = days
	settings.DecayFraction = fraction
	if err := lv.repo.SaveSettings(settings); err != nil {
		respondError(s, i, "Settings Error", "Could not save guild settings.")
		return
	}
	respondOK(s, i, "Decay Policy Updated",
		fmt.Sprintf("Members inactive for more than %d days now lose %.0f%% XP per day.", days, fraction*100))
}

func (lv *Leveling) handleSetStreakGoal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	msgs := int(optionMap(i)["messages"].IntValue())
	if msgs < 1 {
		respondError(s, i, "Invalid Goal", "The streak goal must be at least 1 message per day.")
		return
	}

	settings, err := lv.repo.Settings(lv.guildSnowflake)
	if err != nil {
		respondError(s, i, "Settings Error", "Could not load guild settings.")
		return
	}
	settings.RequiredMessagesPerDay = msgs
	if err := lv.repo.SaveSettings(settings); err != nil {
		respondError(s, i, "Settings Error", "Could not save guild settings.")
		return
	}
	respondOK(s, i, "Streak Goal Updated",
		fmt.Sprintf("Streaks now extend after **%d** messages per day.", msgs))
}

func (lv *Leveling) handleSetRewardRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	role := optionMap(i)["role"].RoleValue(s, i.GuildID)

	settings, err := lv.repo.Settings(lv.guildSnowflake)
	if err != nil {
		respondError(s, i, "Settings Error", "Could not load guild settings.")
		return
	}
	settings.RewardRole = role.ID
	if err := lv.repo.SaveSettings(settings); err != nil {
		respondError(s, i, "Settings Error", "Could not save guild settings.")
		return
	}
	respondOK(s, i, "Reward Role Updated",
		fmt.Sprintf("The leaderboard #1 now holds <@&%s>.", role.ID))
}

func (lv *Leveling) handleSetLevelUpChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	channel := optionMap(i)["channel"].ChannelValue(s)

	settings, err := lv.repo.Settings(lv.guildSnowflake)
	if err != nil {
		respondError(s, i, "Settings Error", "Could not load guild settings.")
		return
	}
	settings.LevelUpChannel = channel.ID
	if err := lv.repo.SaveSettings(settings); err != nil {
		respondError(s, i, "Settings Error", "Could not save guild settings.")
		return
	}
	respondOK(s, i, "Announcement Channel Updated",
		fmt.Sprintf("Level-ups are now announced in <#%s>.", channel.ID))
}

func isAdmin(member *discordgo.Member) bool {
	return member != nil && member.Permissions&discordgo.PermissionAdministrator != 0
}

func isBooster(member *discordgo.Member) bool {
	return member != nil && member.PremiumSince != nil
}

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func subOptionMap(sub *discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(sub.Options))
	for _, o := range sub.Options {
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
