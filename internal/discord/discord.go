// Package discord wires the gateway session, the per-guild modules, the
// scheduled sweeps and the voice session registry together.
package discord

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rankman-bot/rankman/internal/config"
	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/discord/economy"
	"github.com/rankman-bot/rankman/internal/discord/leveling"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Discord owns the gateway session and the module instances of every guild
// the bot is a member of.
type Discord struct {
	cfg     *config.Config
	session *discordgo.Session
	db      *gorm.DB
	log     *zerolog.Logger
	applier *Applier
	voice   *VoiceRegistry
	sched   *Scheduler

	mu     sync.RWMutex
	guilds map[string]*guildModules
}

type guildModules struct {
	leveling *leveling.Leveling
	economy  *economy.Economy
}

func New(cfg *config.Config, db *gorm.DB, log *zerolog.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	l := log.With().Str("component", "discord").Logger()

	d := &Discord{
		cfg:     cfg,
		session: session,
		db:      db,
		log:     &l,
		applier: NewApplier(session, log),
		voice:   NewVoiceRegistry(),
		guilds:  make(map[string]*guildModules),
	}

	session.AddHandler(d.onReady)
	session.AddHandler(d.onGuildCreate)
	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onInteractionCreate)
	session.AddHandler(d.voice.HandleVoiceStateUpdate)

	return d, nil
}

// Open connects to the gateway and starts the scheduled sweeps.
func (d *Discord) Open() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("unable to open discord session: %w", err)
	}

	sched, err := NewScheduler(d)
	if err != nil {
		d.session.Close()
		return fmt.Errorf("unable to start scheduler: %w", err)
	}
	d.sched = sched
	return nil
}

func (d *Discord) Close() error {
	if d.sched != nil {
		d.sched.Shutdown()
	}
	return d.session.Close()
}

func (d *Discord) onReady(s *discordgo.Session, r *discordgo.Ready) {
	d.log.Info().
		Str("username", r.User.Username).
		Str("user_id", r.User.ID).
		Msg("gateway session ready")
}

// onGuildCreate fires for every guild on connect and whenever the bot joins
// a new guild. It upserts the guild row and loads the guild's modules.
func (d *Discord) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	guild := &database.Guild{}
	err := d.db.Where("snowflake = ?", g.ID).First(guild).Error
	if err == gorm.ErrRecordNotFound {
		guild = &database.Guild{
			Snowflake: g.ID,
			Name:      g.Name,
			OwnerID:   g.OwnerID,
		}
		if err := d.db.Create(guild).Error; err != nil {
			d.log.Error().Err(err).Str("guild", g.ID).Msg("unable to create guild row")
			return
		}
	} else if err != nil {
		d.log.Error().Err(err).Str("guild", g.ID).Msg("unable to read guild row")
		return
	}

	d.mu.Lock()
	mods, ok := d.guilds[g.ID]
	if !ok {
		mods = &guildModules{
			leveling: leveling.New(g.Name, g.ID, d.cfg.DiscordAppID, d.session, d.db, d.applier, d.log),
			economy:  economy.New(g.Name, g.ID, d.cfg.DiscordAppID, d.session, d.db, d.log),
		}
		d.guilds[g.ID] = mods
	}
	d.mu.Unlock()

	if err := mods.leveling.Load(); err != nil {
		d.log.Error().Err(err).Str("guild", g.ID).Msg("unable to load leveling module")
	}
	if err := mods.economy.Load(); err != nil {
		d.log.Error().Err(err).Str("guild", g.ID).Msg("unable to load economy module")
	}
}

func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.GuildID == "" {
		return
	}
	d.mu.RLock()
	mods, ok := d.guilds[m.GuildID]
	d.mu.RUnlock()
	if !ok {
		return
	}
	mods.leveling.OnMessageCreate(s, m)
}

func (d *Discord) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		return
	}
	d.mu.RLock()
	mods, ok := d.guilds[i.GuildID]
	d.mu.RUnlock()
	if !ok {
		return
	}
	mods.leveling.OnInteractionCreate(s, i)
	mods.economy.OnInteractionCreate(s, i)
}

// eachGuild calls fn for every loaded guild's modules.
func (d *Discord) eachGuild(fn func(guildSnowflake string, mods *guildModules)) {
	d.mu.RLock()
	snapshot := make(map[string]*guildModules, len(d.guilds))
	for id, mods := range d.guilds {
		snapshot[id] = mods
	}
	d.mu.RUnlock()

	for id, mods := range snapshot {
		fn(id, mods)
	}
}

// modulesFor returns the loaded modules of one guild, if any.
func (d *Discord) modulesFor(guildSnowflake string) (*guildModules, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	mods, ok := d.guilds[guildSnowflake]
	return mods, ok
}

// GuildCount reports how many guilds have loaded modules.
func (d *Discord) GuildCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.guilds)
}
