package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rankman-bot/rankman/internal/progression"
	"github.com/rs/zerolog"
)

// Applier delivers progression effects to Discord. Delivery is best-effort:
// the progression state is already committed when Apply runs, so failures are
// logged and left for the next scheduled pass to reconcile.
type Applier struct {
	session *discordgo.Session
	log     *zerolog.Logger
}

func NewApplier(session *discordgo.Session, log *zerolog.Logger) *Applier {
	l := log.With().Str("component", "applier").Logger()
	return &Applier{session: session, log: &l}
}

func (a *Applier) Apply(guildSnowflake string, effects []progression.Effect) {
	for _, eff := range effects {
		switch e := eff.(type) {
		case progression.Announce:
			if e.ChannelID == "" {
				continue
			}
			if _, err := a.session.ChannelMessageSend(e.ChannelID, e.Text); err != nil {
				a.log.Warn().Err(err).
					Str("guild", guildSnowflake).
					Str("channel", e.ChannelID).
					Msg("unable to post announcement")
			}
		case progression.GrantRole:
			if err := a.session.GuildMemberRoleAdd(guildSnowflake, e.UserID, e.RoleID); err != nil {
				a.log.Warn().Err(err).
					Str("guild", guildSnowflake).
					Str("user", e.UserID).
					Str("role", e.RoleID).
					Msg("unable to grant role")
			}
		case progression.RevokeRole:
			if err := a.session.GuildMemberRoleRemove(guildSnowflake, e.UserID, e.RoleID); err != nil {
				a.log.Warn().Err(err).
					Str("guild", guildSnowflake).
					Str("user", e.UserID).
					Str("role", e.RoleID).
					Msg("unable to revoke role")
			}
		}
	}
}
