package leveling

import (
	"errors"
	"fmt"
	"time"

	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/progression"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreateModule(mod *database.Module) (*database.Module, error) {
	result := r.db.Create(mod)
	return mod, result.Error
}

func (r *Repository) ReadModule(guildSnowflake string) (*database.Module, error) {
	m := &database.Module{}
	result := r.db.
		First(m, "name = ? AND guild_snowflake = ?", name, guildSnowflake)
	return m, result.Error
}

func (r *Repository) UpdateModule(mod *database.Module) (*database.Module, error) {
	m := &database.Module{}
	result := r.db.
		First(m, "name = ? AND guild_snowflake = ?", name, mod.GuildSnowflake)
	if result.Error != nil {
		return nil, result.Error
	}
	m.Enabled = mod.Enabled
	m.Config = mod.Config
	m.Commands = mod.Commands

	err := r.db.Save(m).Error
	return m, err
}

// Settings returns the guild's rule configuration, creating the defaults row
// on first access.
func (r *Repository) Settings(guildSnowflake string) (*database.GuildSettings, error) {
	s := &database.GuildSettings{}
	err := r.db.First(s, "guild_snowflake = ?", guildSnowflake).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = &database.GuildSettings{
			GuildSnowflake:         guildSnowflake,
			XPPerMessage:           progression.DefaultXPPerMessage,
			XPPerVoiceMinute:       progression.DefaultXPPerVoiceMinute,
			BoosterMultiplier:      progression.DefaultBoosterMultiplier,
			RequiredMessagesPerDay: progression.DefaultMessagesPerDay,
		}
		if err := r.db.Create(s).Error; err != nil {
			return nil, err
		}
		return s, nil
	}
	return s, err
}

func (r *Repository) SaveSettings(s *database.GuildSettings) error {
	return r.db.Save(s).Error
}

// EngineSettings assembles the progression rule set for a guild: the settings
// row plus its role ranges and channel allow-list.
func (r *Repository) EngineSettings(guildSnowflake string) (progression.Settings, error) {
	row, err := r.Settings(guildSnowflake)
	if err != nil {
		return progression.Settings{}, err
	}

	out := progression.Settings{
		XPPerMessage:           row.XPPerMessage,
		XPPerVoiceMinute:       row.XPPerVoiceMinute,
		BoosterMultiplier:      row.BoosterMultiplier,
		RequiredMessagesPerDay: row.RequiredMessagesPerDay,
		DecayAfterDays:         row.DecayAfterDays,
		DecayFraction:          row.DecayFraction,
		LevelUpChannelID:       row.LevelUpChannel,
		RewardRoleID:           row.RewardRole,
	}

	ranges, err := r.RoleRanges(guildSnowflake)
	if err != nil {
		return progression.Settings{}, err
	}
	for _, rr := range ranges {
		out.RoleRanges = append(out.RoleRanges, progression.RoleRange{
			MinLevel: rr.MinLevel,
			MaxLevel: rr.MaxLevel,
			RoleID:   rr.RoleSnowflake,
		})
	}

	var channels []database.AllowedChannel
	if err := r.db.Where("guild_snowflake = ?", guildSnowflake).Find(&channels).Error; err != nil {
		return progression.Settings{}, err
	}
	for _, c := range channels {
		out.AllowedChannels = append(out.AllowedChannels, c.ChannelSnowflake)
	}

	return out, nil
}

// Progress returns a member's progression row, creating the defaults row on
// first observed activity.
func (r *Repository) Progress(guildSnowflake, userSnowflake string) (*database.MemberProgress, error) {
	m := &database.MemberProgress{}
	err := r.db.Where("guild_snowflake = ? AND user_snowflake = ?", guildSnowflake, userSnowflake).
		First(m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		rec := progression.NewRecord(guildSnowflake, userSnowflake, progression.Today(time.Now()))
		m = &database.MemberProgress{}
		applyRecord(m, rec)
		if err := r.db.Create(m).Error; err != nil {
			return nil, err
		}
		return m, nil
	}
	return m, err
}

// GrantXP applies one qualifying event as a single read-modify-write
// transaction: load or create the member row, run the grant resolution, save
// the new state and bump the daily activity log for message events. The
// returned effects must be delivered after the transaction commits.
func (r *Repository) GrantXP(guildSnowflake, userSnowflake string, ev progression.GrantEvent) (progression.GrantResult, []progression.Effect, error) {
	settings, err := r.EngineSettings(guildSnowflake)
	if err != nil {
		return progression.GrantResult{}, nil, err
	}

	var (
		result  progression.GrantResult
		effects []progression.Effect
	)
	err = r.db.Transaction(func(tx *gorm.DB) error {
		m := &database.MemberProgress{}
		found := true
		err := tx.Where("guild_snowflake = ? AND user_snowflake = ?", guildSnowflake, userSnowflake).
			First(m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			found = false
			applyRecord(m, progression.NewRecord(guildSnowflake, userSnowflake, ev.Today))
		} else if err != nil {
			return err
		}

		rec, res, effs := progression.ResolveGrant(recordOf(m), settings, ev)
		if !res.Granted {
			// A gated event creates no record and no log entry.
			return nil
		}
		applyRecord(m, rec)
		if found {
			if err := tx.Save(m).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Create(m).Error; err != nil {
				return err
			}
		}

		if ev.Kind == progression.EventMessage {
			if err := bumpDailyActivity(tx, guildSnowflake, userSnowflake, ev.Today); err != nil {
				return err
			}
		}

		result = res
		effects = effs
		return nil
	})
	return result, effects, err
}

func bumpDailyActivity(tx *gorm.DB, guildSnowflake, userSnowflake, date string) error {
	row := &database.DailyActivity{}
	err := tx.Where("guild_snowflake = ? AND user_snowflake = ? AND date = ?",
		guildSnowflake, userSnowflake, date).First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = &database.DailyActivity{
			GuildSnowflake: guildSnowflake,
			UserSnowflake:  userSnowflake,
			Date:           date,
			Messages:       1,
		}
		return tx.Create(row).Error
	}
	if err != nil {
		return err
	}
	row.Messages++
	return tx.Save(row).Error
}

// Top returns the guild's top N members by XP descending.
func (r *Repository) Top(guildSnowflake string, limit int) ([]database.MemberProgress, error) {
	var members []database.MemberProgress
	err := r.db.
		Where("guild_snowflake = ?", guildSnowflake).
		Order("xp DESC").
		Limit(limit).
		Find(&members).Error
	return members, err
}

func (r *Repository) RoleRanges(guildSnowflake string) ([]database.LevelRoleRange, error) {
	var ranges []database.LevelRoleRange
	err := r.db.Where("guild_snowflake = ?", guildSnowflake).
		Order("min_level ASC").
		Find(&ranges).Error
	return ranges, err
}

// AddRoleRange inserts a level-role range after checking it against the
// guild's existing ranges for overlap.
func (r *Repository) AddRoleRange(guildSnowflake, roleSnowflake string, minLevel, maxLevel int) error {
	existing, err := r.RoleRanges(guildSnowflake)
	if err != nil {
		return err
	}
	ranges := make([]progression.RoleRange, 0, len(existing))
	for _, e := range existing {
		ranges = append(ranges, progression.RoleRange{MinLevel: e.MinLevel, MaxLevel: e.MaxLevel, RoleID: e.RoleSnowflake})
	}
	candidate := progression.RoleRange{MinLevel: minLevel, MaxLevel: maxLevel, RoleID: roleSnowflake}
	if err := progression.ValidateRoleRange(ranges, candidate); err != nil {
		return err
	}

	return r.db.Create(&database.LevelRoleRange{
		GuildSnowflake: guildSnowflake,
		RoleSnowflake:  roleSnowflake,
		MinLevel:       minLevel,
		MaxLevel:       maxLevel,
	}).Error
}

func (r *Repository) RemoveRoleRange(guildSnowflake, roleSnowflake string) error {
	return r.db.Where("guild_snowflake = ? AND role_snowflake = ?", guildSnowflake, roleSnowflake).
		Delete(&database.LevelRoleRange{}).Error
}

func (r *Repository) AllowChannel(guildSnowflake, channelSnowflake string) error {
	row := &database.AllowedChannel{}
	err := r.db.Where("guild_snowflake = ? AND channel_snowflake = ?", guildSnowflake, channelSnowflake).
		First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&database.AllowedChannel{
			GuildSnowflake:   guildSnowflake,
			ChannelSnowflake: channelSnowflake,
		}).Error
	}
	return err
}

func (r *Repository) ClearChannels(guildSnowflake string) error {
	return r.db.Where("guild_snowflake = ?", guildSnowflake).
		Delete(&database.AllowedChannel{}).Error
}

// RotateTopRole diffs the current rank-1 member against the stored holder of
// the reward role and updates the pointer in the same transaction the effects
// are derived from.
func (r *Repository) RotateTopRole(guildSnowflake string) ([]progression.Effect, error) {
	var effects []progression.Effect
	err := r.db.Transaction(func(tx *gorm.DB) error {
		s := &database.GuildSettings{}
		if err := tx.First(s, "guild_snowflake = ?", guildSnowflake).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if s.RewardRole == "" {
			return nil
		}

		var members []database.MemberProgress
		if err := tx.Where("guild_snowflake = ?", guildSnowflake).
			Order("xp DESC").Limit(10).Find(&members).Error; err != nil {
			return err
		}
		standings := make([]progression.Standing, 0, len(members))
		for _, m := range members {
			standings = append(standings, progression.Standing{UserID: m.UserSnowflake, XP: m.XP})
		}

		newTop, effs := progression.ResolveTopRole(s.LastTopUser, standings, s.RewardRole)
		if newTop == s.LastTopUser {
			return nil
		}
		s.LastTopUser = newTop
		if err := tx.Save(s).Error; err != nil {
			return err
		}
		effects = effs
		return nil
	})
	return effects, err
}

// StreakSweep runs the nightly streak resolution for every member of the
// guild. Idempotent per day: members already stamped for today are skipped.
func (r *Repository) StreakSweep(guildSnowflake string, now time.Time) (int, error) {
	settings, err := r.EngineSettings(guildSnowflake)
	if err != nil {
		return 0, err
	}

	today := progression.Today(now)
	yesterday := progression.Today(now.AddDate(0, 0, -1))

	var activity []database.DailyActivity
	if err := r.db.Where("guild_snowflake = ? AND date = ?", guildSnowflake, yesterday).
		Find(&activity).Error; err != nil {
		return 0, err
	}
	counts := make(map[string]int, len(activity))
	for _, a := range activity {
		counts[a.UserSnowflake] = a.Messages
	}

	var members []database.MemberProgress
	if err := r.db.Where("guild_snowflake = ?", guildSnowflake).Find(&members).Error; err != nil {
		return 0, err
	}

	resolved := 0
	for i := range members {
		m := &members[i]
		if _, changed := progression.ResolveStreak(recordOf(m), settings, counts[m.UserSnowflake], today); !changed {
			continue
		}
		err := r.db.Transaction(func(tx *gorm.DB) error {
			fresh := &database.MemberProgress{}
			if err := tx.First(fresh, m.ID).Error; err != nil {
				return err
			}
			// Re-check under the transaction so a concurrent sweep run
			// cannot double-increment.
			rec, changed := progression.ResolveStreak(recordOf(fresh), settings, counts[m.UserSnowflake], today)
			if !changed {
				return nil
			}
			applyRecord(fresh, rec)
			return tx.Save(fresh).Error
		})
		if err != nil {
			return resolved, fmt.Errorf("streak resolution for %s: %w", m.UserSnowflake, err)
		}
		resolved++
	}
	return resolved, nil
}

// DecaySweep applies the inactivity decay to every member of the guild whose
// last activity predates the configured window.
func (r *Repository) DecaySweep(guildSnowflake string, now time.Time) (int, error) {
	settings, err := r.EngineSettings(guildSnowflake)
	if err != nil {
		return 0, err
	}
	if settings.DecayAfterDays <= 0 || settings.DecayFraction <= 0 {
		return 0, nil
	}

	today := progression.Today(now)

	var members []database.MemberProgress
	if err := r.db.Where("guild_snowflake = ?", guildSnowflake).Find(&members).Error; err != nil {
		return 0, err
	}

	decayed := 0
	for i := range members {
		m := &members[i]
		err := r.db.Transaction(func(tx *gorm.DB) error {
			fresh := &database.MemberProgress{}
			if err := tx.First(fresh, m.ID).Error; err != nil {
				return err
			}
			rec, changed := progression.ResolveDecay(recordOf(fresh), settings, today)
			if !changed {
				return nil
			}
			applyRecord(fresh, rec)
			if err := tx.Save(fresh).Error; err != nil {
				return err
			}
			decayed++
			return nil
		})
		if err != nil {
			return decayed, fmt.Errorf("decay for %s: %w", m.UserSnowflake, err)
		}
	}
	return decayed, nil
}

func recordOf(m *database.MemberProgress) progression.Record {
	return progression.Record{
		UserID:         m.UserSnowflake,
		GuildID:        m.GuildSnowflake,
		XP:             m.XP,
		Level:          m.Level,
		Coins:          m.Coins,
		Streak:         m.Streak,
		LastActiveDate: m.LastActiveDate,
		LastStreakDate: m.LastStreakDate,
	}
}

func applyRecord(m *database.MemberProgress, rec progression.Record) {
	m.GuildSnowflake = rec.GuildID
	m.UserSnowflake = rec.UserID
	m.XP = rec.XP
	m.Level = rec.Level
	m.Coins = rec.Coins
	m.Streak = rec.Streak
	m.LastActiveDate = rec.LastActiveDate
	m.LastStreakDate = rec.LastStreakDate
}
