package database

import (
	"time"

	"gorm.io/datatypes"
)

type Guild struct {
	Snowflake string `gorm:"primaryKey;unique"`
	Name      string
	OwnerID   string
	Modules   []Module `gorm:"foreignKey:GuildSnowflake;references:Snowflake;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time // Managed by GORM
	UpdatedAt time.Time // Managed by GORM
}

type Module struct {
	ID             uint   `gorm:"primarykey;autoIncrement"`
	GuildSnowflake string `gorm:"index"`
	Name           string
	Description    string
	Enabled        bool `gorm:"default:false"`
	Config         datatypes.JSON
	Commands       datatypes.JSON
	CreatedAt      time.Time // Managed by GORM
	UpdatedAt      time.Time // Managed by GORM
}

// MemberProgress is a member's progression state in one guild. Level is
// derived from XP; every write path recomputes it alongside the XP change.
type MemberProgress struct {
	ID             uint   `gorm:"primaryKey"`
	GuildSnowflake string `gorm:"index;uniqueIndex:idx_member_progress"`
	UserSnowflake  string `gorm:"index;uniqueIndex:idx_member_progress"`
	XP             int64
	Level          int `gorm:"default:1"`
	Coins          int64
	Streak         int    `gorm:"default:1"`
	LastActiveDate string // YYYY-MM-DD
	LastStreakDate string // YYYY-MM-DD, stamps the nightly streak resolution

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GuildSettings holds the admin-tunable progression rules for one guild.
type GuildSettings struct {
	GuildSnowflake         string `gorm:"primaryKey"`
	XPPerMessage           int64
	XPPerVoiceMinute       int64
	BoosterMultiplier      float64
	RequiredMessagesPerDay int
	DecayAfterDays         int
	DecayFraction          float64
	LevelUpChannel         string
	RewardRole             string
	LastTopUser            string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LevelRoleRange maps a closed level interval to an auto-assigned role.
// Ranges for one guild never overlap; the repository enforces this at write.
type LevelRoleRange struct {
	ID             uint   `gorm:"primaryKey"`
	GuildSnowflake string `gorm:"index"`
	RoleSnowflake  string
	MinLevel       int
	MaxLevel       int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AllowedChannel is one entry of a guild's XP allow-list. A guild with no
// rows grants XP in every channel.
type AllowedChannel struct {
	ID               uint   `gorm:"primaryKey"`
	GuildSnowflake   string `gorm:"index;uniqueIndex:idx_allowed_channel"`
	ChannelSnowflake string `gorm:"uniqueIndex:idx_allowed_channel"`

	CreatedAt time.Time
}

// DailyActivity counts a member's qualifying messages per calendar day. The
// nightly streak resolution reads yesterday's row to decide whether the
// streak extends.
type DailyActivity struct {
	ID             uint   `gorm:"primaryKey"`
	GuildSnowflake string `gorm:"index;uniqueIndex:idx_daily_activity"`
	UserSnowflake  string `gorm:"uniqueIndex:idx_daily_activity"`
	Date           string `gorm:"uniqueIndex:idx_daily_activity"` // YYYY-MM-DD
	Messages       int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShopRole is a role purchasable with coins.
type ShopRole struct {
	ID             uint   `gorm:"primaryKey"`
	GuildSnowflake string `gorm:"index;uniqueIndex:idx_shop_role"`
	RoleSnowflake  string `gorm:"uniqueIndex:idx_shop_role"`
	RoleName       string
	Cost           int64

	CreatedAt time.Time
	UpdatedAt time.Time
}
