package economy

import (
	"errors"
	"math/rand"
	"time"

	"github.com/rankman-bot/rankman/internal/database"
	"github.com/rankman-bot/rankman/internal/progression"
	"gorm.io/gorm"
)

var (
	ErrRoleNotInShop     = errors.New("role is not in the shop")
	ErrInsufficientCoins = errors.New("not enough coins")
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

// Progress returns a member's progression row, creating the defaults row on
// first observed activity.
func (r *Repository) Progress(guildSnowflake, userSnowflake string) (*database.MemberProgress, error) {
	return loadOrCreate(r.db, guildSnowflake, userSnowflake)
}

// BuyCoins converts XP into coins as one read-modify-write transaction.
func (r *Repository) BuyCoins(guildSnowflake, userSnowflake string, amount int64) (*database.MemberProgress, error) {
	var out *database.MemberProgress
	err := r.db.Transaction(func(tx *gorm.DB) error {
		m, err := loadOrCreate(tx, guildSnowflake, userSnowflake)
		if err != nil {
			return err
		}
		rec, err := progression.BuyCoins(recordOf(m), amount)
		if err != nil {
			return err
		}
		applyRecord(m, rec)
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

// Transfer moves XP from one member to another. Debit and credit commit in a
// single transaction; a failure on either side rolls back both.
func (r *Repository) Transfer(guildSnowflake, fromSnowflake, toSnowflake string, amount int64) (*database.MemberProgress, *database.MemberProgress, error) {
	var fromOut, toOut *database.MemberProgress
	err := r.db.Transaction(func(tx *gorm.DB) error {
		from, err := loadOrCreate(tx, guildSnowflake, fromSnowflake)
		if err != nil {
			return err
		}
		to, err := loadOrCreate(tx, guildSnowflake, toSnowflake)
		if err != nil {
			return err
		}

		fromRec, toRec, err := progression.TransferXP(recordOf(from), recordOf(to), amount)
		if err != nil {
			return err
		}

		applyRecord(from, fromRec)
		applyRecord(to, toRec)
		if err := tx.Save(from).Error; err != nil {
			return err
		}
		if err := tx.Save(to).Error; err != nil {
			return err
		}
		fromOut, toOut = from, to
		return nil
	})
	return fromOut, toOut, err
}

// PlayGamble runs one round of the given game against the member's balance:
// validate the bet, draw the outcome, settle the coin delta and the flat XP
// bonus in a single transaction.
func (r *Repository) PlayGamble(guildSnowflake, userSnowflake string, game progression.Game, bet int64, rng *rand.Rand) (progression.GambleResult, *database.MemberProgress, error) {
	var (
		result progression.GambleResult
		out    *database.MemberProgress
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		m, err := loadOrCreate(tx, guildSnowflake, userSnowflake)
		if err != nil {
			return err
		}
		if bet <= 0 {
			return progression.ErrInvalidBet
		}
		if bet > m.Coins {
			return progression.ErrInsufficientBet
		}

		res, err := progression.Gamble(game, bet, m.Streak, rng)
		if err != nil {
			return err
		}

		rec := recordOf(m)
		rec.Coins += res.Delta
		rec.XP += progression.GambleXPBonus
		rec.Level = progression.Level(rec.XP)
		rec.LastActiveDate = progression.Today(time.Now())
		applyRecord(m, rec)
		if err := tx.Save(m).Error; err != nil {
			return err
		}

		result = res
		out = m
		return nil
	})
	return result, out, err
}

func (r *Repository) ListShopRoles(guildSnowflake string) ([]database.ShopRole, error) {
	var roles []database.ShopRole
	err := r.db.Where("guild_snowflake = ?", guildSnowflake).
		Order("cost ASC").
		Find(&roles).Error
	return roles, err
}

func (r *Repository) UpsertShopRole(guildSnowflake, roleSnowflake, roleName string, cost int64) error {
	row := &database.ShopRole{}
	err := r.db.Where("guild_snowflake = ? AND role_snowflake = ?", guildSnowflake, roleSnowflake).
		First(row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(&database.ShopRole{
			GuildSnowflake: guildSnowflake,
			RoleSnowflake:  roleSnowflake,
			RoleName:       roleName,
			Cost:           cost,
		}).Error
	}
	if err != nil {
		return err
	}
	row.RoleName = roleName
	row.Cost = cost
	return r.db.Save(row).Error
}

// BuyRole deducts the listed cost from the member's coins. The caller grants
// the Discord role afterwards, best-effort.
func (r *Repository) BuyRole(guildSnowflake, userSnowflake, roleSnowflake string) (*database.ShopRole, error) {
	var listing *database.ShopRole
	err := r.db.Transaction(func(tx *gorm.DB) error {
		row := &database.ShopRole{}
		err := tx.Where("guild_snowflake = ? AND role_snowflake = ?", guildSnowflake, roleSnowflake).
			First(row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoleNotInShop
		}
		if err != nil {
			return err
		}

		m, err := loadOrCreate(tx, guildSnowflake, userSnowflake)
		if err != nil {
			return err
		}
		if m.Coins < row.Cost {
			return ErrInsufficientCoins
		}
		m.Coins -= row.Cost
		if err := tx.Save(m).Error; err != nil {
			return err
		}
		listing = row
		return nil
	})
	return listing, err
}

func loadOrCreate(tx *gorm.DB, guildSnowflake, userSnowflake string) (*database.MemberProgress, error) {
	m := &database.MemberProgress{}
	err := tx.Where("guild_snowflake = ? AND user_snowflake = ?", guildSnowflake, userSnowflake).
		First(m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		applyRecord(m, progression.NewRecord(guildSnowflake, userSnowflake, progression.Today(time.Now())))
		if err := tx.Create(m).Error; err != nil {
			return nil, err
		}
		return m, nil
	}
	return m, err
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
