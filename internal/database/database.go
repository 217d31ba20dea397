package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the sqlite database at path and migrates the schema.
func Open(path string, log *zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open database %q: %w", path, err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("unable to migrate database: %w", err)
	}

	log.Info().Str("path", path).Msg("database ready")
	return db, nil
}

// Migrate applies the schema. Safe to call on every start.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Guild{},
		&Module{},
		&MemberProgress{},
		&GuildSettings{},
		&LevelRoleRange{},
		&AllowedChannel{},
		&DailyActivity{},
		&ShopRole{},
	)
}
