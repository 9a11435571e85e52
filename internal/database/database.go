package database

import (
	"log"
	"strings"

	"github.com/slimtribe/slimtribe-api/internal/config"
	"github.com/slimtribe/slimtribe-api/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config) *gorm.DB {
	var dialector gorm.Dialector

	// Postgres in production, SQLite everywhere else
	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		dialector = sqlite.Open(cfg.DatabaseURL)
	}

	// Duplicate-key errors arbitrate concurrent joins and awards, so
	// they must come back as gorm.ErrDuplicatedKey on every driver.
	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto Migrate
	err = db.AutoMigrate(
		&models.User{},
		&models.WeightEntry{},
		&models.Team{},
		&models.TeamMember{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.Achievement{},
		&models.UserAchievement{},
		&models.Post{},
		&models.Message{},
		&models.APIKey{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate: %v", err)
	}

	return db
}
