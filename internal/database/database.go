package database

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/EthanBrewster/potatodoro/internal/models"
)

func Connect(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	log.Info().Msg("database connected")
	return db
}

func AutoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.FocusSession{},
		&models.Topping{},
		&models.UserTopping{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to auto-migrate")
	}

	seedToppings(db)
	log.Info().Msg("database migrated")
}

func seedToppings(db *gorm.DB) {
	toppings := []models.Topping{
		{Name: "First Bake", Description: "Complete your first potato", Icon: "🥇", RequirementType: "potatoes_baked", RequirementValue: 1},
		{Name: "Getting Warmer", Description: "Bake 5 potatoes", Icon: "🔥", RequirementType: "potatoes_baked", RequirementValue: 5},
		{Name: "Hot Stuff", Description: "Bake 25 potatoes", Icon: "☀️", RequirementType: "potatoes_baked", RequirementValue: 25},
		{Name: "Oven Master", Description: "Bake 100 potatoes", Icon: "👨‍🍳", RequirementType: "potatoes_baked", RequirementValue: 100},
		{Name: "Team Player", Description: "Toss 10 potatoes", Icon: "🤝", RequirementType: "tosses", RequirementValue: 10},
		{Name: "Social Butterfly", Description: "Toss 50 potatoes", Icon: "🦋", RequirementType: "tosses", RequirementValue: 50},
		{Name: "Focus Champion", Description: "Earn 1000 Joules", Icon: "⚡", RequirementType: "joules", RequirementValue: 1000},
		{Name: "Energy Master", Description: "Earn 10000 Joules", Icon: "💫", RequirementType: "joules", RequirementValue: 10000},
		{Name: "Streak Starter", Description: "Get a 3-day streak", Icon: "📅", RequirementType: "streak", RequirementValue: 3},
		{Name: "Streak Master", Description: "Get a 7-day streak", Icon: "🗓️", RequirementType: "streak", RequirementValue: 7},
	}

	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&toppings).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed toppings")
	}
}
