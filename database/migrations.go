package database

import (
	"gorm.io/gorm"

	"github.com/JacksonEjeh/truststock-api/models"
)

// Migrate runs AutoMigrate for every persisted model, in dependency order so
// foreign keys resolve.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Admin{},
		&models.User{},
		&models.Wallet{},
		&models.InvestmentPlan{},
		&models.Transaction{},
		&models.UserInvestment{},
		&models.KycDocument{},
	)
}
