package database

import (
	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.RegistrationCode{},
		&domain.LoginCode{},
	)
}
