package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"
	"github.com/Shalbulov/zentro-risk-prediction/internal/security"

	"gorm.io/gorm"
)

// Seed promotes the bootstrap admin account. The account must already
// exist and have completed email verification; seeding never creates
// users or passwords on its own.
func Seed(db *gorm.DB, bootstrapAdminEmail string) error {
	email := strings.TrimSpace(strings.ToLower(bootstrapAdminEmail))
	if email == "" {
		return nil
	}

	var u domain.User
	if err := db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("bootstrap admin %q does not exist, register it first", email)
		}
		return err
	}
	if !u.IsVerified {
		return fmt.Errorf("bootstrap admin %q is not verified", email)
	}
	if u.Role == "admin" {
		return nil
	}
	return db.Model(&u).Update("role", "admin").Error
}

// SeedDemoUsers inserts a small fixture set for local development. All
// demo accounts share the given password and are pre-verified.
func SeedDemoUsers(db *gorm.DB, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	demo := []domain.User{
		{FirstName: "Aigerim", LastName: "Bekova", Email: "aigerim@demo.zentro.kz"},
		{FirstName: "Daniyar", LastName: "Omarov", Email: "daniyar@demo.zentro.kz"},
		{FirstName: "Saltanat", LastName: "Musina", Email: "saltanat@demo.zentro.kz"},
	}
	for _, u := range demo {
		u.Password = hash
		u.IsVerified = true
		u.Role = "user"
		u.Status = "active"
		if err := db.Where("email = ?", u.Email).FirstOrCreate(&u).Error; err != nil {
			return err
		}
	}
	return nil
}
