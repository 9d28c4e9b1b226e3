package repository

import (
	"path/filepath"
	"testing"

	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "repo.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.RegistrationCode{}, &domain.LoginCode{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
