package domain

import "time"

// RegistrationCode and LoginCode are modeled identically but live in separate
// tables: at most one outstanding code per email per purpose, refreshed by
// upsert and deleted on successful verification. Expired rows are excluded by
// query and linger until the next request for the same email overwrites them.

type RegistrationCode struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (RegistrationCode) TableName() string { return "verification_codes" }

type LoginCode struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

func (LoginCode) TableName() string { return "login_verification_codes" }
