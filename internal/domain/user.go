package domain

import "time"

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FirstName  string    `gorm:"size:255;not null" json:"firstName"`
	LastName   string    `gorm:"size:255;not null" json:"lastName"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password   string    `gorm:"size:1024;not null" json:"-"`
	IsVerified bool      `gorm:"not null;default:false" json:"is_verified"`
	Role       string    `gorm:"size:32;not null;default:user" json:"role"`
	Status     string    `gorm:"size:32;not null;default:active;index:idx_users_status" json:"status"`
	Phone      string    `gorm:"size:64" json:"phone,omitempty"`
	Address    string    `gorm:"size:512" json:"address,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicUser is the shape returned from auth endpoints. The password hash
// never leaves the service layer.
type PublicUser struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
	}
}
