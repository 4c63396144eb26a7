// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents a pharmacy customer
type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Phone       string         `gorm:"uniqueIndex;not null;size:32" json:"phone"`
	Email       *string        `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	Password    string         `gorm:"not null;size:255" json:"-"` // Don't return in JSON
	Address     string         `gorm:"size:500" json:"address,omitempty"`
	Province    string         `gorm:"size:100" json:"province,omitempty"`
	District    string         `gorm:"size:100" json:"district,omitempty"`
	IsActive    bool           `gorm:"not null" json:"-"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// BeforeCreate normalizes contact fields before user creation
func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.Phone = NormalizePhone(u.Phone)
	if u.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*u.Email))
		if email == "" {
			u.Email = nil
		} else {
			u.Email = &email
		}
	}
	return nil
}

// NormalizePhone strips spaces, dashes and parentheses from a phone number
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// Profile is the user shape returned to clients
type Profile struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Profile renders the user for clients
func (u *User) Profile() Profile {
	p := Profile{ID: u.ID, Name: u.Name, Phone: u.Phone, Address: u.Address}
	if u.Email != nil {
		p.Email = *u.Email
	}
	return p
}
