// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the account identity. Email is mirrored on the companion Profile.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"-"`
	Password  string         `gorm:"not null" json:"-"`
	IsAdmin   bool           `gorm:"default:false" json:"is_admin"`
	Profile   *Profile       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AccountView is the signed-in user's own account. It is the only user shape
// that carries the email.
type AccountView struct {
	*User
	Email string `json:"email"`
}

// NewAccountView builds the owner view of u.
func NewAccountView(u *User) *AccountView {
	return &AccountView{User: u, Email: u.Email}
}
