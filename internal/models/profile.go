package models

import (
	"strings"
	"time"
)

// DefaultAvatarURL is served when a profile has no uploaded image.
const DefaultAvatarURL = "/static/images/avatar_default.svg"

// Field limits for profile text.
const (
	MaxRealNameLen = 20
	MaxLocationLen = 20
	MaxBioLen      = 500
)

// Profile holds the per-user supplementary data. There is exactly one per User.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Image     string    `json:"image,omitempty"`
	RealName  string    `gorm:"size:20" json:"realname,omitempty"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Location  string    `gorm:"size:20" json:"location,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAvatarSet reports whether a custom avatar was uploaded.
func (p *Profile) IsAvatarSet() bool {
	return strings.TrimSpace(p.Image) != ""
}

// AvatarURL returns the uploaded avatar or the default asset.
func (p *Profile) AvatarURL() string {
	if p.IsAvatarSet() {
		return p.Image
	}
	return DefaultAvatarURL
}

// DisplayName falls back to the username when no real name is set.
// The User must be loaded for the fallback to work.
func (p *Profile) DisplayName() string {
	if name := strings.TrimSpace(p.RealName); name != "" {
		return name
	}
	if p.User != nil {
		return p.User.Username
	}
	return ""
}

// ProfileView is the JSON shape returned to clients. Email shadows the
// profile's own and is only set on the owner's view.
type ProfileView struct {
	*Profile
	Email       string  `json:"email,omitempty"`
	Name        string  `json:"name"`
	Avatar      string  `json:"avatar"`
	AvatarIsSet bool    `json:"avatar_is_set"`
	Username    string  `json:"username"`
	Posts       []*Post `json:"posts,omitempty"`
}

// NewProfileView builds the client view of p.
func NewProfileView(p *Profile) *ProfileView {
	v := &ProfileView{
		Profile:     p,
		Name:        p.DisplayName(),
		Avatar:      p.AvatarURL(),
		AvatarIsSet: p.IsAvatarSet(),
	}
	if p.User != nil {
		v.Username = p.User.Username
	}
	return v
}

// NewOwnProfileView builds the view of p shown to its owner, email included.
func NewOwnProfileView(p *Profile) *ProfileView {
	v := NewProfileView(p)
	v.Email = p.Email
	return v
}
