package models

import (
	"time"

	"gorm.io/gorm"
)

// Post is an image scraped from an external photo page plus the author's caption.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user"`
	URL    string `gorm:"size:500;not null" json:"url"`
	Body   string `gorm:"type:text" json:"body"`
	Image  string `gorm:"size:500;not null" json:"image"`
	Title  string `gorm:"size:500;not null" json:"title"`
	Artist string `gorm:"size:500" json:"artist"`
	Tags   []Tag  `gorm:"many2many:post_tags;" json:"tags"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool           `gorm:"->" json:"liked"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TagSlugs returns the slugs of the post's tags in order.
func (p *Post) TagSlugs() []string {
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		out = append(out, t.Slug)
	}
	return out
}
