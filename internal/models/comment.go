package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxCommentLen bounds comment and reply bodies.
const MaxCommentLen = 150

// Comment represents a comment on a post.
type Comment struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Body    string  `gorm:"size:150;not null" json:"body"`
	UserID  uint    `gorm:"not null;index" json:"user_id"`
	PostID  uint    `gorm:"not null;index" json:"post_id"`
	User    User    `gorm:"foreignKey:UserID" json:"user"`
	Replies []Reply `gorm:"foreignKey:CommentID" json:"replies,omitempty"`
	// RepliesCount is not persisted; computed at query time
	RepliesCount int            `gorm:"->" json:"replies_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Reply is an answer to a comment.
type Reply struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Body      string         `gorm:"size:150;not null" json:"body"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	CommentID uint           `gorm:"not null;index" json:"comment_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
