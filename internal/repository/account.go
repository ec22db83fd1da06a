package repository

import (
	"context"

	"artfeed/internal/models"

	"gorm.io/gorm"
)

// AccountRepos are the repositories bound to one account transaction.
type AccountRepos struct {
	Users    UserRepository
	Profiles ProfileRepository
	// Content removes everything the user authored. Only DeleteAccount uses it.
	Content ContentRemover
}

// ContentRemover deletes all posts, likes, comments and replies of a user.
type ContentRemover interface {
	RemoveByUser(ctx context.Context, userID uint) error
}

// AccountTx runs user and profile writes atomically.
type AccountTx interface {
	InTx(ctx context.Context, fn func(repos AccountRepos) error) error
}

type accountTx struct {
	db *gorm.DB
}

// NewAccountTx returns an AccountTx backed by db transactions.
func NewAccountTx(db *gorm.DB) AccountTx {
	return &accountTx{db: db}
}

// InTx commits when fn returns nil and rolls back otherwise. The error from fn
// is returned unchanged so AppError codes survive.
func (a *accountTx) InTx(ctx context.Context, fn func(repos AccountRepos) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(AccountRepos{
			Users:    NewUserRepository(tx),
			Profiles: NewProfileRepository(tx),
			Content:  &contentRemover{db: tx},
		})
	})
}

type contentRemover struct {
	db *gorm.DB
}

func (c *contentRemover) RemoveByUser(ctx context.Context, userID uint) error {
	db := c.db.WithContext(ctx)
	postIDs := db.Model(&models.Post{}).Select("id").Where("user_id = ?", userID)
	commentIDs := db.Model(&models.Comment{}).Select("id").Where("user_id = ? OR post_id IN (?)", userID, postIDs)

	steps := []func() error{
		func() error {
			return db.Where("user_id = ? OR post_id IN (?)", userID, postIDs).Delete(&models.Like{}).Error
		},
		func() error {
			return db.Where("user_id = ? OR comment_id IN (?)", userID, commentIDs).Delete(&models.Reply{}).Error
		},
		func() error {
			return db.Where("user_id = ? OR post_id IN (?)", userID, postIDs).Delete(&models.Comment{}).Error
		},
		func() error {
			return db.Where("user_id = ?", userID).Delete(&models.Post{}).Error
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return models.NewInternalError(err)
		}
	}
	return nil
}
