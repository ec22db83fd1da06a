package repository

import (
	"context"

	"artfeed/internal/models"

	"gorm.io/gorm"
)

// ReplyRepository defines persistence operations for comment replies.
type ReplyRepository interface {
	Create(ctx context.Context, reply *models.Reply) error
	GetByID(ctx context.Context, id uint) (*models.Reply, error)
	Delete(ctx context.Context, id uint) error
}

type replyRepository struct {
	db *gorm.DB
}

// NewReplyRepository creates a new ReplyRepository
func NewReplyRepository(db *gorm.DB) ReplyRepository {
	return &replyRepository{db: db}
}

func (r *replyRepository) Create(ctx context.Context, reply *models.Reply) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(reply).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *replyRepository) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	var reply models.Reply
	if err := r.db.WithContext(ctx).Preload("User").First(&reply, id).Error; err != nil {
		return nil, translateReadError(err, "Reply", id)
	}
	return &reply, nil
}

func (r *replyRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Reply{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Reply", id)
	}
	return nil
}
