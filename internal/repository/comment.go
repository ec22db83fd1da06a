package repository

import (
	"context"

	"artfeed/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User", "Replies").Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		return nil, translateReadError(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns the post's comments newest first, each with its replies oldest first.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Select("comments.*, (SELECT COUNT(*) FROM replies WHERE replies.comment_id = comments.id AND replies.deleted_at IS NULL) as replies_count").
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("replies.created_at ASC, replies.id ASC")
		}).
		Preload("Replies.User").
		Where("comments.post_id = ?", postID).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete removes the comment together with its replies.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Comment{}, id)
		rows = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	if rows == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
