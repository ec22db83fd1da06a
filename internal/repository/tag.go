package repository

import (
	"context"

	"artfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository defines persistence operations for category tags.
type TagRepository interface {
	List(ctx context.Context) ([]models.Tag, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tag, error)
	GetBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error)
	Upsert(ctx context.Context, tag *models.Tag) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var tag models.Tag
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tag).Error; err != nil {
		return nil, translateReadError(err, "Tag", slug)
	}
	return &tag, nil
}

// GetBySlugs returns the tags matching slugs. Unknown slugs are simply absent.
func (r *tagRepository) GetBySlugs(ctx context.Context, slugs []string) ([]models.Tag, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Order("sort_order ASC").Find(&tags).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// Upsert inserts tag or updates name, image and order of the existing slug.
func (r *tagRepository) Upsert(ctx context.Context, tag *models.Tag) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "image", "sort_order"}),
	}).Create(tag).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
