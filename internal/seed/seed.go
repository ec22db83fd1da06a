package seed

import (
	"context"
	"fmt"

	"artfeed/internal/models"
	"artfeed/internal/observability"
	"artfeed/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Seed populates db with the built-in tags and opts.NumUsers fake users, each
// with opts.PostsPerUser posts, some comments and likes.
func Seed(ctx context.Context, db *gorm.DB, opts Options) error {
	log := observability.FromContext(ctx)
	log.Info("seeding database",
		zap.Int("users", opts.NumUsers),
		zap.Int("posts_per_user", opts.PostsPerUser),
	)

	if opts.Clean {
		if err := clearData(ctx, db); err != nil {
			return fmt.Errorf("clear data: %w", err)
		}
	}

	tags, err := Tags(ctx, repository.NewTagRepository(db))
	if err != nil {
		return err
	}
	log.Info("tags ready", zap.Int("count", len(tags)))

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return err
		}
		users = append(users, user)
	}
	log.Info("users created", zap.Int("count", len(users)))

	var posts []*models.Post
	for _, user := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post, err := f.CreatePost(ctx, user, tags)
			if err != nil {
				return err
			}
			posts = append(posts, post)
		}
	}
	log.Info("posts created", zap.Int("count", len(posts)))

	var comments, likes int
	for _, post := range posts {
		for _, user := range users {
			if user.ID == post.UserID {
				continue
			}
			switch f.rng.Intn(4) {
			case 0:
				if _, err := f.CreateComment(ctx, user, post, users); err != nil {
					return err
				}
				comments++
			case 1:
				if err := f.CreateLike(ctx, user, post); err != nil {
					return fmt.Errorf("create like: %w", err)
				}
				likes++
			}
		}
	}
	log.Info("seeding completed", zap.Int("comments", comments), zap.Int("likes", likes))
	return nil
}

// clearData hard-deletes every row except tags, children first.
func clearData(ctx context.Context, db *gorm.DB) error {
	observability.FromContext(ctx).Warn("clearing existing data")
	tx := db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
	for _, model := range []any{
		&models.Like{},
		&models.Reply{},
		&models.Comment{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	if err := tx.Exec("DELETE FROM post_tags").Error; err != nil {
		return err
	}
	for _, model := range []any{
		&models.Post{},
		&models.Profile{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
