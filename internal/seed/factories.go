// Package seed creates demo data for development databases: the built-in
// tags plus fake users, posts, comments and likes.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"artfeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "Artfeed-Demo-2024!"

// Options controls the size and shape of the seeded data.
type Options struct {
	NumUsers     int
	PostsPerUser int
	// MaxDays spreads post creation times over this many past days.
	MaxDays    int
	SkipBcrypt bool
	Clean      bool
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db    *gorm.DB
	opts  Options
	rng   *rand.Rand
	faker *gofakeit.Faker
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := time.Now().UnixNano()
	return &Factory{
		db:    db,
		opts:  opts,
		rng:   rand.New(rand.NewSource(seed)),
		faker: gofakeit.New(seed),
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CreateUser persists a fake user and its profile. The profile email equals
// the user email.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s_%s%d", alnum(first), alnum(last), f.faker.Number(10, 9999)))

	hashed, err := f.password()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: handle,
		Email:    handle + "@" + f.faker.DomainName(),
		Password: hashed,
	}
	for _, override := range overrides {
		override(user)
	}
	user.Email = strings.ToLower(user.Email)

	err = f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Profile").Create(user).Error; err != nil {
			return err
		}
		profile := &models.Profile{
			UserID:   user.ID,
			Email:    user.Email,
			RealName: truncate(first+" "+last, models.MaxRealNameLen),
			Location: truncate(f.faker.City(), models.MaxLocationLen),
			Bio:      f.faker.Sentence(12),
		}
		if err := tx.Omit("User").Create(profile).Error; err != nil {
			return err
		}
		user.Profile = profile
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost returns an unsaved post by user that looks like a scraped Flickr page.
func (f *Factory) BuildPost(user *models.User, tags []models.Tag) *models.Post {
	photoID := f.faker.Number(10000000, 99999999)
	post := &models.Post{
		UserID: user.ID,
		URL:    fmt.Sprintf("https://www.flickr.com/photos/%s/%d/", user.Username, photoID),
		Body:   f.faker.Sentence(f.rng.Intn(15) + 3),
		Image:  fmt.Sprintf("https://live.staticflickr.com/65535/%d_%s_b.jpg", photoID, f.faker.LetterN(10)),
		Title:  strings.TrimSuffix(f.faker.Sentence(f.rng.Intn(4)+2), "."),
		Artist: f.faker.Name(),
		Tags:   f.pickTags(tags),
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	post.CreatedAt = time.Now().Add(-back)
	post.UpdatedAt = post.CreatedAt
	return post
}

// pickTags returns zero to three distinct tags.
func (f *Factory) pickTags(tags []models.Tag) []models.Tag {
	if len(tags) == 0 {
		return nil
	}
	n := f.rng.Intn(4)
	if n > len(tags) {
		n = len(tags)
	}
	out := make([]models.Tag, 0, n)
	for _, i := range f.rng.Perm(len(tags))[:n] {
		out = append(out, tags[i])
	}
	return out
}

// CreatePost persists a fake post for user.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, tags []models.Tag) (*models.Post, error) {
	post := f.BuildPost(user, tags)
	if err := f.db.WithContext(ctx).Omit("User", "Tags.*").Create(post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by user on post with up to two replies from repliers.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, repliers []*models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Body:   truncate(f.faker.Sentence(f.rng.Intn(10)+3), models.MaxCommentLen),
		UserID: user.ID,
		PostID: post.ID,
	}
	if err := f.db.WithContext(ctx).Omit("User", "Replies").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	for i := 0; i < f.rng.Intn(3) && len(repliers) > 0; i++ {
		replier := repliers[f.rng.Intn(len(repliers))]
		reply := &models.Reply{
			Body:      truncate(f.faker.Sentence(f.rng.Intn(8)+2), models.MaxCommentLen),
			UserID:    replier.ID,
			CommentID: comment.ID,
		}
		if err := f.db.WithContext(ctx).Omit("User").Create(reply).Error; err != nil {
			return nil, fmt.Errorf("create reply: %w", err)
		}
	}
	return comment, nil
}

// CreateLike records that user likes post. Liking twice is a no-op.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	like := &models.Like{UserID: user.ID, PostID: post.ID}
	return f.db.WithContext(ctx).
		Where(models.Like{UserID: user.ID, PostID: post.ID}).
		FirstOrCreate(like).Error
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}
