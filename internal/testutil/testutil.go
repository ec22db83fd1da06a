// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"artfeed/internal/database"
	"artfeed/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database with every model migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each new connection would see its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateUser inserts a user named username and its companion profile.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hashed",
	}
	require.NoError(t, db.Omit("Profile").Create(user).Error)
	profile := &models.Profile{UserID: user.ID, Email: user.Email}
	require.NoError(t, db.Omit("User").Create(profile).Error)
	user.Profile = profile
	return user
}

// CreateTag inserts a tag with the given slug.
func CreateTag(t *testing.T, db *gorm.DB, slug string, order int) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: slug, Slug: slug, Order: order}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// CreatePost inserts a post authored by userID tagged with tags.
func CreatePost(t *testing.T, db *gorm.DB, userID uint, title string, tags ...models.Tag) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID: userID,
		URL:    "https://www.flickr.com/photos/someone/1",
		Body:   "caption for " + title,
		Image:  "https://live.staticflickr.com/65535/1_abc_b.jpg",
		Title:  title,
		Artist: "someone",
		Tags:   tags,
	}
	require.NoError(t, db.Omit("User", "Tags.*").Create(post).Error)
	return post
}

// PNG returns an encoded w x h PNG filled with a solid colour.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
