package service

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"artfeed/internal/models"
	"artfeed/internal/repository"
	"artfeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUploadAvatar_StoresSquareWebP(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "ansel")
	root := t.TempDir()
	profiles := repository.NewProfileRepository(db)
	svc := NewAvatarService(profiles, root, 0)

	view, err := svc.UploadAvatar(context.Background(), user.ID, testutil.PNG(t, 600, 300))
	require.NoError(t, err)
	assert.True(t, view.AvatarIsSet)
	require.True(t, strings.HasPrefix(view.Avatar, "/media/avatars/"))
	require.True(t, strings.HasSuffix(view.Avatar, ".webp"))

	stored := filepath.Join(root, strings.TrimPrefix(view.Avatar, "/media/"))
	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, AvatarSize, cfg.Width)
	assert.Equal(t, AvatarSize, cfg.Height)

	p, err := profiles.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Avatar, p.Image)
}

func TestUploadAvatar_ReplacesPreviousFile(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "ansel")
	root := t.TempDir()
	svc := NewAvatarService(repository.NewProfileRepository(db), root, 0)

	first, err := svc.UploadAvatar(context.Background(), user.ID, testutil.PNG(t, 40, 40))
	require.NoError(t, err)
	second, err := svc.UploadAvatar(context.Background(), user.ID, testutil.PNG(t, 50, 80))
	require.NoError(t, err)
	require.NotEqual(t, first.Avatar, second.Avatar)

	entries, err := os.ReadDir(filepath.Join(root, "avatars"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(second.Avatar), entries[0].Name())
}

// editDuringRead changes the stored location right after the profile is read,
// as a concurrent profile save would.
type editDuringRead struct {
	repository.ProfileRepository
	db *gorm.DB
}

func (r editDuringRead) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	p, err := r.ProfileRepository.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("location", "Yosemite").Error; err != nil {
		return nil, err
	}
	return p, nil
}

func TestUploadAvatar_KeepsConcurrentProfileEdits(t *testing.T) {
	db := testutil.NewTestDB(t)
	user := testutil.CreateUser(t, db, "ansel")
	profiles := repository.NewProfileRepository(db)
	svc := NewAvatarService(editDuringRead{ProfileRepository: profiles, db: db}, t.TempDir(), 0)

	view, err := svc.UploadAvatar(context.Background(), user.ID, testutil.PNG(t, 32, 32))
	require.NoError(t, err)

	stored, err := profiles.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, view.Avatar, stored.Image)
	assert.Equal(t, "Yosemite", stored.Location)
}

func TestUploadAvatar_MissingProfileRemovesFile(t *testing.T) {
	root := t.TempDir()
	profiles := noopProfileRepo()
	profiles.updateImageFn = func(_ context.Context, userID uint, _ string) error {
		return models.NewNotFoundError("Profile for user", userID)
	}
	svc := NewAvatarService(profiles, root, 0)

	_, err := svc.UploadAvatar(context.Background(), 9, testutil.PNG(t, 32, 32))
	assertAppError(t, err, models.CodeNotFound)

	entries, err := os.ReadDir(filepath.Join(root, "avatars"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadAvatar_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"not an image", []byte("hello, this is plain text")},
		{"truncated png", testutil.PNG(t, 10, 10)[:20]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profiles := noopProfileRepo()
			profiles.updateFn = func(_ context.Context, _ *models.Profile) error {
				t.Fatal("profile must not change")
				return nil
			}
			profiles.updateImageFn = func(_ context.Context, _ uint, _ string) error {
				t.Fatal("profile must not change")
				return nil
			}
			svc := NewAvatarService(profiles, t.TempDir(), 1)

			_, err := svc.UploadAvatar(context.Background(), 1, tt.content)
			assertAppError(t, err, models.CodeValidation)
		})
	}
}

func TestUploadAvatar_TooLarge(t *testing.T) {
	svc := NewAvatarService(noopProfileRepo(), t.TempDir(), 1)
	_, err := svc.UploadAvatar(context.Background(), 1, make([]byte, svc.MaxUploadSizeBytes()+1))
	assertAppError(t, err, models.CodeValidation)
}

func TestCropToSquare(t *testing.T) {
	img := cropToSquare(image.NewRGBA(image.Rect(0, 0, 300, 120)))
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 120, img.Bounds().Dy())
}
