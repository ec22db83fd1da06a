package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"artfeed/internal/cache"
	"artfeed/internal/models"
	"artfeed/internal/observability"
	"artfeed/internal/repository"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	AvatarSize                   = 256
	AvatarWebPQuality            = 80
	DefaultAvatarMaxUploadSizeMB = 5
	avatarDir                    = "avatars"
	// MediaURLPrefix is where MEDIA_ROOT is mounted.
	MediaURLPrefix = "/media"
)

type AvatarService struct {
	profiles           repository.ProfileRepository
	mediaRoot          string
	maxUploadSizeBytes int64
}

func NewAvatarService(profiles repository.ProfileRepository, mediaRoot string, maxUploadSizeMB int) *AvatarService {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultAvatarMaxUploadSizeMB
	}
	return &AvatarService{
		profiles:           profiles,
		mediaRoot:          mediaRoot,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MaxUploadSizeBytes is the largest accepted upload.
func (s *AvatarService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// UploadAvatar stores a square webp rendition of content and points the
// user's profile at it. The previous uploaded avatar file is removed.
func (s *AvatarService) UploadAvatar(ctx context.Context, userID uint, content []byte) (*models.ProfileView, error) {
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		return nil, models.NewValidationError("Unsupported image format")
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	avatar := scaleTo(cropToSquare(decoded), AvatarSize, AvatarSize)
	encoded, err := encodeWebP(avatar, AvatarWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	name := uuid.NewString() + ".webp"
	abs := filepath.Join(s.mediaRoot, avatarDir, name)
	if err := writeBytesToFile(abs, encoded); err != nil {
		return nil, models.NewInternalError(err)
	}

	previous := profile.Image
	url := MediaURLPrefix + "/" + avatarDir + "/" + name
	if err := s.profiles.UpdateImage(ctx, userID, url); err != nil {
		_ = os.Remove(abs)
		return nil, err
	}
	profile.Image = url
	s.removeStoredAvatar(ctx, previous)

	username := ""
	if profile.User != nil {
		username = profile.User.Username
	}
	cache.InvalidateAccount(ctx, userID, username)
	return models.NewOwnProfileView(profile), nil
}

func (s *AvatarService) removeStoredAvatar(ctx context.Context, url string) {
	prefix := MediaURLPrefix + "/" + avatarDir + "/"
	if !strings.HasPrefix(url, prefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(url, prefix))
	if err := os.Remove(filepath.Join(s.mediaRoot, avatarDir, name)); err != nil && !os.IsNotExist(err) {
		observability.FromContext(ctx).Warn("failed to remove old avatar", zap.String("path", url), zap.Error(err))
	}
}

// cropToSquare takes the centred square of src.
func cropToSquare(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	side := w
	if h < side {
		side = h
	}
	if side <= 0 {
		return src
	}
	x := b.Min.X + (w-side)/2
	y := b.Min.Y + (h-side)/2
	return cropToRect(src, x, y, side, side)
}

func cropToRect(src image.Image, x, y, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

// scaleTo resamples src to exactly w x h.
func scaleTo(src image.Image, w, h int) image.Image {
	bounds := src.Bounds()
	if bounds.Dx() == w && bounds.Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
