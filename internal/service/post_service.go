// Package service implements the application use cases on top of the repositories.
package service

import (
	"context"
	"errors"
	"fmt"

	"artfeed/internal/cache"
	"artfeed/internal/models"
	"artfeed/internal/repository"
	"artfeed/internal/scraper"
	"artfeed/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageScraper turns an external photo page URL into post material.
type PageScraper interface {
	Scrape(ctx context.Context, url string) (*scraper.Result, error)
}

type PostService struct {
	postRepo repository.PostRepository
	tagRepo  repository.TagRepository
	scraper  PageScraper
	isAdmin  func(ctx context.Context, userID uint) (bool, error)
}

type CreatePostInput struct {
	UserID uint     `json:"-"`
	URL    string   `json:"url" validate:"required,max=500,web_url"`
	Body   string   `json:"body" validate:"max=2000"`
	Tags   []string `json:"tags" validate:"max=10,dive,required,max=20"`
}

type ListPostsInput struct {
	Tag           string
	Limit         int
	Offset        int
	CurrentUserID uint
}

// UpdatePostInput edits the caption and tags. A nil Body keeps the caption;
// a nil Tags keeps the tags and an empty, non-nil Tags clears them.
type UpdatePostInput struct {
	UserID uint     `json:"-"`
	PostID uint     `json:"-"`
	Body   *string  `json:"body" validate:"omitempty,max=2000"`
	Tags   []string `json:"tags" validate:"omitempty,max=10,dive,required,max=20"`
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	pageScraper PageScraper,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *PostService {
	return &PostService{
		postRepo: postRepo,
		tagRepo:  tagRepo,
		scraper:  pageScraper,
		isAdmin:  isAdmin,
	}
}

// CreatePost validates the submission, scrapes the target page and persists
// the post. If the page cannot be fetched or is missing the image, title or
// artist, nothing is written and an EXTRACTION_ERROR is returned.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	tags, err := s.resolveTags(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	page, err := s.scraper.Scrape(ctx, in.URL)
	if err != nil {
		return nil, extractionError(err)
	}

	post := &models.Post{
		UserID: in.UserID,
		URL:    in.URL,
		Body:   validation.Sanitize(in.Body),
		Image:  page.Image,
		Title:  page.Title,
		Artist: page.Artist,
		Tags:   tags,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func extractionError(err error) error {
	if errors.Is(err, scraper.ErrMissingElement) {
		return models.NewExtractionError("Could not find an image, title and artist on that page", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return models.NewExtractionError("Could not fetch that page", err)
}

// resolveTags loads the tags for slugs; any unknown slug is a validation error.
func (s *PostService) resolveTags(ctx context.Context, slugs []string) ([]models.Tag, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	slugs = dedupe(slugs)
	tags, err := s.tagRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}
	if len(tags) == len(slugs) {
		return tags, nil
	}
	known := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		known[t.Slug] = struct{}{}
	}
	for _, slug := range slugs {
		if _, ok := known[slug]; !ok {
			return nil, models.NewValidationError(fmt.Sprintf("Unknown tag %q", slug))
		}
	}
	return tags, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ListPosts returns posts newest first, optionally restricted to one tag slug.
// Anonymous pages are served from cache.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := normalizePage(in.Limit, in.Offset)

	var tagID uint
	if in.Tag != "" {
		tag, err := s.tagRepo.GetBySlug(ctx, in.Tag)
		if err != nil {
			return nil, err
		}
		tagID = tag.ID
	}

	if in.CurrentUserID != 0 {
		return s.postRepo.List(ctx, tagID, limit, offset, in.CurrentUserID)
	}

	var posts []*models.Post
	key := cache.PostsListKey(ctx, in.Tag, limit, offset)
	err := cache.Aside(ctx, key, &posts, cache.PostsListTTL, func() error {
		var fetchErr error
		posts, fetchErr = s.postRepo.List(ctx, tagID, limit, offset, 0)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	limit, offset = normalizePage(limit, offset)
	return s.postRepo.GetByUserID(ctx, userID, limit, offset, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewUnauthorizedError("You can only update your own posts")
	}

	if in.Body != nil {
		post.Body = validation.Sanitize(*in.Body)
	}

	var tags []models.Tag
	if in.Tags != nil {
		tags, err = s.resolveTags(ctx, in.Tags)
		if err != nil {
			return nil, err
		}
		if tags == nil {
			tags = []models.Tag{}
		}
	}

	if err := s.postRepo.Update(ctx, post, tags); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

// DeletePost removes exactly the given post. Only its author or an admin may.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return err
	}

	if err := s.authorize(ctx, post.UserID, in.UserID, "You can only delete your own posts"); err != nil {
		return err
	}

	return s.postRepo.Delete(ctx, in.PostID)
}

// ToggleLike likes the post, or unlikes it if already liked. Authors cannot
// like their own posts.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return nil, err
	}
	if post.UserID == userID {
		return nil, models.NewValidationError("You cannot like your own post")
	}

	if post.Liked {
		err = s.postRepo.Unlike(ctx, userID, postID)
	} else {
		err = s.postRepo.Like(ctx, userID, postID)
	}
	if err != nil {
		return nil, err
	}

	return s.postRepo.GetByID(ctx, postID, userID)
}

func (s *PostService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := cache.Aside(ctx, cache.TagsKey, &tags, cache.TagsTTL, func() error {
		var fetchErr error
		tags, fetchErr = s.tagRepo.List(ctx)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *PostService) authorize(ctx context.Context, ownerID, actorID uint, msg string) error {
	return authorizeOwnerOrAdmin(ctx, s.isAdmin, ownerID, actorID, msg)
}

// authorizeOwnerOrAdmin passes when actor owns the resource or is an admin.
func authorizeOwnerOrAdmin(
	ctx context.Context,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	ownerID, actorID uint,
	msg string,
) error {
	if ownerID == actorID {
		return nil
	}
	if isAdmin == nil {
		return models.NewUnauthorizedError(msg)
	}
	admin, err := isAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !admin {
		return models.NewUnauthorizedError(msg)
	}
	return nil
}
