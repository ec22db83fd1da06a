package service

import (
	"context"
	"errors"
	"testing"

	"artfeed/internal/models"
	"artfeed/internal/repository"
	"artfeed/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint, uint) (*models.Post, error)
	getByUserIDFn func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	listFn        func(context.Context, uint, int, int, uint) ([]*models.Post, error)
	updateFn      func(context.Context, *models.Post, []models.Tag) error
	deleteFn      func(context.Context, uint) error
	isLikedFn     func(context.Context, uint, uint) (bool, error)
	likeFn        func(context.Context, uint, uint) error
	unlikeFn      func(context.Context, uint, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, offset, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, tagID uint, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, tagID, limit, offset, currentUserID)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post, tags []models.Tag) error {
	return s.updateFn(ctx, post, tags)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:      func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:     func(_ context.Context, _, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		getByUserIDFn: func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		listFn:        func(_ context.Context, _ uint, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Post, _ []models.Tag) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		isLikedFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		likeFn:        func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:      func(_ context.Context, _, _ uint) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	tags map[string]models.Tag
}

func newTagRepoStub(slugs ...string) *tagRepoStub {
	s := &tagRepoStub{tags: make(map[string]models.Tag)}
	for i, slug := range slugs {
		s.tags[slug] = models.Tag{ID: uint(i + 1), Name: slug, Slug: slug, Order: i}
	}
	return s
}

func (s *tagRepoStub) List(_ context.Context) ([]models.Tag, error) {
	out := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		out = append(out, t)
	}
	return out, nil
}
func (s *tagRepoStub) GetBySlug(_ context.Context, slug string) (*models.Tag, error) {
	t, ok := s.tags[slug]
	if !ok {
		return nil, models.NewNotFoundError("Tag", slug)
	}
	return &t, nil
}
func (s *tagRepoStub) GetBySlugs(_ context.Context, slugs []string) ([]models.Tag, error) {
	var out []models.Tag
	for _, slug := range slugs {
		if t, ok := s.tags[slug]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *tagRepoStub) Upsert(_ context.Context, tag *models.Tag) error {
	s.tags[tag.Slug] = *tag
	return nil
}

// scraperStub is a stub for PageScraper.
type scraperStub struct {
	calls    int
	scrapeFn func(context.Context, string) (*scraper.Result, error)
}

func (s *scraperStub) Scrape(ctx context.Context, url string) (*scraper.Result, error) {
	s.calls++
	return s.scrapeFn(ctx, url)
}

func okScraper() *scraperStub {
	return &scraperStub{scrapeFn: func(_ context.Context, _ string) (*scraper.Result, error) {
		return &scraper.Result{Image: "https://img.example.com/1.jpg", Title: "Dunes", Artist: "Ansel"}, nil
	}}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByUserIDFn    func(context.Context, uint) (*models.Profile, error)
	createFn         func(context.Context, *models.Profile) error
	updateFn         func(context.Context, *models.Profile) error
	updateImageFn    func(context.Context, uint, string) error
	deleteByUserIDFn func(context.Context, uint) error
}

func (s *profileRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *profileRepoStub) Create(ctx context.Context, profile *models.Profile) error {
	return s.createFn(ctx, profile)
}
func (s *profileRepoStub) Update(ctx context.Context, profile *models.Profile) error {
	return s.updateFn(ctx, profile)
}
func (s *profileRepoStub) UpdateImage(ctx context.Context, userID uint, image string) error {
	return s.updateImageFn(ctx, userID, image)
}
func (s *profileRepoStub) DeleteByUserID(ctx context.Context, userID uint) error {
	return s.deleteByUserIDFn(ctx, userID)
}

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByUserIDFn: func(_ context.Context, userID uint) (*models.Profile, error) {
			return &models.Profile{UserID: userID}, nil
		},
		createFn:         func(_ context.Context, _ *models.Profile) error { return nil },
		updateFn:         func(_ context.Context, _ *models.Profile) error { return nil },
		updateImageFn:    func(_ context.Context, _ uint, _ string) error { return nil },
		deleteByUserIDFn: func(_ context.Context, _ uint) error { return nil },
	}
}

type contentRemoverStub struct {
	removeFn func(context.Context, uint) error
}

func (s *contentRemoverStub) RemoveByUser(ctx context.Context, userID uint) error {
	return s.removeFn(ctx, userID)
}

// accountTxStub runs fn against the stub repositories without a real transaction.
type accountTxStub struct {
	repos repository.AccountRepos
	calls int
}

func (s *accountTxStub) InTx(_ context.Context, fn func(repos repository.AccountRepos) error) error {
	s.calls++
	return fn(s.repos)
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// replyRepoStub is a stub for repository.ReplyRepository.
type replyRepoStub struct {
	createFn  func(context.Context, *models.Reply) error
	getByIDFn func(context.Context, uint) (*models.Reply, error)
	deleteFn  func(context.Context, uint) error
}

func (s *replyRepoStub) Create(ctx context.Context, reply *models.Reply) error {
	return s.createFn(ctx, reply)
}
func (s *replyRepoStub) GetByID(ctx context.Context, id uint) (*models.Reply, error) {
	return s.getByIDFn(ctx, id)
}
func (s *replyRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopReplyRepo() *replyRepoStub {
	return &replyRepoStub{
		createFn:  func(_ context.Context, _ *models.Reply) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Reply, error) { return &models.Reply{ID: id}, nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
	}
}

func notAdmin(_ context.Context, _ uint) (bool, error) { return false, nil }
func admin(_ context.Context, _ uint) (bool, error) { return true, nil }

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
