package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"artfeed/internal/cache"
	"artfeed/internal/models"
	"artfeed/internal/repository"
	"artfeed/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	replyRepo   repository.ReplyRepository
	postRepo    repository.PostRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID uint
	PostID uint
	Body   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

type CreateReplyInput struct {
	UserID    uint
	CommentID uint
	Body      string
}

type DeleteReplyInput struct {
	UserID  uint
	ReplyID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	replyRepo repository.ReplyRepository,
	postRepo repository.PostRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		replyRepo:   replyRepo,
		postRepo:    postRepo,
		isAdmin:     isAdmin,
	}
}

// cleanBody sanitizes body and enforces 1..MaxCommentLen characters.
func cleanBody(body string) (string, error) {
	clean := validation.Sanitize(body)
	if clean == "" {
		return "", models.NewValidationError("Body is required")
	}
	if utf8.RuneCountInString(clean) > models.MaxCommentLen {
		return "", models.NewValidationError(fmt.Sprintf("Body too long (max %d characters)", models.MaxCommentLen))
	}
	return clean, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID); err != nil {
		return nil, err
	}
	body, err := cleanBody(in.Body)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Body:   body,
		UserID: in.UserID,
		PostID: in.PostID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, in.PostID)

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// ListComments returns the post's comments newest first with their replies.
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// DeleteComment removes the comment and its replies.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if err := authorizeOwnerOrAdmin(ctx, s.isAdmin, comment.UserID, in.UserID, "You can only delete your own comments"); err != nil {
		return nil, err
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	cache.InvalidatePost(ctx, comment.PostID)

	return comment, nil
}

func (s *CommentService) CreateReply(ctx context.Context, in CreateReplyInput) (*models.Reply, error) {
	if _, err := s.commentRepo.GetByID(ctx, in.CommentID); err != nil {
		return nil, err
	}
	body, err := cleanBody(in.Body)
	if err != nil {
		return nil, err
	}

	reply := &models.Reply{
		Body:      body,
		UserID:    in.UserID,
		CommentID: in.CommentID,
	}
	if err := s.replyRepo.Create(ctx, reply); err != nil {
		return nil, err
	}

	return s.replyRepo.GetByID(ctx, reply.ID)
}

func (s *CommentService) DeleteReply(ctx context.Context, in DeleteReplyInput) (*models.Reply, error) {
	reply, err := s.replyRepo.GetByID(ctx, in.ReplyID)
	if err != nil {
		return nil, err
	}

	if err := authorizeOwnerOrAdmin(ctx, s.isAdmin, reply.UserID, in.UserID, "You can only delete your own replies"); err != nil {
		return nil, err
	}

	if err := s.replyRepo.Delete(ctx, in.ReplyID); err != nil {
		return nil, err
	}
	return reply, nil
}
