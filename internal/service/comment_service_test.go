package service

import (
	"context"
	"strings"
	"testing"

	"artfeed/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"ok", "Lovely light", ""},
		{"empty", "   ", models.CodeValidation},
		{"only markup", "<script>alert(1)</script>", models.CodeValidation},
		{"too long", strings.Repeat("a", models.MaxCommentLen+1), models.CodeValidation},
		{"at limit", strings.Repeat("a", models.MaxCommentLen), ""},
		{"ampersands at limit", strings.Repeat("&", models.MaxCommentLen), ""},
		{"punctuation kept", `Tom & Jerry's "best" <3`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := noopCommentRepo()
			var created *models.Comment
			comments.createFn = func(_ context.Context, c *models.Comment) error {
				c.ID = 1
				created = c
				return nil
			}
			comments.getByIDFn = func(_ context.Context, _ uint) (*models.Comment, error) {
				return created, nil
			}
			svc := NewCommentService(comments, noopReplyRepo(), noopPostRepo(), notAdmin)

			comment, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 3, Body: tt.body})
			if tt.wantCode != "" {
				assertAppError(t, err, tt.wantCode)
				assert.Nil(t, created)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, uint(2), comment.UserID)
			assert.Equal(t, uint(3), comment.PostID)
			assert.Equal(t, strings.TrimSpace(tt.body), comment.Body)
		})
	}
}

func TestCreateComment_PostMustExist(t *testing.T) {
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id, _ uint) (*models.Post, error) {
		return nil, models.NewNotFoundError("Post", id)
	}
	comments := noopCommentRepo()
	comments.createFn = func(_ context.Context, _ *models.Comment) error {
		t.Fatal("comment must not be created")
		return nil
	}
	svc := NewCommentService(comments, noopReplyRepo(), posts, notAdmin)

	_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 1, PostID: 42, Body: "hi"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestDeleteComment_Authorization(t *testing.T) {
	tests := []struct {
		name     string
		actor    uint
		isAdmin  func(context.Context, uint) (bool, error)
		wantCode string
	}{
		{"owner", 2, notAdmin, ""},
		{"admin", 7, admin, ""},
		{"stranger", 7, notAdmin, models.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comments := noopCommentRepo()
			comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
				return &models.Comment{ID: id, UserID: 2, PostID: 3}, nil
			}
			deleted := false
			comments.deleteFn = func(_ context.Context, _ uint) error {
				deleted = true
				return nil
			}
			svc := NewCommentService(comments, noopReplyRepo(), noopPostRepo(), tt.isAdmin)

			_, err := svc.DeleteComment(context.Background(), DeleteCommentInput{UserID: tt.actor, CommentID: 5})
			if tt.wantCode != "" {
				assertAppError(t, err, tt.wantCode)
				assert.False(t, deleted)
				return
			}
			require.NoError(t, err)
			assert.True(t, deleted)
		})
	}
}

func TestCreateReply(t *testing.T) {
	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		if id != 5 {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return &models.Comment{ID: id}, nil
	}
	replies := noopReplyRepo()
	var created *models.Reply
	replies.createFn = func(_ context.Context, r *models.Reply) error {
		r.ID = 9
		created = r
		return nil
	}
	replies.getByIDFn = func(_ context.Context, _ uint) (*models.Reply, error) {
		return created, nil
	}
	svc := NewCommentService(comments, replies, noopPostRepo(), notAdmin)

	reply, err := svc.CreateReply(context.Background(), CreateReplyInput{UserID: 1, CommentID: 5, Body: "Thanks!"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), reply.CommentID)
	assert.Equal(t, "Thanks!", reply.Body)

	_, err = svc.CreateReply(context.Background(), CreateReplyInput{UserID: 1, CommentID: 6, Body: "Thanks!"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestDeleteReply_Authorization(t *testing.T) {
	replies := noopReplyRepo()
	replies.getByIDFn = func(_ context.Context, id uint) (*models.Reply, error) {
		return &models.Reply{ID: id, UserID: 2}, nil
	}
	deletes := 0
	replies.deleteFn = func(_ context.Context, _ uint) error {
		deletes++
		return nil
	}
	svc := NewCommentService(noopCommentRepo(), replies, noopPostRepo(), notAdmin)

	_, err := svc.DeleteReply(context.Background(), DeleteReplyInput{UserID: 3, ReplyID: 1})
	assertAppError(t, err, models.CodeUnauthorized)

	_, err = svc.DeleteReply(context.Background(), DeleteReplyInput{UserID: 2, ReplyID: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, deletes)
}
