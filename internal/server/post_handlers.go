package server

import (
	"artfeed/internal/models"
	"artfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PostDetail is a post together with its comment thread.
type PostDetail struct {
	*models.Post
	Comments []*models.Comment `json:"comments"`
}

// GetTags handles GET /api/tags
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.postService.ListTags(c.UserContext())
	if err != nil {
		return respondAppError(c, err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return c.JSON(tags)
}

// GetPosts handles GET /api/posts and GET /api/categories/:tag
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)
	userID, _ := s.optionalUserID(c)

	tag := c.Params("tag")
	if tag == "" {
		tag = c.Query("tag")
	}

	posts, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Tag:           tag,
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: userID,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(ctx, id, userID)
	if err != nil {
		return respondAppError(c, err)
	}
	comments, err := s.commentService.ListComments(ctx, id)
	if err != nil {
		return respondAppError(c, err)
	}
	if comments == nil {
		comments = []*models.Comment{}
	}

	return c.JSON(PostDetail{Post: post, Comments: comments})
}

// CreatePost handles POST /api/posts. The URL is fetched and the post is
// built from the page's image, title and artist.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.UserID = currentUserID(c)

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.UpdatePostInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.UserID = currentUserID(c)
	req.PostID = postID

	post, err := s.postService.UpdatePost(c.UserContext(), req)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: postID,
	}); err != nil {
		return respondAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like
// This endpoint toggles the like status - if already liked, it unlikes; if not liked, it likes
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.ToggleLike(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(post)
}
