package server

import (
	"artfeed/internal/models"
	"artfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type bodyRequest struct {
	Body string `json:"body"`
}

// CreateComment handles POST /api/posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req bodyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID: currentUserID(c),
		PostID: postID,
		Body:   req.Body,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	}); err != nil {
		return respondAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CreateReply handles POST /api/comments/:id/replies
func (s *Server) CreateReply(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req bodyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	reply, err := s.commentService.CreateReply(c.UserContext(), service.CreateReplyInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Body:      req.Body,
	})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

// DeleteReply handles DELETE /api/replies/:id
func (s *Server) DeleteReply(c *fiber.Ctx) error {
	replyID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.commentService.DeleteReply(c.UserContext(), service.DeleteReplyInput{
		UserID:  currentUserID(c),
		ReplyID: replyID,
	}); err != nil {
		return respondAppError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
