package server

import (
	"io"

	"artfeed/internal/models"
	"artfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	view, err := s.accountService.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(view)
}

// UpdateMyProfile handles PUT /api/profile and PUT /api/profile/onboarding
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.UserID = currentUserID(c)

	view, err := s.accountService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(view)
}

// UploadAvatar handles POST /api/profile/avatar with a multipart "image" field.
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.avatarService.MaxUploadSizeBytes() {
		return models.RespondWithError(c, fiber.StatusRequestEntityTooLarge,
			models.NewValidationError("File too large"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(io.LimitReader(src, s.avatarService.MaxUploadSizeBytes()+1))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Unable to read uploaded file"))
	}

	view, err := s.avatarService.UploadAvatar(c.UserContext(), currentUserID(c), content)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(view)
}

// DeleteMyProfile handles DELETE /api/profile. The account, its profile and
// all of its content are removed.
func (s *Server) DeleteMyProfile(c *fiber.Ctx) error {
	if err := s.accountService.DeleteAccount(c.UserContext(), currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid username"))
	}
	viewerID, _ := s.optionalUserID(c)

	view, err := s.accountService.GetProfileByUsername(c.UserContext(), username, viewerID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(view)
}
