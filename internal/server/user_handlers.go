package server

import (
	"homestead/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/profile
// @Summary Get the signed-in user's profile
// @Tags users
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := s.userService.GetProfile(ctx, actor(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateProfile handles PUT /api/users/profile
// @Summary Update the signed-in user's profile
// @Description Empty name, phone or image values are ignored. Bio may be cleared.
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.ProfileUpdate true "Profile fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var in service.ProfileUpdate
	if err := decodeStrict(c, &in); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := s.userService.UpdateProfile(ctx, actor(c), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}
