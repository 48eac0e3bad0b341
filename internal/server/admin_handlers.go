package server

import (
	"homestead/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type setRoleRequest struct {
	Role string `json:"role"`
}

// AdminStats handles GET /api/admin/stats
// @Summary Dashboard counts
// @Tags admin
// @Produce json
// @Success 200 {object} service.DashboardStats
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/stats [get]
func (s *Server) AdminStats(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := s.adminService.Stats(ctx, actor(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// AdminListUsers handles GET /api/admin/users
// @Summary List users
// @Tags admin
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.UserListItem
// @Security BearerAuth
// @Router /admin/users [get]
func (s *Server) AdminListUsers(c *fiber.Ctx) error {
	page := parsePagination(c, repository.DefaultPageSize)

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.userService.ListUsers(ctx, actor(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// AdminSetRole handles PUT /api/admin/users/:id/role
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body setRoleRequest true "USER or ADMIN"
// @Success 200 {object} models.UserListItem
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (s *Server) AdminSetRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "user")
	if err != nil {
		return nil
	}
	var req setRoleRequest
	if err := decodeStrict(c, &req); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.userService.SetRole(ctx, actor(c), id, req.Role)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// AdminDeleteUser handles DELETE /api/admin/users/:id
// @Summary Delete a user without listings or posts
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (s *Server) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "user")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.userService.DeleteUser(ctx, actor(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// AdminListProperties handles GET /api/admin/properties
// @Summary List all listings
// @Tags admin
// @Produce json
// @Success 200 {array} models.PropertyListItem
// @Security BearerAuth
// @Router /admin/properties [get]
func (s *Server) AdminListProperties(c *fiber.Ctx) error {
	page := parsePagination(c, repository.DefaultPageSize)

	ctx, cancel := requestContext(c)
	defer cancel()

	props, err := s.adminService.ListProperties(ctx, actor(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(props)
}

// AdminListPosts handles GET /api/admin/posts
// @Summary List all posts including drafts
// @Tags admin
// @Produce json
// @Success 200 {array} models.Post
// @Security BearerAuth
// @Router /admin/posts [get]
func (s *Server) AdminListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, repository.DefaultPageSize)

	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.adminService.ListPosts(ctx, actor(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}
