package server

import (
	"homestead/internal/repository"
	"homestead/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPosts handles GET /api/posts
// @Summary List published posts
// @Description Newest first. Defaults to the home-page feed size.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	page := parsePagination(c, repository.DefaultFeedSize)

	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := s.postService.ListPublished(ctx, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Description Drafts are only visible to their author and admins.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.Get(ctx, actor(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var in service.CreatePostInput
	if err := decodeStrict(c, &in); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := s.postService.Create(ctx, actor(c), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body service.PostPatch true "Fields to change"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post")
	if err != nil {
		return nil
	}
	var patch service.PostPatch
	if err := decodeStrict(c, &patch); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := s.postService.Update(ctx, actor(c), id, patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "post")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.postService.Delete(ctx, actor(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
