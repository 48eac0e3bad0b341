package server

import (
	"strings"

	"homestead/internal/repository"
	"homestead/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListProperties handles GET /api/properties
// @Summary List listings
// @Tags properties
// @Produce json
// @Param dealType query string false "Deal type"
// @Param propertyType query string false "Property type"
// @Param status query string false "Status"
// @Param location query string false "Location substring"
// @Param ownerId query int false "Owner user ID"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Property
// @Router /properties [get]
func (s *Server) ListProperties(c *fiber.Ctx) error {
	page := parsePagination(c, repository.DefaultPageSize)
	filter := repository.PropertyFilter{
		DealType:     strings.TrimSpace(c.Query("dealType")),
		PropertyType: strings.TrimSpace(c.Query("propertyType")),
		Status:       strings.TrimSpace(c.Query("status")),
		Location:     strings.TrimSpace(c.Query("location")),
		Limit:        page.Limit,
		Offset:       page.Offset,
	}
	if owner := c.QueryInt("ownerId", 0); owner > 0 {
		filter.OwnerID = uint(owner)
	}
	var err error
	if filter.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return respondServiceError(c, err)
	}
	if filter.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return respondServiceError(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	props, err := s.propertyService.List(ctx, filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(props)
}

// GetProperty handles GET /api/properties/:id
// @Summary Get a listing
// @Tags properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} models.Property
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /properties/{id} [get]
func (s *Server) GetProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "property")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := s.propertyService.Get(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(p)
}

// CreateProperty handles POST /api/properties
// @Summary Create a listing
// @Tags properties
// @Accept json
// @Produce json
// @Param request body service.CreatePropertyInput true "Listing"
// @Success 201 {object} models.Property
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /properties [post]
func (s *Server) CreateProperty(c *fiber.Ctx) error {
	var in service.CreatePropertyInput
	if err := decodeStrict(c, &in); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := s.propertyService.Create(ctx, actor(c), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// UpdateProperty handles PUT /api/properties/:id
// @Summary Update a listing
// @Description Owner or admin only. Unknown fields are rejected.
// @Tags properties
// @Accept json
// @Produce json
// @Param id path int true "Property ID"
// @Param request body service.PropertyPatch true "Fields to change"
// @Success 200 {object} models.Property
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /properties/{id} [put]
func (s *Server) UpdateProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "property")
	if err != nil {
		return nil
	}
	var patch service.PropertyPatch
	if err := decodeStrict(c, &patch); err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	p, err := s.propertyService.Update(ctx, actor(c), id, patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(p)
}

// DeleteProperty handles DELETE /api/properties/:id
// @Summary Delete a listing
// @Tags properties
// @Produce json
// @Param id path int true "Property ID"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /properties/{id} [delete]
func (s *Server) DeleteProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id", "property")
	if err != nil {
		return nil
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.propertyService.Delete(ctx, actor(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Property deleted successfully",
	})
}
