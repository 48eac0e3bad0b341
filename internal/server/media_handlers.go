package server

import (
	"net/http"

	"homestead/internal/models"
	"homestead/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Upload handles POST /api/upload
// @Summary Upload an image
// @Description Stores the multipart "file" field under profiles/ and returns the generated name.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Success 200 {object} object{success=bool,fileName=string,message=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /upload [post]
func (s *Server) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := header.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	ctx, cancel := requestContext(c)
	defer cancel()

	name, err := s.mediaService.Upload(ctx, service.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"fileName": name,
		"message":  "File uploaded successfully",
	})
}

// ServeImage handles GET /api/images/*
// @Summary Serve a stored image
// @Tags media
// @Produce octet-stream
// @Param path path string true "Path relative to the image root"
// @Success 200 {file} file
// @Failure 404 {object} models.ErrorResponse
// @Router /images/{path} [get]
func (s *Server) ServeImage(c *fiber.Ctx) error {
	media, err := s.mediaService.Open(c.UserContext(), c.Params("*"))
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, media.ContentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000")
	if !media.ModTime.IsZero() {
		c.Set(fiber.HeaderLastModified, media.ModTime.UTC().Format(http.TimeFormat))
	}
	// fasthttp sets Content-Length from size and closes the body once written.
	return c.SendStream(media.Body, int(media.Size))
}
