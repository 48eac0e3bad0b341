package server

import (
	"homestead/internal/auth"
	"homestead/internal/models"
	"homestead/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles POST /api/auth/signup
// @Summary Credential sign-up
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.SignupInput true "Signup request"
// @Success 201 {object} object{message=string,user=models.Identity}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.authService.Signup(ctx, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    user,
	})
}

type signinRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

// Signin handles POST /api/auth/signin
// @Summary Credential sign-in
// @Description Verify credentials, issue a session token and set the session cookie
// @Tags auth
// @Accept json
// @Produce json
// @Param request body signinRequest true "Credentials"
// @Success 200 {object} object{ok=bool,token=string,user=models.Identity,url=string}
// @Failure 401 {object} object{ok=bool,error=string}
// @Router /auth/signin [post]
func (s *Server) Signin(c *fiber.Ctx) error {
	var req signinRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	identity, err := s.authService.VerifyCredentials(ctx, req.Email, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}
	if identity == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"ok":    false,
			"error": "Invalid email or password",
		})
	}

	token, claims, err := s.tokens.Issue(*identity)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	s.setSessionCookie(c, token, claims.ExpiresAt.Time)

	return c.JSON(fiber.Map{
		"ok":      true,
		"token":   token,
		"user":    identity,
		"expires": claims.ExpiresAt.Time,
		"url":     auth.ResolveRedirect(req.CallbackURL, s.config.BaseURL),
	})
}

// Signout handles POST /api/auth/signout. The return URL is always the site
// root.
// @Summary Sign out
// @Tags auth
// @Produce json
// @Success 200 {object} object{url=string}
// @Router /auth/signout [post]
func (s *Server) Signout(c *fiber.Ctx) error {
	s.revoke(c.UserContext(), sessionClaims(c))
	s.clearSessionCookie(c)
	return c.JSON(fiber.Map{"url": auth.SignOutRedirect(s.config.BaseURL)})
}

// GetSession handles GET /api/auth/session
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} object{user=models.Identity,expires=string}
// @Router /auth/session [get]
func (s *Server) GetSession(c *fiber.Ctx) error {
	claims := sessionClaims(c)
	if claims == nil {
		return c.JSON(fiber.Map{})
	}
	identity, err := claims.Identity()
	if err != nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(fiber.Map{
		"user":    identity,
		"expires": claims.ExpiresAt.Time,
	})
}

// Redirect handles GET /api/auth/redirect?callbackUrl=...
// @Summary Resolve a post-auth redirect
// @Tags auth
// @Param callbackUrl query string false "Requested destination"
// @Success 302
// @Router /auth/redirect [get]
func (s *Server) Redirect(c *fiber.Ctx) error {
	return c.Redirect(auth.ResolveRedirect(c.Query("callbackUrl"), s.config.BaseURL), fiber.StatusFound)
}
