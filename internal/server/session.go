package server

import (
	"context"
	"strings"
	"time"

	"homestead/internal/auth"
	"homestead/internal/cache"
	"homestead/internal/middleware"
	"homestead/internal/models"
	"homestead/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	localSession = "session"
	localUserID  = "userID"
	localRole    = "role"
)

// LoadSession attaches the caller's session, if any, to the request. Missing,
// invalid and revoked tokens leave the request anonymous; SessionRequired
// decides whether that is acceptable.
func (s *Server) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := s.tokenFromRequest(c)
		if raw == "" {
			return c.Next()
		}

		claims, err := s.tokens.Parse(raw)
		if err != nil {
			return c.Next()
		}
		if s.isRevoked(c.UserContext(), claims.ID) {
			return c.Next()
		}
		userID, err := claims.UserID()
		if err != nil {
			return c.Next()
		}

		c.Locals(localSession, claims)
		c.Locals(localUserID, userID)
		c.Locals(localRole, claims.Role)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
		return c.Next()
	}
}

// SessionRequired rejects anonymous requests with 401. The role is re-read
// from the database so demotions apply before the token expires.
func (s *Server) SessionRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(localUserID).(uint)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}

		user, err := s.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			if models.IsNotFound(err) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Session user no longer exists"))
			}
			return respondServiceError(c, err)
		}
		c.Locals(localRole, user.Role)
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after SessionRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(localRole).(models.Role); role != models.RoleAdmin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// actor returns the session caller, or nil for anonymous requests.
func actor(c *fiber.Ctx) *service.Actor {
	claims, ok := c.Locals(localSession).(*auth.SessionClaims)
	if !ok {
		return nil
	}
	userID, _ := c.Locals(localUserID).(uint)
	role, _ := c.Locals(localRole).(models.Role)
	return &service.Actor{UserID: userID, Email: claims.Email, Role: role}
}

func sessionClaims(c *fiber.Ctx) *auth.SessionClaims {
	claims, _ := c.Locals(localSession).(*auth.SessionClaims)
	return claims
}

// tokenFromRequest reads a Bearer token, falling back to the session cookie.
func (s *Server) tokenFromRequest(c *fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(s.cookieName())
}

func (s *Server) cookieName() string {
	if s.config.SessionCookieName != "" {
		return s.config.SessionCookieName
	}
	return "session-token"
}

func (s *Server) isRevoked(ctx context.Context, jti string) bool {
	if s.redis == nil || jti == "" {
		return false
	}
	n, err := s.redis.Exists(ctx, cache.SessionBlacklistKey(jti)).Result()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "session revocation check failed", "error", err)
		return false
	}
	return n > 0
}

// revoke blacklists the token's JTI until it would have expired anyway.
func (s *Server) revoke(ctx context.Context, claims *auth.SessionClaims) {
	if s.redis == nil || claims == nil || claims.ID == "" {
		return
	}
	ttl := claims.Remaining(time.Now())
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, cache.SessionBlacklistKey(claims.ID), "1", ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke session", "error", err)
	}
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
