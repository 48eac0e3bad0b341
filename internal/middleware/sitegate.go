package middleware

import (
	"crypto/subtle"
	"net/url"
	"path"
	"strings"

	"homestead/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
)

// SiteGateConfig configures the site-wide HTTP Basic gate.
type SiteGateConfig struct {
	Enabled  bool
	Username string
	Password string
	Realm    string
}

// gateExemptPrefixes are path prefixes the gate never challenges: the JSON
// API, framework assets, public images and health checks. /metrics stays
// behind the gate.
var gateExemptPrefixes = []string{
	"/api",
	"/_next",
	"/images",
	"/static",
	"/health",
}

// GateExempt reports whether path bypasses the site gate.
func GateExempt(path string) bool {
	if path == "/favicon.ico" {
		return true
	}
	for _, prefix := range gateExemptPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// gatePath returns the path the gate decides on. A raw path with a dot
// segment is never exempt; otherwise the router's normalized path is used so
// the decision matches what the static handler will serve.
func gatePath(c *fiber.Ctx) (string, bool) {
	raw := string(c.Request().URI().PathOriginal())
	if hasDotSegment(raw) {
		return "", false
	}
	return path.Clean("/" + string(c.Request().URI().Path())), true
}

func hasDotSegment(raw string) bool {
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	for _, seg := range strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." || seg == "." {
			return true
		}
	}
	return false
}

// SiteGate returns the basic-auth gate. Challenged requests without the
// configured credentials get 401 with a Basic challenge and never reach the
// next handler. The gate does not touch session state.
func SiteGate(cfg SiteGateConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	realm := cfg.Realm
	if realm == "" {
		realm = "Protected Area"
	}
	wantUser := []byte(cfg.Username)
	wantPass := []byte(cfg.Password)

	return basicauth.New(basicauth.Config{
		Next: func(c *fiber.Ctx) bool {
			p, ok := gatePath(c)
			return ok && GateExempt(p)
		},
		Realm: realm,
		Authorizer: func(user, pass string) bool {
			userOK := subtle.ConstantTimeCompare([]byte(user), wantUser) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), wantPass) == 1
			return userOK && passOK
		},
		Unauthorized: func(c *fiber.Ctx) error {
			observability.SiteGateRejections.Inc()
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="`+realm+`"`)
			return c.Status(fiber.StatusUnauthorized).SendString("Authentication required")
		},
	})
}
