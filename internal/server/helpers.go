package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"homestead/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	maxPaginationLimit = 100
	requestTimeout     = 5 * time.Second
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 INVALID_ID response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param, resource string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewInvalidIDError(resource))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// decodeStrict decodes a JSON body into dst, rejecting unknown fields and
// trailing data. On failure it writes a 400 response and returns
// errResponseWritten.
func decodeStrict(c *fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(describeDecodeError(err)))
		return errResponseWritten
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Request body must contain a single JSON object"))
		return errResponseWritten
	}
	return nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return "Request body is required"
	case errors.As(err, &typeErr):
		return "Invalid value for field " + typeErr.Field
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return "Unknown field " + field
	default:
		return "Invalid request body"
	}
}

// requestContext derives the per-request timeout context used for database work.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

// mapServiceError maps a service error to the HTTP status it implies.
// Timeouts surface as 504.
func mapServiceError(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	return models.StatusForError(err)
}

// respondServiceError writes err with the status mapServiceError picks.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, mapServiceError(err), err)
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, models.NewValidationError("Invalid " + humanizeParam(key))
	}
	return &v, nil
}

// humanizeParam converts a camelCase query or route name into words.
// Examples: "minPrice" -> "min price", "id" -> "ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	var words []string
	start := 0
	for i, r := range param {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, param[start:i])
			start = i
		}
	}
	words = append(words, param[start:])
	return strings.ToLower(strings.Join(words, " "))
}
