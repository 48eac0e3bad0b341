// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"homestead/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// clampPage normalizes limit/offset for list queries.
func clampPage(limit, offset, def int) (int, int) {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// isForeignKeyError checks if a DB error is a foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key") || strings.Contains(msg, "23503")
}

// mapLookupError converts a single-row lookup error.
func mapLookupError(err error, resource string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

type userSummaryRow struct {
	ID    uint
	Name  *string
	Email string
	Image *string
	Bio   *string
}

// loadUserSummaries fetches the public projection of the given users keyed by ID.
func loadUserSummaries(db *gorm.DB, ids []uint) (map[uint]*models.UserSummary, error) {
	out := make(map[uint]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userSummaryRow
	if err := db.Model(&models.User{}).
		Select("id", "name", "email", "image", "bio").
		Where("id IN ?", uniqueIDs(ids)).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = &models.UserSummary{ID: r.ID, Name: r.Name, Email: r.Email, Image: r.Image, Bio: r.Bio}
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
