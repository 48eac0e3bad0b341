// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"homestead/internal/database"
	"homestead/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Int64

// NewDB opens a private in-memory SQLite database with the full schema and
// foreign keys enforced.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection would otherwise get its own empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// CreateUser inserts a USER with a unique email and the given password
// (bcrypt min cost). An empty password leaves the hash NULL.
func CreateUser(t *testing.T, db *gorm.DB, name, password string) *models.User {
	t.Helper()
	n := seq.Add(1)
	u := &models.User{
		Name:  StrPtr(name),
		Email: fmt.Sprintf("user%d@example.com", n),
		Role:  models.RoleUser,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		u.Password = StrPtr(string(hash))
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAdmin inserts an ADMIN user.
func CreateAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := CreateUser(t, db, "Admin", "")
	require.NoError(t, db.Model(u).Update("role", models.RoleAdmin).Error)
	u.Role = models.RoleAdmin
	return u
}

// CreateProperty inserts a minimal valid listing owned by ownerID.
func CreateProperty(t *testing.T, db *gorm.DB, ownerID uint, title string) *models.Property {
	t.Helper()
	p := &models.Property{
		Title:        title,
		Description:  "Sunny apartment near the park",
		PropertyType: "apartment",
		DealType:     "sale",
		Area:         120,
		Location:     "Tehran",
		Status:       models.PropertyStatusActive,
		Images:       models.StringList{},
		OwnerID:      ownerID,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreatePost inserts a post written by authorID.
func CreatePost(t *testing.T, db *gorm.DB, authorID uint, title string, published bool) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:     title,
		Content:   "A long enough body for a post.",
		Published: published,
		AuthorID:  authorID,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
